package analyzer

// aiIndicatorWords are discourse markers that occur disproportionately in
// LLM output. Each word-boundary match adds 10 to the AI-indicator score.
var aiIndicatorWords = []string{
	"furthermore",
	"moreover",
	"additionally",
	"consequently",
	"comprehensive",
	"crucial",
	"delve",
	"pivotal",
	"leverage",
	"seamless",
	"robust",
	"foster",
	"landscape",
	"underscore",
	"multifaceted",
	"noteworthy",
	"paramount",
	"holistic",
	"intricate",
}

// genericPhrases are stock constructions typical of generated prose.
// Each containment match adds 15 to the AI-indicator score.
var genericPhrases = []string{
	"it is important to note",
	"it's worth noting",
	"in conclusion",
	"on the other hand",
	"in today's world",
	"plays a crucial role",
	"a wide range of",
	"in the realm of",
	"when it comes to",
}

// hedgeWords soften claims; LLM output leans on them heavily.
var hedgeWords = map[string]bool{
	"perhaps":     true,
	"possibly":    true,
	"likely":      true,
	"arguably":    true,
	"generally":   true,
	"typically":   true,
	"often":       true,
	"somewhat":    true,
	"relatively":  true,
	"presumably":  true,
	"apparently":  true,
	"seemingly":   true,
	"probably":    true,
	"potentially": true,
}

// beForms are the to-be conjugations used by the passive voice heuristic.
var beForms = map[string]bool{
	"is":    true,
	"are":   true,
	"was":   true,
	"were":  true,
	"been":  true,
	"being": true,
}
