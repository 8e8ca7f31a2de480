package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode generate request: %v", err)
			}
			if stream, ok := req["stream"].(bool); !ok || stream {
				t.Errorf("expected stream=false, got %v", req["stream"])
			}
			if prompt, _ := req["prompt"].(string); !strings.Contains(prompt, "likelihood") {
				t.Errorf("prompt missing response schema: %q", prompt)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"response": reply,
				"done":     true,
			})
		case "/api/version":
			json.NewEncoder(w).Encode(map[string]string{"version": "0.5.0"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestJudgeParsesStructuredReply(t *testing.T) {
	server := newTestServer(t, `{"likelihood": 75, "confidence": 65, "reasoning": "even cadence"}`)
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	judgment, err := client.Judge(context.Background(), "Some text to analyze for authorship signals.")
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}

	if judgment.Likelihood != 75 {
		t.Errorf("expected likelihood 75, got %d", judgment.Likelihood)
	}
	if judgment.Confidence != 65 {
		t.Errorf("expected confidence 65, got %d", judgment.Confidence)
	}
}

func TestJudgeUnparseableReply(t *testing.T) {
	server := newTestServer(t, "")
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Judge(context.Background(), "Some text to analyze.")
	if !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", err)
	}
}

func TestJudgeEndpointDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(server.URL, "test-model")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Judge(context.Background(), "Some text to analyze.")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestVersionProbe(t *testing.T) {
	server := newTestServer(t, "")
	defer server.Close()

	client, err := New(server.URL, "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != "0.5.0" {
		t.Errorf("expected version 0.5.0, got %q", version)
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New("", "")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if client.model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, client.model)
	}
	if client.timeout != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, client.timeout)
	}
}

func TestDetectionPromptTruncation(t *testing.T) {
	long := strings.Repeat("a", maxPromptTextLen*2)
	prompt := detectionPrompt(long)

	if strings.Contains(prompt, strings.Repeat("a", maxPromptTextLen+1)) {
		t.Error("expected analyzed text to be truncated in the prompt")
	}
	if !strings.Contains(prompt, strings.Repeat("a", maxPromptTextLen)) {
		t.Error("expected truncated text to remain in the prompt")
	}
}
