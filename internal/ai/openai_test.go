package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*OpenAIClient, *recordingCollector) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var buf bytes.Buffer
	rc := &recordingCollector{}
	c := NewOpenAIClient(server.Client(), newTestLogger(&buf), rc, OpenAIConfig{
		APIKey:  "sk-openai-test",
		Model:   "dall-e-3",
		Size:    "1024x1024",
		Timeout: timeout,
	})
	c.endpoint = server.URL
	return c, rc
}

func TestOpenAIClient_GenerateImage_Base64(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	c, rc := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-openai-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var req openAIImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.N != 1 || req.Size != "1024x1024" || req.ResponseFormat != "b64_json" || req.Model != "dall-e-3" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{
				"b64_json":       base64.StdEncoding.EncodeToString(png),
				"revised_prompt": "revised",
			}},
		})
	}, time.Second)

	img, err := c.GenerateImage(context.Background(), "a calm clinic lobby")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if !bytes.Equal(img.Data, png) {
		t.Errorf("Data = %v, want %v", img.Data, png)
	}
	if img.RevisedPrompt != "revised" {
		t.Errorf("RevisedPrompt = %q", img.RevisedPrompt)
	}
	if rc.outcomes[0] != "openai/image/success" {
		t.Errorf("outcome = %q", rc.outcomes[0])
	}
}

func TestOpenAIClient_GenerateImage_URLOnly(t *testing.T) {
	c, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"url":"https://images.example.com/a.png"}]}`))
	}, time.Second)

	img, err := c.GenerateImage(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if len(img.Data) != 0 || img.URL != "https://images.example.com/a.png" {
		t.Errorf("img = %+v", img)
	}
}

func TestOpenAIClient_GenerateImage_NoPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"dataが空", `{"data":[]}`},
		{"b64もURLもない", `{"data":[{"revised_prompt":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, time.Second)

			if _, err := c.GenerateImage(context.Background(), "prompt"); !errors.Is(err, ErrNoContent) {
				t.Errorf("err = %v, want ErrNoContent", err)
			}
		})
	}
}

func TestOpenAIClient_GenerateImage_ErrorStatus(t *testing.T) {
	c, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"content policy"}}`))
	}, time.Second)

	_, err := c.GenerateImage(context.Background(), "prompt")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("err = %v, want StatusError 400", err)
	}
}

func TestOpenAIClient_GenerateImage_Timeout(t *testing.T) {
	c, rc := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond)

	if _, err := c.GenerateImage(context.Background(), "prompt"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if rc.outcomes[0] != "openai/image/timeout" {
		t.Errorf("outcome = %q", rc.outcomes[0])
	}
}

func TestOpenAIClient_GenerateImage_InvalidBase64(t *testing.T) {
	c, _ := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"b64_json":"!!!not-base64"}]}`))
	}, time.Second)

	if _, err := c.GenerateImage(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for invalid base64 payload")
	}
}
