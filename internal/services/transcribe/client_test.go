package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAudioFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "narration.mp3")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestClientTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Fatalf("unexpected model %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "narration.mp3" {
			t.Fatalf("unexpected filename %q", header.Filename)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " The harbor was quiet at dawn. "})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	text, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if text != "The harbor was quiet at dawn." {
		t.Fatalf("unexpected transcript %q", text)
	}
}

func TestClientTranscribeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), writeAudioFixture(t))
	if err == nil {
		t.Fatal("expected error for http 401")
	}
	if !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientTranscribeEmptyTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	if _, err := client.Transcribe(context.Background(), writeAudioFixture(t)); err == nil {
		t.Fatal("expected error for empty transcript")
	}
}

func TestClientTranscribeRequiresKey(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Transcribe(context.Background(), "audio.mp3"); err == nil {
		t.Fatal("expected error without api key")
	}
}
