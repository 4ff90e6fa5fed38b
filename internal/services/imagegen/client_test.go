package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestClientGenerateBase64(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["prompt"] != "weathered fisherman in oilskins" {
			t.Fatalf("unexpected prompt %v", req["prompt"])
		}
		if req["size"] != "1024x1024" {
			t.Fatalf("unexpected size %v", req["size"])
		}
		payload := map[string]any{
			"data": []any{
				map[string]any{"b64_json": base64.StdEncoding.EncodeToString(pngBytes)},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	path, err := client.Generate(context.Background(), "weathered fisherman in oilskins", dir, "Old Fisherman")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if filepath.Base(path) != "old_fisherman.png" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Fatal("saved image does not match payload")
	}
}

func TestClientGenerateURLFallback(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/image.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"data": []any{
				map[string]any{"url": server.URL + "/image.png"},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	path, err := client.Generate(context.Background(), "lighthouse at dusk", t.TempDir(), "lighthouse")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("unexpected image contents %q", data)
	}
}

func TestClientGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"prompt rejected"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	if _, err := client.Generate(context.Background(), "prompt", t.TempDir(), "asset"); err == nil {
		t.Fatal("expected error for http 400")
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Old Fisherman":  "old_fisherman",
		"  Dock #3!  ":   "dock_3",
		"":               "asset",
		"!!!":            "asset",
		"Harbor-Master":  "harbor_master",
		"café del mar":   "caf_del_mar",
		"UPPER_and_down": "upper_and_down",
	}
	for input, want := range cases {
		if got := sanitizeFileName(input); got != want {
			t.Fatalf("sanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
