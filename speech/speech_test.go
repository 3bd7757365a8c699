package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewOpenAITranscriberRequiresKey(t *testing.T) {
	if _, err := NewOpenAITranscriber(Config{APIKey: "  "}, quietLogger()); err != ErrNotConfigured {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	var gotModel, gotFile, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte("fake mp3"), 0o644); err != nil {
		t.Fatalf("Failed to write audio: %v", err)
	}

	tr, err := NewOpenAITranscriber(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"}, quietLogger())
	if err != nil {
		t.Fatalf("Failed to create transcriber: %v", err)
	}

	text, err := tr.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if text != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", text)
	}
	if gotModel != DefaultModel {
		t.Errorf("Expected model %q, got %q", DefaultModel, gotModel)
	}
	if !strings.HasSuffix(gotFile, "audio.mp3") {
		t.Errorf("Expected file name audio.mp3, got %q", gotFile)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Expected bearer auth, got %q", gotAuth)
	}
}

func TestTranscribeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"message": "Invalid file format.", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "audio.mp3")
	os.WriteFile(path, []byte("x"), 0o644)

	tr, _ := NewOpenAITranscriber(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, quietLogger())
	_, err := tr.Transcribe(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "Invalid file format.") {
		t.Errorf("Expected API message in error, got %v", err)
	}
}
