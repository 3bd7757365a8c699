package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/models"
	"github.com/sirupsen/logrus"
)

type fakeTranscripts struct {
	snippets  []models.Snippet
	err       error
	languages []string
	videoID   string
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error) {
	f.videoID = videoID
	f.languages = languages
	return f.snippets, f.err
}

func (f *fakeTranscripts) Available(ctx context.Context, videoID string) ([]models.TrackInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []models.TrackInfo{{Language: "English", LanguageCode: "en", TranslationLanguages: []string{}}}, nil
}

type fakeTranscriptions struct {
	url      string
	filename string
	upload   string
	err      error
}

func (f *fakeTranscriptions) FromURL(ctx context.Context, url string) (*models.Transcription, error) {
	f.url = url
	if f.err != nil {
		return nil, f.err
	}
	t := &models.Transcription{Success: true, Transcript: "from url", Source: models.SourceYouTube, URL: url, Model: "m"}
	return t, nil
}

func (f *fakeTranscriptions) FromUpload(ctx context.Context, filename string, r io.Reader) (*models.Transcription, error) {
	data, _ := io.ReadAll(r)
	f.filename = filename
	f.upload = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transcription{Success: true, Transcript: "from upload", Source: models.SourceFileUpload, Filename: filename, Model: "m"}, nil
}

func (f *fakeTranscriptions) FromLocalFile(ctx context.Context) (*models.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transcription{Success: true, Transcript: "local", Source: models.SourceLocalFile, Filename: "audio.mp3", Model: "m"}, nil
}

var testSnippets = []models.Snippet{
	{Text: "Hello", Start: 0, Duration: 1.5},
	{Text: "world", Start: 1.5, Duration: 2.25},
}

type testServer struct {
	transcripts    *fakeTranscripts
	transcriptions *fakeTranscriptions
	cfg            Config
}

func newTestServer() *testServer {
	return &testServer{
		transcripts:    &fakeTranscripts{snippets: testSnippets},
		transcriptions: &fakeTranscriptions{},
		cfg: Config{
			BodyLimit:          1 << 20,
			RateLimitPerMinute: 100,
			CacheMaxAgeSeconds: 600,
		},
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := New(s.cfg, Services{Transcripts: s.transcripts, Transcriptions: s.transcriptions}, logger)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	resp, body := newTestServer().do(t, httptest.NewRequest("GET", "/health", nil))

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body != `{"status":"ok"}` {
		t.Errorf("Unexpected body %s", body)
	}

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("Expected %s %q, got %q", header, want, got)
		}
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("Expected generated request id")
	}
}

func TestRequestIDEcho(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-Id", "caller-123")

	resp, _ := newTestServer().do(t, req)
	if got := resp.Header.Get("X-Request-Id"); got != "caller-123" {
		t.Errorf("Expected caller request id, got %q", got)
	}
}

func TestIndex(t *testing.T) {
	resp, body := newTestServer().do(t, httptest.NewRequest("GET", "/", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"/transcript/available"`) {
		t.Errorf("Unexpected index response %d %s", resp.StatusCode, body)
	}
}

func TestTranscriptBadRequest(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/transcript", `{"error":"Missing 'url' or 'id'"}`},
		{"/transcript?url=https://example.com/watch?v=abc", `{"error":"Invalid YouTube URL or ID"}`},
		{"/transcript/available?id=short", `{"error":"Invalid YouTube URL or ID"}`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			s := newTestServer()
			resp, body := s.do(t, httptest.NewRequest("GET", tt.target, nil))
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}
			if body != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, body)
			}
			if s.transcripts.videoID != "" {
				t.Error("Expected fetcher not to be called")
			}
		})
	}
}

func TestTranscriptText(t *testing.T) {
	s := newTestServer()
	resp, body := s.do(t, httptest.NewRequest("GET", "/transcript?url=https://youtu.be/dQw4w9WgXcQ&lang=de&languages=fr,%20es", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if body != "Hello\nworld" {
		t.Errorf("Unexpected body %q", body)
	}
	if s.transcripts.videoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected video id dQw4w9WgXcQ, got %s", s.transcripts.videoID)
	}
	if got := strings.Join(s.transcripts.languages, ","); got != "de,fr,es" {
		t.Errorf("Expected languages de,fr,es, got %s", got)
	}

	checks := map[string]string{
		"Content-Type":        "text/plain; charset=utf-8",
		"Content-Disposition": `inline; filename="dQw4w9WgXcQ.txt"`,
		"Cache-Control":       "public, max-age=600",
	}
	for header, want := range checks {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("Expected %s %q, got %q", header, want, got)
		}
	}
	etag := resp.Header.Get("ETag")
	if len(etag) != 66 || etag[0] != '"' {
		t.Errorf("Expected quoted sha256 ETag, got %q", etag)
	}
}

func TestTranscriptFormats(t *testing.T) {
	tests := []struct {
		query       string
		contentType string
		disposition string
		prefix      string
	}{
		{"format=srt&download=1", "text/plain; charset=utf-8", `attachment; filename="dQw4w9WgXcQ.srt"`, "1\n00:00:00,000 --> 00:00:01,500\nHello\n"},
		{"format=vtt&download=no", "text/vtt; charset=utf-8", `inline; filename="dQw4w9WgXcQ.vtt"`, "WEBVTT\n\n00:00:00.000 --> 00:00:01.500\nHello\n"},
		{"format=xml", "text/plain; charset=utf-8", `inline; filename="dQw4w9WgXcQ.txt"`, "Hello\nworld"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := newTestServer().do(t, httptest.NewRequest("GET", "/transcript?id=dQw4w9WgXcQ&"+tt.query, nil))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected 200, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tt.contentType {
				t.Errorf("Expected Content-Type %q, got %q", tt.contentType, got)
			}
			if got := resp.Header.Get("Content-Disposition"); got != tt.disposition {
				t.Errorf("Expected Content-Disposition %q, got %q", tt.disposition, got)
			}
			if !strings.HasPrefix(body, tt.prefix) {
				t.Errorf("Expected body to start with %q, got %q", tt.prefix, body)
			}
		})
	}
}

func TestTranscriptJSON(t *testing.T) {
	resp, body := newTestServer().do(t, httptest.NewRequest("GET", "/transcript?id=dQw4w9WgXcQ&format=json", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var got models.TranscriptResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}
	if got.VideoID != "dQw4w9WgXcQ" || len(got.Snippets) != 2 {
		t.Errorf("Unexpected response %+v", got)
	}
	if strings.Join(got.LanguagesTried, ",") != "en,en-US,en-GB" {
		t.Errorf("Expected default languages, got %v", got.LanguagesTried)
	}
}

func TestTranscriptETag(t *testing.T) {
	s := newTestServer()
	resp, _ := s.do(t, httptest.NewRequest("GET", "/transcript?id=dQw4w9WgXcQ", nil))
	etag := resp.Header.Get("ETag")

	req := httptest.NewRequest("GET", "/transcript?id=dQw4w9WgXcQ", nil)
	req.Header.Set("If-None-Match", etag)
	resp, body := s.do(t, req)

	if resp.StatusCode != http.StatusNotModified {
		t.Fatalf("Expected 304, got %d", resp.StatusCode)
	}
	if body != "" {
		t.Errorf("Expected empty body, got %q", body)
	}
	if resp.Header.Get("ETag") != etag {
		t.Errorf("Expected ETag %s on 304, got %s", etag, resp.Header.Get("ETag"))
	}

	req = httptest.NewRequest("GET", "/transcript?id=dQw4w9WgXcQ", nil)
	req.Header.Set("If-None-Match", `"stale"`)
	if resp, _ := s.do(t, req); resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 for stale ETag, got %d", resp.StatusCode)
	}
}

func TestTranscriptNotAvailable(t *testing.T) {
	s := newTestServer()
	s.transcripts.err = errors.NotAvailable("test", nil, "No transcript available for the requested video.")

	for _, target := range []string{"/transcript?id=dQw4w9WgXcQ", "/transcript/available?id=dQw4w9WgXcQ"} {
		resp, body := s.do(t, httptest.NewRequest("GET", target, nil))
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", target, resp.StatusCode)
		}
		if body != `{"error":"No transcript available for the requested video."}` {
			t.Errorf("Unexpected body %s", body)
		}
	}
}

func TestTranscriptAvailable(t *testing.T) {
	resp, body := newTestServer().do(t, httptest.NewRequest("GET", "/transcript/available?url=https://www.youtube.com/shorts/dQw4w9WgXcQ", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	want := `{"videoId":"dQw4w9WgXcQ","available":[{"language":"English","languageCode":"en","isGenerated":false,"isTranslatable":false,"translationLanguages":[]}]}`
	if body != want {
		t.Errorf("Expected %s, got %s", want, body)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer()
	s.cfg.RateLimitPerMinute = 2

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := New(s.cfg, Services{Transcripts: s.transcripts, Transcriptions: s.transcriptions}, logger)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("Failed to test request: %v", err)
		}

		want := http.StatusOK
		if i == 2 {
			want = http.StatusTooManyRequests
		}
		if resp.StatusCode != want {
			t.Errorf("Request %d: expected %d, got %d", i+1, want, resp.StatusCode)
		}
	}
}

func TestTranscribeJSON(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("POST", "/transcribe", strings.NewReader(`{"youtube_url": " https://youtu.be/dQw4w9WgXcQ "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, body := s.do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	if s.transcriptions.url != "https://youtu.be/dQw4w9WgXcQ" {
		t.Errorf("Expected trimmed URL, got %q", s.transcriptions.url)
	}

	var got models.Transcription
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}
	if !got.Success || got.Source != models.SourceYouTube {
		t.Errorf("Unexpected result %+v", got)
	}
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename == "" {
		w.WriteField(field, "")
	} else {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		io.WriteString(part, content)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/transcribe", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestTranscribeUpload(t *testing.T) {
	s := newTestServer()
	resp, body := s.do(t, multipartRequest(t, "audio", "clip.mp3", "ID3 data"))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	if s.transcriptions.filename != "clip.mp3" || s.transcriptions.upload != "ID3 data" {
		t.Errorf("Unexpected upload %q %q", s.transcriptions.filename, s.transcriptions.upload)
	}
}

func TestTranscribeBadRequest(t *testing.T) {
	jsonReq := func(body string) *http.Request {
		req := httptest.NewRequest("POST", "/transcribe", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"json without url", jsonReq(`{"url": "x"}`), "Please provide either a 'youtube_url' in JSON or upload an 'audio' file"},
		{"empty json", jsonReq(``), "No JSON data provided"},
		{"plain text", httptest.NewRequest("POST", "/transcribe", strings.NewReader("hi")), "Please provide either a 'youtube_url' in JSON or upload an 'audio' file"},
		{"empty file field", multipartRequest(t, "audio", "", ""), "No file selected"},
		{"wrong field", multipartRequest(t, "file", "clip.mp3", "data"), "Please provide either a 'youtube_url' in JSON or upload an 'audio' file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := newTestServer().do(t, tt.req)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", resp.StatusCode)
			}

			var got struct {
				Success *bool  `json:"success"`
				Error   string `json:"error"`
			}
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("Failed to unmarshal response body: %v", err)
			}
			if got.Error != tt.want {
				t.Errorf("Expected error %q, got %q", tt.want, got.Error)
			}
			if got.Success == nil || *got.Success {
				t.Error(`Expected "success": false`)
			}
		})
	}
}

func TestTranscribeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"download", errors.DownloadFailed("test", nil, "Error downloading YouTube video: boom"), http.StatusInternalServerError},
		{"transcription", errors.TranscriptionFailed("test", nil, "Error processing audio: boom"), http.StatusInternalServerError},
		{"throttled", errors.RateLimited("test", "slow down"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.transcriptions.err = tt.err

			req := httptest.NewRequest("POST", "/transcribe", strings.NewReader(`{"youtube_url": "https://youtu.be/dQw4w9WgXcQ"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, body := s.do(t, req)
			if resp.StatusCode != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, resp.StatusCode)
			}
			appErr, _ := errors.As(tt.err)
			if !strings.Contains(body, appErr.Message) || !strings.Contains(body, `"success":false`) {
				t.Errorf("Unexpected body %s", body)
			}
		})
	}
}

func TestTranscribeLocal(t *testing.T) {
	s := newTestServer()
	resp, body := s.do(t, httptest.NewRequest("POST", "/transcribe-local", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"source":"local_file"`) {
		t.Errorf("Unexpected response %d %s", resp.StatusCode, body)
	}

	s.transcriptions.err = errors.NotFound("test", nil, "audio.mp3 file not found")
	resp, body = s.do(t, httptest.NewRequest("POST", "/transcribe-local", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if body != `{"error":"audio.mp3 file not found","success":false}` {
		t.Errorf("Unexpected body %s", body)
	}
}
