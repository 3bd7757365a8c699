package transcript

import (
	"context"
	"io"
	"testing"

	apperrors "github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/youtube"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type fakeSource struct {
	direct     []models.Snippet
	directErr  error
	list       *youtube.TranscriptList
	listErr    error
	// failTracks holds "lang" or "lang>target" keys whose fetch fails.
	failTracks map[string]bool

	listCalls int
	fetched   []string
}

func (f *fakeSource) Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error) {
	return f.direct, f.directErr
}

func (f *fakeSource) List(ctx context.Context, videoID string) (*youtube.TranscriptList, error) {
	f.listCalls++
	return f.list, f.listErr
}

func (f *fakeSource) FetchTrack(ctx context.Context, track youtube.Track, translateTo string) ([]models.Snippet, error) {
	key := track.LanguageCode
	if translateTo != "" {
		key += ">" + translateTo
	}
	f.fetched = append(f.fetched, key)
	if f.failTracks[key] {
		return nil, errors.New("fetch failed")
	}
	return []models.Snippet{{Text: key, Start: 0, Duration: 1}}, nil
}

func newTestService(src Source) Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(src, logger)
}

func TestFetchDirect(t *testing.T) {
	src := &fakeSource{direct: []models.Snippet{{Text: "direct"}}}

	snippets, err := newTestService(src).Fetch(context.Background(), "abc", nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if snippets[0].Text != "direct" {
		t.Errorf("Expected direct result, got %q", snippets[0].Text)
	}
	if src.listCalls != 0 {
		t.Errorf("Expected no list call, got %d", src.listCalls)
	}
}

func TestFetchFallbackChain(t *testing.T) {
	directErr := errors.New("direct failed")

	tests := []struct {
		name      string
		languages []string
		list      *youtube.TranscriptList
		fail      map[string]bool
		want      string
	}{
		{
			name:      "requested language",
			languages: []string{"de"},
			list: &youtube.TranscriptList{
				Manual:    []youtube.Track{{LanguageCode: "fr"}},
				Generated: []youtube.Track{{LanguageCode: "de", IsGenerated: true}},
			},
			want: "de",
		},
		{
			name:      "first fetchable track",
			languages: []string{"ja"},
			list: &youtube.TranscriptList{
				Manual:    []youtube.Track{{LanguageCode: "fr"}},
				Generated: []youtube.Track{{LanguageCode: "de", IsGenerated: true}},
			},
			fail: map[string]bool{"fr": true},
			want: "de",
		},
		{
			name:      "translated",
			languages: []string{"ja"},
			list: &youtube.TranscriptList{
				Manual: []youtube.Track{
					{LanguageCode: "fr"},
					{LanguageCode: "es", IsTranslatable: true},
				},
			},
			fail: map[string]bool{"fr": true, "es": true},
			want: "es>ja",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{directErr: directErr, list: tt.list, failTracks: tt.fail}

			snippets, err := newTestService(src).Fetch(context.Background(), "abc", tt.languages)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if snippets[0].Text != tt.want {
				t.Errorf("Expected %q, got %q (fetched %v)", tt.want, snippets[0].Text, src.fetched)
			}
			if src.listCalls != 1 {
				t.Errorf("Expected track list to be requested once, got %d", src.listCalls)
			}
		})
	}
}

func TestFetchNotAvailable(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{
			name: "list fails",
			src: &fakeSource{
				directErr: youtube.ErrTranscriptsDisabled,
				listErr:   youtube.ErrTranscriptsDisabled,
			},
		},
		{
			name: "every track fails",
			src: &fakeSource{
				directErr:  youtube.ErrNoTranscriptFound,
				list:       &youtube.TranscriptList{Manual: []youtube.Track{{LanguageCode: "fr", IsTranslatable: true}}},
				failTracks: map[string]bool{"fr": true, "fr>en": true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.src).Fetch(context.Background(), "abc", []string{"en"})
			if !apperrors.Is(err, apperrors.KindNotAvailable) {
				t.Fatalf("Expected NotAvailable, got %v", err)
			}
			appErr, _ := apperrors.As(err)
			if appErr.Message != notAvailableMessage {
				t.Errorf("Expected message %q, got %q", notAvailableMessage, appErr.Message)
			}
			if appErr.Err == nil {
				t.Error("Expected last strategy failure to be kept as cause")
			}
		})
	}
}

func TestFetchStopsOnCancelledContext(t *testing.T) {
	src := &fakeSource{directErr: errors.New("unreachable")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(src).Fetch(ctx, "abc", nil)
	if !apperrors.Is(err, apperrors.KindNotAvailable) {
		t.Fatalf("Expected NotAvailable, got %v", err)
	}
	if src.listCalls != 0 {
		t.Errorf("Expected no list call after cancellation, got %d", src.listCalls)
	}
}

func TestAvailable(t *testing.T) {
	src := &fakeSource{list: &youtube.TranscriptList{
		Manual: []youtube.Track{{Language: "English", LanguageCode: "en", IsTranslatable: true,
			TranslationLanguages: []youtube.TranslationLanguage{{Language: "German", LanguageCode: "de"}}}},
		Generated: []youtube.Track{{Language: "French (auto)", LanguageCode: "fr", IsGenerated: true}},
	}}

	infos, err := newTestService(src).Available(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Available failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 tracks, got %d", len(infos))
	}
	if infos[0].LanguageCode != "en" || len(infos[0].TranslationLanguages) != 1 || infos[0].TranslationLanguages[0] != "de" {
		t.Errorf("Unexpected first track %+v", infos[0])
	}
	if !infos[1].IsGenerated || infos[1].TranslationLanguages == nil {
		t.Errorf("Unexpected second track %+v", infos[1])
	}

	src = &fakeSource{listErr: youtube.ErrVideoUnavailable}
	if _, err := newTestService(src).Available(context.Background(), "abc"); !apperrors.Is(err, apperrors.KindNotAvailable) {
		t.Errorf("Expected NotAvailable, got %v", err)
	}
}
