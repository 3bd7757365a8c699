package transcript

import (
	"context"

	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/youtube"
)

// DefaultLanguages is used when a request names no preferred languages.
var DefaultLanguages = []string{"en", "en-US", "en-GB"}

type Service interface {
	// Fetch returns the snippets of the best available transcript.
	Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error)

	// Available lists the caption tracks of a video.
	Available(ctx context.Context, videoID string) ([]models.TrackInfo, error)
}

// Source is the caption provider the fallback chain draws from.
type Source interface {
	Fetch(ctx context.Context, videoID string, languages []string) ([]models.Snippet, error)
	List(ctx context.Context, videoID string) (*youtube.TranscriptList, error)
	FetchTrack(ctx context.Context, track youtube.Track, translateTo string) ([]models.Snippet, error)
}

var _ Source = (*youtube.Client)(nil)
