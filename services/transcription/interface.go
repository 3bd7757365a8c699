package transcription

import (
	"context"
	"io"
	"time"

	"github.com/nijaru/transcript-server/models"
	"golang.org/x/time/rate"
)

type Service interface {
	// FromURL downloads the audio of a YouTube video and transcribes it.
	FromURL(ctx context.Context, url string) (*models.Transcription, error)

	// FromUpload transcribes an uploaded audio stream.
	FromUpload(ctx context.Context, filename string, r io.Reader) (*models.Transcription, error)

	// FromLocalFile transcribes the configured audio file on disk.
	FromLocalFile(ctx context.Context) (*models.Transcription, error)
}

type Cache interface {
	Lookup(ctx context.Context, key string) (*models.Transcription, bool)
	Store(ctx context.Context, key string, t *models.Transcription)
}

type Downloader interface {
	DownloadAudio(ctx context.Context, url, dir string) (string, error)
}

type Config struct {
	// Model names the speech-to-text model; it is part of every cache key.
	Model string

	// TempDir holds downloads and uploads while they are processed.
	// Empty means the system default.
	TempDir string

	LocalAudioPath string

	// Timeout bounds download plus transcription of a single request.
	Timeout time.Duration

	// RateLimit and Burst throttle calls to the speech-to-text API across
	// all clients. Cache hits are not throttled. Zero disables throttling.
	RateLimit rate.Limit
	Burst     int
}
