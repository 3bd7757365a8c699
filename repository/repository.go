package repository

import (
	"context"
	"regexp"

	"github.com/nijaru/transcript-server/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Find when no entry exists for a key.
var ErrNotFound = errors.New("transcription not found")

// ErrInvalidKey is returned for keys that are not lowercase hex digests.
var ErrInvalidKey = errors.New("invalid cache key")

var keyPattern = regexp.MustCompile(`^[0-9a-f]{16,128}$`)

// TranscriptionRepository stores transcriptions by content-addressed key.
// Save replaces any existing entry as a whole.
type TranscriptionRepository interface {
	Save(ctx context.Context, key string, t *models.Transcription) error
	Find(ctx context.Context, key string) (*models.Transcription, error)
	Close() error
}

func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return nil
}
