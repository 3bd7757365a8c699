// Package cache maps content-addressed keys to finished transcriptions.
// Storage failures are logged and never returned.
package cache

import (
	"context"

	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/repository"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Cache struct {
	repo   repository.TranscriptionRepository
	logger logrus.FieldLogger
}

func New(repo repository.TranscriptionRepository, logger logrus.FieldLogger) *Cache {
	return &Cache{repo: repo, logger: logger}
}

// Lookup returns the entry stored under key marked as cached. Any read or
// decode failure is reported as a miss.
func (c *Cache) Lookup(ctx context.Context, key string) (*models.Transcription, bool) {
	t, err := c.repo.Find(ctx, key)
	if err != nil {
		logger := c.logger.WithField("cache_key", key)
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debug("Cache miss")
		} else {
			logger.WithError(err).Warn("Cache read failed, treating as miss")
		}
		return nil, false
	}

	t.Cached = true
	c.logger.WithField("cache_key", key).Debug("Cache hit")
	return t, true
}

// Store persists a copy of t with the cached flag cleared.
func (c *Cache) Store(ctx context.Context, key string, t *models.Transcription) {
	entry := *t
	entry.Cached = false

	if err := c.repo.Save(ctx, key, &entry); err != nil {
		c.logger.WithField("cache_key", key).WithError(err).Warn("Cache write failed")
		return
	}
	c.logger.WithField("cache_key", key).Debug("Cache entry written")
}

func (c *Cache) Close() error {
	return c.repo.Close()
}
