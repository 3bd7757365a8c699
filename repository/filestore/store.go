// Package filestore keeps one JSON document per key in a directory.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/repository"
	"github.com/pkg/errors"
)

type Store struct {
	dir string
}

var _ repository.TranscriptionRepository = (*Store)(nil)

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create cache directory %s", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) Find(ctx context.Context, key string) (*models.Transcription, error) {
	if err := repository.ValidateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrapf(err, "read cache entry %s", key)
	}

	var t models.Transcription
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "decode cache entry %s", key)
	}
	return &t, nil
}

// Save writes the entry to a unique temp file in the cache directory and
// renames it into place, so readers see either the old or the new document.
func (s *Store) Save(ctx context.Context, key string, t *models.Transcription) error {
	if err := repository.ValidateKey(key); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		return errors.Wrapf(err, "rename cache entry %s", key)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
