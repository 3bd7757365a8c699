package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/repository"
	"github.com/pkg/errors"
)

type Repository struct {
	db *sql.DB
}

var _ repository.TranscriptionRepository = (*Repository)(nil)

// Open initializes the database at dbPath and returns a repository over it.
func Open(dbPath string, config DBConfig) (*Repository, error) {
	db, err := InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	ConfigureDB(db, config)
	return NewRepository(db), nil
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, key string, t *models.Transcription) error {
	if err := repository.ValidateKey(key); err != nil {
		return err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "encode cache entry")
	}

	return WithTransaction(ctx, r.db, func(tx Executor) error {
		_, err := tx.ExecContext(ctx, upsertQuery,
			key, string(t.Source), t.Model, string(payload), time.Now().UTC())
		return errors.Wrapf(err, "upsert cache entry %s", key)
	})
}

func (r *Repository) Find(ctx context.Context, key string) (*models.Transcription, error) {
	if err := repository.ValidateKey(key); err != nil {
		return nil, err
	}

	var payload string
	err := r.db.QueryRowContext(ctx, findQuery, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.Wrapf(err, "query cache entry %s", key)
	}

	var t models.Transcription
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, errors.Wrapf(err, "decode cache entry %s", key)
	}
	return &t, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
