// Package speech turns audio files into text through a remote API.
package speech

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const DefaultModel = "gpt-4o-mini-transcribe"

// ErrNotConfigured is returned when no API key was provided.
var ErrNotConfigured = errors.New("OPENAI_API_KEY is not set")

type Transcriber interface {
	// Transcribe returns the text spoken in the audio file at path.
	Transcribe(ctx context.Context, path string) (string, error)
	Model() string
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type OpenAITranscriber struct {
	client *openai.Client
	model  string
	logger logrus.FieldLogger
}

var _ Transcriber = (*OpenAITranscriber)(nil)

func NewOpenAITranscriber(cfg Config, logger logrus.FieldLogger) (*OpenAITranscriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAITranscriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (t *OpenAITranscriber) Model() string {
	return t.model
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	logger := t.logger.WithFields(logrus.Fields{"model": t.model, "file": path})
	logger.Info("Sending transcription request")

	start := time.Now()
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
	})
	duration := time.Since(start)

	if err != nil {
		logger.WithError(err).WithField("duration", duration).Error("Transcription request failed")
		return "", errors.Wrap(err, "openai transcription")
	}

	logger.WithField("duration", duration).Info("Transcription received")
	return resp.Text, nil
}
