package transcription

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nijaru/transcript-server/cache"
	"github.com/nijaru/transcript-server/errors"
	"github.com/nijaru/transcript-server/models"
	"github.com/nijaru/transcript-server/speech"
	"github.com/nijaru/transcript-server/validation"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const notConfiguredMessage = "Audio transcription is not configured: OPENAI_API_KEY is not set"

type service struct {
	cache       Cache
	downloader  Downloader
	transcriber speech.Transcriber
	limiter     *rate.Limiter
	config      Config
	logger      logrus.FieldLogger
	now         func() time.Time
}

// NewService wires the pipeline. A nil transcriber makes every call fail
// with a configuration error.
func NewService(
	c Cache,
	downloader Downloader,
	transcriber speech.Transcriber,
	config Config,
	logger logrus.FieldLogger,
) Service {
	if config.Model == "" {
		config.Model = speech.DefaultModel
	}
	if transcriber != nil {
		config.Model = transcriber.Model()
	}
	if config.LocalAudioPath == "" {
		config.LocalAudioPath = "audio.mp3"
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(config.RateLimit, burst)
	}

	return &service{
		cache:       c,
		downloader:  downloader,
		transcriber: transcriber,
		limiter:     limiter,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *service) FromURL(ctx context.Context, url string) (*models.Transcription, error) {
	const op = "TranscriptionService.FromURL"
	if err := s.ready(op); err != nil {
		return nil, err
	}
	if err := validation.ValidateYouTubeURL(url); err != nil {
		return nil, err
	}

	key := cache.URLKey(s.config.Model, url)
	logger := s.logger.WithFields(logrus.Fields{"source": models.SourceYouTube, "url": url, "cache_key": key})

	if cached, ok := s.cache.Lookup(ctx, key); ok {
		logger.Info("Serving cached transcription")
		return cached, nil
	}
	if err := s.throttle(op); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	dir, err := os.MkdirTemp(s.config.TempDir, "ytaudio-")
	if err != nil {
		return nil, errors.Internal(op, err, "Error processing audio: could not create temp directory")
	}
	defer os.RemoveAll(dir)

	logger.Info("Downloading audio")
	audioPath, err := s.downloader.DownloadAudio(ctx, url, dir)
	if err != nil {
		logger.WithError(err).Error("Audio download failed")
		return nil, errors.DownloadFailed(op, err, fmt.Sprintf("Error downloading YouTube video: %v", err))
	}

	text, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, errors.TranscriptionFailed(op, err, fmt.Sprintf("Error processing audio: %v", err))
	}

	result := models.NewTranscription(models.SourceYouTube, s.config.Model, text, s.now())
	result.URL = url
	s.cache.Store(ctx, key, result)

	logger.WithField("transcript_length", len(text)).Info("Transcription completed")
	return result, nil
}

func (s *service) FromUpload(ctx context.Context, filename string, r io.Reader) (*models.Transcription, error) {
	const op = "TranscriptionService.FromUpload"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	filename = validation.SanitizeFilename(filename)

	tmp, err := os.CreateTemp(s.config.TempDir, "upload-*"+filepath.Ext(filename))
	if err != nil {
		return nil, errors.Internal(op, err, "Error processing audio: could not create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := cache.NewFileHasher(s.config.Model)
	_, err = io.Copy(io.MultiWriter(tmp, hasher), r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, errors.Internal(op, err, fmt.Sprintf("Error processing audio: %v", err))
	}

	key := hasher.Key()
	logger := s.logger.WithFields(logrus.Fields{"source": models.SourceFileUpload, "filename": filename, "cache_key": key})

	if cached, ok := s.cache.Lookup(ctx, key); ok {
		logger.Info("Serving cached transcription")
		return cached, nil
	}
	if err := s.throttle(op); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, tmpPath)
	if err != nil {
		return nil, errors.TranscriptionFailed(op, err, fmt.Sprintf("Error processing audio: %v", err))
	}

	result := models.NewTranscription(models.SourceFileUpload, s.config.Model, text, s.now())
	result.Filename = filename
	s.cache.Store(ctx, key, result)

	logger.WithField("transcript_length", len(text)).Info("Transcription completed")
	return result, nil
}

func (s *service) FromLocalFile(ctx context.Context) (*models.Transcription, error) {
	const op = "TranscriptionService.FromLocalFile"
	if err := s.ready(op); err != nil {
		return nil, err
	}

	path := s.config.LocalAudioPath
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(op, err, fmt.Sprintf("%s file not found", name))
		}
		return nil, errors.Internal(op, err, fmt.Sprintf("Error transcribing local audio: %v", err))
	}
	key, err := cache.FileKey(s.config.Model, f)
	f.Close()
	if err != nil {
		return nil, errors.Internal(op, err, fmt.Sprintf("Error transcribing local audio: %v", err))
	}

	logger := s.logger.WithFields(logrus.Fields{"source": models.SourceLocalFile, "filename": name, "cache_key": key})

	if cached, ok := s.cache.Lookup(ctx, key); ok {
		logger.Info("Serving cached transcription")
		return cached, nil
	}
	if err := s.throttle(op); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, errors.TranscriptionFailed(op, err, fmt.Sprintf("Error transcribing local audio: %v", err))
	}

	result := models.NewTranscription(models.SourceLocalFile, s.config.Model, text, s.now())
	result.Filename = name
	s.cache.Store(ctx, key, result)

	logger.WithField("transcript_length", len(text)).Info("Transcription completed")
	return result, nil
}

func (s *service) ready(op string) error {
	if s.transcriber == nil {
		return errors.Internal(op, speech.ErrNotConfigured, notConfiguredMessage)
	}
	return nil
}

func (s *service) throttle(op string) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return errors.RateLimited(op, "Too many transcription requests, please retry shortly")
	}
	return nil
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Timeout)
	}
	return context.WithCancel(ctx)
}
