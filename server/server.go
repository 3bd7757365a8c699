// Package server assembles the HTTP application.
package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/nijaru/transcript-server/handlers"
	"github.com/nijaru/transcript-server/middleware"
	"github.com/nijaru/transcript-server/services/transcript"
	"github.com/nijaru/transcript-server/services/transcription"
	"github.com/sirupsen/logrus"
)

const rateLimitWindow = time.Minute

type Config struct {
	Debug        bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// BodyLimit caps request bodies, uploads included, in bytes.
	BodyLimit int

	CORSAllowOrigins   []string
	RateLimitPerMinute int
	CacheMaxAgeSeconds int

	// AccessLog enables the request log when non-nil.
	AccessLog *fiberLogger.Config
}

type Services struct {
	Transcripts    transcript.Service
	Transcriptions transcription.Service
}

func New(cfg Config, services Services, logger logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          handlers.NewErrorHandler(logger),
		DisableStartupMessage: !cfg.Debug,
		AppName:               "transcript-server",
	})

	setupMiddleware(app, cfg, logger)
	setupRoutes(app, cfg, services)

	return app
}

func setupMiddleware(app *fiber.App, cfg Config, logger logrus.FieldLogger) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-Id",
		Generator: func() string {
			return uuid.New().String()
		},
	}))

	app.Use(middleware.SecurityHeaders())

	if cfg.AccessLog != nil {
		app.Use(fiberLogger.New(*cfg.AccessLog))
	}

	origins := "*"
	if len(cfg.CORSAllowOrigins) > 0 {
		origins = strings.Join(cfg.CORSAllowOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,If-None-Match,X-Request-Id",
		ExposeHeaders: "ETag,Content-Disposition,X-Request-Id",
	}))

	app.Use(middleware.RateLimit(
		middleware.NewSlidingWindow(cfg.RateLimitPerMinute, rateLimitWindow),
		logger,
	))

	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
	}))
}

func setupRoutes(app *fiber.App, cfg Config, services Services) {
	transcripts := handlers.NewTranscriptHandler(services.Transcripts, cfg.CacheMaxAgeSeconds)
	transcribe := handlers.NewTranscribeHandler(services.Transcriptions)

	app.Get("/", handlers.Index)
	app.Get("/health", handlers.HealthCheck)

	app.Get("/transcript", transcripts.Get)
	app.Get("/transcript/available", transcripts.Available)

	app.Post("/transcribe", transcribe.Transcribe)
	app.Post("/transcribe-local", transcribe.TranscribeLocal)
}
