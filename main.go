package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/transcript-server/cache"
	"github.com/nijaru/transcript-server/config"
	"github.com/nijaru/transcript-server/logger"
	"github.com/nijaru/transcript-server/repository"
	"github.com/nijaru/transcript-server/repository/filestore"
	"github.com/nijaru/transcript-server/repository/sqlite"
	"github.com/nijaru/transcript-server/scripts"
	"github.com/nijaru/transcript-server/server"
	"github.com/nijaru/transcript-server/services/transcript"
	"github.com/nijaru/transcript-server/services/transcription"
	"github.com/nijaru/transcript-server/speech"
	"github.com/nijaru/transcript-server/youtube"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var rootCmd = &cobra.Command{
	Use:   "transcript-server",
	Short: "Serve YouTube transcripts and audio transcriptions over HTTP",
	Args:  cobra.NoArgs,
	RunE:  run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().IntP("port", "p", 0, "Port to bind (overrides PORT)")
	rootCmd.Flags().String("host", "", "Host interface to bind (overrides HOST)")
	rootCmd.Flags().Bool("no-debug", false, "Disable debug mode (overrides DEBUG)")
	rootCmd.Flags().StringP("config", "c", "", "Path to a YAML config file (overrides CONFIG_FILE)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Host, _ = cmd.Flags().GetString("host")
	}
	if noDebug, _ := cmd.Flags().GetBool("no-debug"); noDebug {
		cfg.Debug = false
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	log, err := logger.New(logger.Options{
		Dir:   cfg.LogDir,
		Level: cfg.LogLevel,
		Debug: cfg.Debug,
	})
	if err != nil {
		return errors.Wrap(err, "initialize logger")
	}
	defer log.Close()

	ytClient, err := youtube.NewClient(youtube.Config{
		Timeout: cfg.YouTube.Timeout,
		Proxy: youtube.ProxyConfig{
			WebshareUsername: cfg.YouTube.WebshareUsername,
			WebsharePassword: cfg.YouTube.WebsharePassword,
			Countries:        cfg.YouTube.ProxyCountries,
			HTTPURL:          cfg.YouTube.HTTPProxy,
			HTTPSURL:         cfg.YouTube.HTTPSProxy,
		},
	}, log)
	if err != nil {
		return errors.Wrap(err, "initialize YouTube client")
	}

	repo, err := openRepository(cfg.Cache)
	if err != nil {
		return err
	}
	transcriptCache := cache.New(repo, log)
	defer func() {
		if err := transcriptCache.Close(); err != nil {
			log.WithError(err).Error("Failed to close cache")
		}
	}()

	transcriber, err := speech.NewOpenAITranscriber(speech.Config{
		APIKey:  cfg.Transcription.OpenAIAPIKey,
		BaseURL: cfg.Transcription.OpenAIBaseURL,
		Model:   cfg.Transcription.Model,
	}, log)
	var speechClient speech.Transcriber
	switch {
	case errors.Is(err, speech.ErrNotConfigured):
		log.Warn("OPENAI_API_KEY is not set; /transcribe and /transcribe-local are disabled")
	case err != nil:
		return errors.Wrap(err, "initialize transcriber")
	default:
		speechClient = transcriber
	}

	var rateLimit rate.Limit
	if cfg.Transcription.RateLimit > 0 {
		rateLimit = rate.Every(cfg.Transcription.RateInterval)
	}

	app := server.New(server.Config{
		Debug:              cfg.Debug,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		BodyLimit:          cfg.Transcription.MaxUploadMB << 20,
		CORSAllowOrigins:   cfg.CORSAllowOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheMaxAgeSeconds: cfg.CacheMaxAgeSeconds,
		AccessLog:          &log.Access,
	}, server.Services{
		Transcripts: transcript.NewService(ytClient, log),
		Transcriptions: transcription.NewService(
			transcriptCache,
			scripts.NewDownloader(scripts.NewCommandRunner(log), cfg.Transcription.YtDlpPath),
			speechClient,
			transcription.Config{
				Model:          cfg.Transcription.Model,
				TempDir:        cfg.TempDir,
				LocalAudioPath: cfg.Transcription.LocalAudioPath,
				Timeout:        cfg.Transcription.Timeout,
				RateLimit:      rateLimit,
				Burst:          cfg.Transcription.RateLimit,
			},
			log,
		),
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown error")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":    cfg.Addr(),
		"debug":   cfg.Debug,
		"cache":   cfg.Cache.Backend,
		"proxied": cfg.Proxied(),
	}).Info("Server starting")

	if err := app.Listen(cfg.Addr()); err != nil {
		return errors.Wrap(err, "server error")
	}
	return nil
}

func openRepository(cfg config.CacheConfig) (repository.TranscriptionRepository, error) {
	switch cfg.Backend {
	case "sqlite":
		repo, err := sqlite.Open(cfg.DBPath, sqlite.DefaultDBConfig())
		if err != nil {
			return nil, errors.Wrap(err, "open sqlite cache")
		}
		return repo, nil
	case "file":
		store, err := filestore.New(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "open file cache")
		}
		return store, nil
	}
	return nil, errors.Errorf("unknown cache backend %q", cfg.Backend)
}
