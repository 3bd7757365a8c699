package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	LogLevel        string        `yaml:"log_level"`
	LogDir          string        `yaml:"log_dir"`
	TempDir         string        `yaml:"temp_dir"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	CacheMaxAgeSeconds int      `yaml:"cache_max_age_seconds"`
	CORSAllowOrigins   []string `yaml:"cors_allow_origins"`

	YouTube       YouTubeConfig       `yaml:"youtube"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Cache         CacheConfig         `yaml:"cache"`
}

type YouTubeConfig struct {
	WebshareUsername string        `yaml:"webshare_username"`
	WebsharePassword string        `yaml:"webshare_password"`
	ProxyCountries   []string      `yaml:"proxy_countries"`
	HTTPProxy        string        `yaml:"http_proxy"`
	HTTPSProxy       string        `yaml:"https_proxy"`
	Timeout          time.Duration `yaml:"timeout"`
}

type TranscriptionConfig struct {
	OpenAIAPIKey   string        `yaml:"openai_api_key"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	Model          string        `yaml:"model"`
	LocalAudioPath string        `yaml:"local_audio_path"`
	YtDlpPath      string        `yaml:"ytdlp_path"`
	Timeout        time.Duration `yaml:"timeout"`
	RateLimit      int           `yaml:"rate_limit"`
	RateInterval   time.Duration `yaml:"rate_interval"`
	MaxUploadMB    int           `yaml:"max_upload_mb"`
}

type CacheConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
	DBPath  string `yaml:"db_path"`
}

func Default() *Config {
	return &Config{
		Host:               "0.0.0.0",
		Port:               8000,
		LogLevel:           "info",
		LogDir:             "logs",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       15 * time.Minute,
		IdleTimeout:        60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		RateLimitPerMinute: 60,
		CacheMaxAgeSeconds: 600,
		CORSAllowOrigins:   []string{"*"},
		YouTube: YouTubeConfig{
			Timeout: 30 * time.Second,
		},
		Transcription: TranscriptionConfig{
			Model:          "gpt-4o-mini-transcribe",
			LocalAudioPath: "audio.mp3",
			YtDlpPath:      "yt-dlp",
			Timeout:        10 * time.Minute,
			RateLimit:      5,
			RateInterval:   time.Second,
			MaxUploadMB:    25,
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     "cache/transcripts",
			DBPath:  "cache/transcripts.db",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or CONFIG_FILE when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Host = GetEnv("HOST", c.Host)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Debug = getEnvAsBool("DEBUG", c.Debug)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
	c.LogDir = GetEnv("LOG_DIR", c.LogDir)
	c.TempDir = GetEnv("TEMP_DIR", c.TempDir)
	c.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", c.IdleTimeout)
	c.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.RateLimitPerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.CacheMaxAgeSeconds = getEnvAsInt("CACHE_MAX_AGE_SECONDS", c.CacheMaxAgeSeconds)
	c.CORSAllowOrigins = getEnvAsStringSlice("CORS_ALLOW_ORIGINS", c.CORSAllowOrigins)

	yt := &c.YouTube
	yt.WebshareUsername = GetEnv("YTA_WEBSHARE_USERNAME", yt.WebshareUsername)
	yt.WebsharePassword = GetEnv("YTA_WEBSHARE_PASSWORD", yt.WebsharePassword)
	yt.ProxyCountries = getEnvAsStringSlice("YTA_PROXY_COUNTRIES", yt.ProxyCountries)
	yt.HTTPProxy = GetEnv("YTA_HTTP_PROXY", GetEnv("HTTP_PROXY", yt.HTTPProxy))
	yt.HTTPSProxy = GetEnv("YTA_HTTPS_PROXY", GetEnv("HTTPS_PROXY", yt.HTTPSProxy))
	yt.Timeout = getEnvAsDuration("YTA_TIMEOUT", yt.Timeout)

	tr := &c.Transcription
	tr.OpenAIAPIKey = GetEnv("OPENAI_API_KEY", tr.OpenAIAPIKey)
	tr.OpenAIBaseURL = GetEnv("OPENAI_BASE_URL", tr.OpenAIBaseURL)
	tr.Model = GetEnv("TRANSCRIBE_MODEL", tr.Model)
	tr.LocalAudioPath = GetEnv("LOCAL_AUDIO_PATH", tr.LocalAudioPath)
	tr.YtDlpPath = GetEnv("YTDLP_PATH", tr.YtDlpPath)
	tr.Timeout = getEnvAsDuration("TRANSCRIBE_TIMEOUT", tr.Timeout)
	tr.RateLimit = getEnvAsInt("TRANSCRIBE_RATE_LIMIT", tr.RateLimit)
	tr.RateInterval = getEnvAsDuration("TRANSCRIBE_RATE_INTERVAL", tr.RateInterval)
	tr.MaxUploadMB = getEnvAsInt("MAX_UPLOAD_MB", tr.MaxUploadMB)

	c.Cache.Backend = strings.ToLower(GetEnv("CACHE_BACKEND", c.Cache.Backend))
	c.Cache.Dir = GetEnv("CACHE_DIR", c.Cache.Dir)
	c.Cache.DBPath = GetEnv("CACHE_DB_PATH", c.Cache.DBPath)
}

// Validate checks the configuration and creates the directories it names.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if c.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if c.Transcription.Timeout <= 0 {
		return errors.New("transcribe timeout must be greater than 0")
	}
	if c.Transcription.RateLimit > 0 && c.Transcription.RateInterval <= 0 {
		return errors.New("transcribe rate interval must be greater than 0")
	}
	if c.Transcription.MaxUploadMB <= 0 {
		return errors.New("max upload size must be greater than 0")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return errors.New("cache directory is required")
		}
	case "sqlite":
		if c.Cache.DBPath == "" {
			return errors.New("cache database path is required")
		}
	default:
		return errors.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	for _, dir := range []string{c.TempDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Proxied reports whether requests to YouTube go through a proxy.
func (c *Config) Proxied() bool {
	yt := c.YouTube
	return (yt.WebshareUsername != "" && yt.WebsharePassword != "") || yt.HTTPProxy != "" || yt.HTTPSProxy != ""
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off", "":
		return false
	}
	logrus.WithFields(logrus.Fields{
		"key":          key,
		"value":        value,
		"defaultValue": defaultValue,
	}).Warn("Invalid boolean, using default")
	return defaultValue
}

// getEnvAsStringSlice reads a comma separated list, dropping empty items.
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
