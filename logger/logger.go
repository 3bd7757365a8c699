package logger

import (
	"io"
	"os"
	"path/filepath"

	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// Dir receives a rotated app.log. Empty logs to stdout only.
	Dir   string
	Level string
	Debug bool
}

// Logger bundles the application logger and the HTTP access log config,
// both writing to the same outputs.
type Logger struct {
	*logrus.Logger
	Access fiberLogger.Config

	file *lumberjack.Logger
}

func New(opts Options) (*Logger, error) {
	var out io.Writer = os.Stdout
	var file *lumberjack.Logger

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "create log directory %s", opts.Dir)
		}
		file = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "app.log"),
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, file)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, errors.Wrap(err, "invalid log level")
		}
		level = parsed
	}
	if opts.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if opts.Debug {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Logger{
		Logger: log,
		Access: fiberLogger.Config{
			Output:     out,
			Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${respHeader:X-Request-Id} | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "Local",
		},
		file: file,
	}, nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
