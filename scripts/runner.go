package scripts

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner executes external commands and returns their combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type CommandRunner struct {
	logger logrus.FieldLogger
}

func NewCommandRunner(logger logrus.FieldLogger) *CommandRunner {
	return &CommandRunner{logger: logger}
}

func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"command": name,
		"args":    strings.Join(args, " "),
	})
	logger.Debug("Executing command")

	start := time.Now()
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	duration := time.Since(start)

	if err != nil {
		logger.WithError(err).
			WithField("duration", duration).
			WithField("output", string(output)).
			Error("Command execution failed")
		return output, err
	}

	logger.WithField("duration", duration).Debug("Command executed successfully")
	return output, nil
}
