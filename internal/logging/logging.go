// Package logging builds the process logger.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/internal/config"
)

// New returns a logger writing to out with the configured level and format.
// An unknown level falls back to info.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
