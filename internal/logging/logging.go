// Package logging builds the process logger from the log section of the
// configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"actornet/internal/config"
)

// New returns a logger writing to out, and to the rotated file when one is
// configured. The returned closer flushes and closes that file.
func New(cfg config.LogConfig, out io.Writer) (*logrus.Logger, io.Closer, error) {
	if out == nil {
		out = os.Stdout
	}
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("[Logging/New] %w", err)
	}

	log := logrus.New()
	log.SetLevel(lvl)
	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out = io.MultiWriter(out, rotated)
		closer = rotated
	}
	log.SetOutput(out)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
