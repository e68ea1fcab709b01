// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvLogLevel         = "FILMDEV_LOG_LEVEL"
	EnvProxyMaxDim      = "FILMDEV_PROXY_MAX_DIM"
	EnvFullResThreshold = "FILMDEV_FULLRES_THRESHOLD"
	EnvDebounceMS       = "FILMDEV_DEBOUNCE_MS"
	EnvJPEGQuality      = "FILMDEV_JPEG_QUALITY"
)

// Config holds the tunables shared by the binaries.
type Config struct {
	LogLevel          logrus.Level
	ProxyMaxDimension int
	FullResThreshold  int
	Debounce          time.Duration
	JPEGQuality       int
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:          logrus.InfoLevel,
		ProxyMaxDimension: 960,
		FullResThreshold:  5_000_000,
		Debounce:          150 * time.Millisecond,
		JPEGQuality:       95,
	}
}

// FromEnv returns Default overridden by any FILMDEV_* variables that are set.
// Invalid values keep the default; one error per rejected variable is
// returned so the caller can log them.
func FromEnv() (Config, []error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, []error) {
	cfg := Default()
	var errs []error

	if v, ok := lookup(EnvLogLevel); ok {
		lvl, err := logrus.ParseLevel(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		} else {
			cfg.LogLevel = lvl
		}
	}

	intVar := func(name string, min, max int, dst *int) {
		v, ok := lookup(name)
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		if n < min || n > max {
			errs = append(errs, fmt.Errorf("%s: %d outside [%d, %d]", name, n, min, max))
			return
		}
		*dst = n
	}

	intVar(EnvProxyMaxDim, 16, 16384, &cfg.ProxyMaxDimension)
	intVar(EnvFullResThreshold, 1, 1<<31-1, &cfg.FullResThreshold)
	intVar(EnvJPEGQuality, 1, 100, &cfg.JPEGQuality)

	debounceMS := int(cfg.Debounce / time.Millisecond)
	intVar(EnvDebounceMS, 1, 10_000, &debounceMS)
	cfg.Debounce = time.Duration(debounceMS) * time.Millisecond

	return cfg, errs
}

// NewLogger builds the process logger: a full-timestamp text formatter at
// debug level, JSON otherwise. Output goes to stderr so that stdout stays
// free for protocol traffic.
func NewLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	if level >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return logger
}
