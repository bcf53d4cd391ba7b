package internal

import (
	"fmt"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
)

// Build information, set with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Options carries the root command's persistent flags to subcommands. The
// pointers are read at run time, after flag parsing.
type Options struct {
	ConfigPath *string
	Debug      *bool
}

func (o *Options) LoadConfig() (*config.Config, error) {
	return LoadConfig(*o.ConfigPath, *o.Debug)
}

// LoadConfig reads the config file (optional) and environment, then applies
// the logging section so every later log line honours it.
func LoadConfig(path string, debug bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	return cfg, nil
}

func FormatVersion() string {
	return fmt.Sprintf("heartnote %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
