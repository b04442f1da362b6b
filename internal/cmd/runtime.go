package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/salmonumbrella/psv/internal/config"
	"github.com/salmonumbrella/psv/internal/logging"
	"github.com/spf13/cobra"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// applyConfigDefaults copies config values into flags the user did not set.
func applyConfigDefaults(cmd *cobra.Command, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.Compact && !flagChanged(cmd, "compact") {
		compactFlag = true
	}
	if cfg.OmitNull && !flagChanged(cmd, "omit-null") {
		omitNullFlag = true
	}
	if cfg.LegacyTerminator && !flagChanged(cmd, "legacy-terminator") {
		legacyTerm = true
	}
	if v := strings.TrimSpace(cfg.PositionScope); v != "" && !flagChanged(cmd, "scope") {
		scopeFlag = v
	}
}

// loggingOptions resolves log settings with precedence:
// --debug > env > config > default (warn).
func loggingOptions(cfg *config.Config, w io.Writer) (logging.Options, error) {
	opts := logging.Options{Writer: w}

	levelStr := strings.TrimSpace(envGet("PSV_LOG_LEVEL"))
	if levelStr == "" && cfg != nil {
		levelStr = cfg.LogLevel
	}
	level, err := logging.ParseLevel(levelStr)
	if err != nil {
		return opts, err
	}
	if debug {
		level = slog.LevelDebug
	}
	opts.Level = level

	opts.SeqURL = strings.TrimSpace(envGet("PSV_SEQ_URL"))
	if opts.SeqURL == "" && cfg != nil {
		opts.SeqURL = strings.TrimSpace(cfg.SeqURL)
	}
	return opts, nil
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
