package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/salmonumbrella/psv/internal/config"
	"github.com/salmonumbrella/psv/internal/extract"
	"github.com/salmonumbrella/psv/internal/logging"
	"github.com/salmonumbrella/psv/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/psv/config.yaml.

You can view, set, or unset config keys such as output_format, compact,
omit_null, position_scope, legacy_terminator, log_level, and seq_url.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		if structuredOutputRequested() {
			return printStructured(ctx, configOutput(cfg))
		}

		values := configOutput(cfg)
		keys := supportedConfigKeys()
		w := stdoutFromContext(ctx)
		fmt.Fprintln(w, "Config:")
		for _, key := range keys {
			fmt.Fprintf(w, "  %s: %v\n", key, values[key])
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		keys := supportedConfigKeys()
		sort.Strings(keys)

		if structuredOutputRequested() {
			return printStructured(ctx, keys)
		}

		w := stdoutFromContext(ctx)
		fmt.Fprintln(w, "Supported keys:")
		for _, key := range keys {
			fmt.Fprintf(w, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func supportedConfigKeys() []string {
	return []string{
		"output_format",
		"compact",
		"omit_null",
		"position_scope",
		"legacy_terminator",
		"log_level",
		"seq_url",
	}
}

func parseConfigBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q (expected true|false)", key, value)
	}
	return b, nil
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch key {
	case "output_format":
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
		cfg.OutputFormat = value
	case "compact":
		cfg.Compact, err = parseConfigBool(key, value)
	case "omit_null":
		cfg.OmitNull, err = parseConfigBool(key, value)
	case "position_scope":
		scope, scopeErr := extract.ParseScope(value)
		if scopeErr != nil {
			return scopeErr
		}
		cfg.PositionScope = string(scope)
	case "legacy_terminator":
		cfg.LegacyTerminator, err = parseConfigBool(key, value)
	case "log_level":
		if _, err := logging.ParseLevel(value); err != nil {
			return err
		}
		cfg.LogLevel = value
	case "seq_url":
		cfg.SeqURL = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return err
}

func clearConfigValue(cfg *config.Config, key string) error {
	switch key {
	case "output_format":
		cfg.OutputFormat = ""
	case "compact":
		cfg.Compact = false
	case "omit_null":
		cfg.OmitNull = false
	case "position_scope":
		cfg.PositionScope = ""
	case "legacy_terminator":
		cfg.LegacyTerminator = false
	case "log_level":
		cfg.LogLevel = ""
	case "seq_url":
		cfg.SeqURL = ""
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(ctx, map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	if !output.QuietFromContext(ctx) {
		fmt.Fprintf(stdoutFromContext(ctx), "Updated %s\n", key)
	}
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	key := strings.ToLower(strings.TrimSpace(args[0]))

	cfg, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}

	if err := clearConfigValue(cfg, key); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	if structuredOutputRequested() {
		return printStructured(ctx, map[string]string{
			"status": "unset",
			"key":    key,
		})
	}

	if !output.QuietFromContext(ctx) {
		fmt.Fprintf(stdoutFromContext(ctx), "Unset %s\n", key)
	}
	return nil
}

func configOutput(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"output_format":     cfg.OutputFormat,
		"compact":           cfg.Compact,
		"omit_null":         cfg.OmitNull,
		"position_scope":    cfg.PositionScope,
		"legacy_terminator": cfg.LegacyTerminator,
		"log_level":         cfg.LogLevel,
		"seq_url":           cfg.SeqURL,
	}
}
