package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/salmonumbrella/psv/internal/config"
	"github.com/salmonumbrella/psv/internal/logging"
	"github.com/salmonumbrella/psv/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = v
	rootCmd.SetVersionTemplate(versionLine() + "\n")
}

// Global flags
var (
	outputFmt    string
	outputType   output.Format
	debug        bool
	configFile   string
	queryExpr    string
	queryFile    string
	errorFmt     string
	quietFlag    bool
	resultLimit  int
	resultSort   string
	resultDesc   bool
	scopeFlag    string
	legacyTerm   bool
	tablePos     int
	tableID      string
	compactFlag  bool
	omitNullFlag bool
	outFile      string
)

// logger is the shared logger, replaced in PersistentPreRunE
var (
	logger      = slog.New(slog.NewTextHandler(io.Discard, nil))
	closeLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "psv [flags] [FILE...]",
	Short: "Extract pipe-separated tables from text",
	Long: `psv extracts Markdown-style pipe tables from text files and converts
them into structured documents with typed values.

Each table is a header row, a separator row of --- cells, and data rows.
An optional {#id} line before the header names the table; [integer],
[float], [bool] and similar tags in a header cell type its column.

Files ending in .gz or .zst are decompressed. With no files, or "-",
input is read from stdin.

Environment Variables:
  PSV_LOG_LEVEL  Log level (debug|info|warn|error)
  PSV_SEQ_URL    Seq server URL for log shipping`,
	Version: version,
	Args:    cobra.ArbitraryArgs,
	RunE:    runExtract,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		var cfg *config.Config
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			cfg = loadedCfg
			applyConfigDefaults(cmd, cfg)
		}

		// Output format selection: --output > config > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && cfg != nil && strings.TrimSpace(cfg.OutputFormat) != "" {
			formatStr = strings.TrimSpace(cfg.OutputFormat)
		} else if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = withIO(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithSort(ctx, resultSort, resultDesc)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		opts, err := loggingOptions(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		closeLogger()
		logger, closeLogger = logging.SetupLogger(opts)
		logger.Debug("command starting", "command", cmd.CommandPath(), "format", outputType)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	defer func() { closeLogger() }()

	executed, err := rootCmd.ExecuteC()
	if err != nil {
		ctx := rootCmd.Context()
		if executed != nil && executed.Context() != nil {
			ctx = executed.Context()
		}
		if ctx == nil {
			ctx = context.Background()
		}
		printCommandError(ctx, err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

// GetOutputFormatString returns the output format as a string.
func GetOutputFormatString() string {
	if outputType != "" {
		return string(outputType)
	}
	return outputFmt
}

func versionLine() string {
	return fmt.Sprintf("psv version %s (commit: %s, built: %s)", version, commit, date)
}

func init() {
	rootCmd.SetVersionTemplate(versionLine() + "\n")

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|json|ndjson|table|yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of rows in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort output rows by column key")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort output rows in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/psv/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&scopeFlag, "scope", "file", "Table position scope across inputs (file|global)")
	rootCmd.PersistentFlags().BoolVar(&legacyTerm, "legacy-terminator", false, "Discard the line that ends a table instead of rescanning it")

	// Extraction flags
	rootCmd.Flags().IntVarP(&tablePos, "table", "t", 0, "Select the table at this 1-based position")
	rootCmd.Flags().StringVarP(&tableID, "id", "i", "", "Select the table with this id")
	rootCmd.Flags().BoolVarP(&compactFlag, "compact", "c", false, "Emit only the rows")
	rootCmd.Flags().BoolVar(&omitNullFlag, "omit-null", false, "Leave null values out of rows")
	rootCmd.Flags().StringVar(&outFile, "out-file", "", "Write output to this file instead of stdout")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
