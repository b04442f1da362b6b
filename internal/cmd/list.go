package cmd

import (
	"strconv"
	"strings"

	"github.com/salmonumbrella/psv/internal/extract"
	"github.com/salmonumbrella/psv/internal/output"
	"github.com/salmonumbrella/psv/internal/psv"
	"github.com/spf13/cobra"
)

// tableSummary describes one table found by list.
type tableSummary struct {
	Position int      `json:"position" yaml:"position"`
	ID       string   `json:"id" yaml:"id"`
	Source   string   `json:"source" yaml:"source"`
	Keys     []string `json:"keys" yaml:"keys"`
	Rows     int      `json:"rows" yaml:"rows"`
}

// summaryHandler records table headers and row counts without keeping rows.
type summaryHandler struct {
	source    string
	summaries []tableSummary
}

func (h *summaryHandler) BeginTable(source string, _ *psv.Table) error {
	h.source = source
	return nil
}

func (h *summaryHandler) Row(*psv.Table, psv.Row) error { return nil }

func (h *summaryHandler) EndTable(t *psv.Table) error {
	h.summaries = append(h.summaries, tableSummary{
		Position: t.Position,
		ID:       t.ID.String(),
		Source:   h.source,
		Keys:     t.Keys(),
		Rows:     t.RowCount,
	})
	return nil
}

var listCmd = &cobra.Command{
	Use:     "list [FILE...]",
	Aliases: []string{"ls"},
	Short:   "List the tables found in the input",
	Long: `List every table found in the input with its position, id, column keys
and row count. Rows are counted without being parsed.`,
	Args: cobra.ArbitraryArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	stdin := stdinFromContext(ctx)
	if len(args) == 0 && !inputHasData(stdin) {
		return cmd.Help()
	}

	scope, err := extract.ParseScope(scopeFlag)
	if err != nil {
		return err
	}

	h := &summaryHandler{summaries: []tableSummary{}}
	ex := newExtractor(extract.Options{
		Scope:            scope,
		LegacyTerminator: legacyTerm,
		HeadersOnly:      true,
		Logger:           logger,
	})
	extractErr := ex.ExtractInputs(ctx, args, stdin, h)
	if extractErr != nil && !isInputError(extractErr) {
		return extractErr
	}

	if structuredOutputRequested() {
		if err := printStructured(ctx, h.summaries); err != nil {
			return err
		}
		return extractErr
	}

	table := output.Table{Headers: []string{"POSITION", "ID", "SOURCE", "KEYS", "ROWS"}}
	for _, s := range h.summaries {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(s.Position),
			s.ID,
			s.Source,
			strings.Join(s.Keys, ","),
			strconv.Itoa(s.Rows),
		})
	}
	if err := printStructured(output.WithLimit(ctx, 0), table); err != nil {
		return err
	}
	return extractErr
}
