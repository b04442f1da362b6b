package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/salmonumbrella/psv/internal/extract"
	"github.com/salmonumbrella/psv/internal/output"
	"github.com/salmonumbrella/psv/internal/psv"
	"github.com/spf13/cobra"
)

// collectHandler keeps a document for every selected table.
type collectHandler struct {
	policy psv.NullPolicy
	docs   []psv.Document
}

func newCollectHandler(policy psv.NullPolicy) *collectHandler {
	return &collectHandler{policy: policy, docs: []psv.Document{}}
}

func (h *collectHandler) BeginTable(string, *psv.Table) error { return nil }

func (h *collectHandler) Row(*psv.Table, psv.Row) error { return nil }

func (h *collectHandler) EndTable(t *psv.Table) error {
	h.docs = append(h.docs, psv.BuildDocument(t, h.policy))
	t.Reset()
	return nil
}

// streamHandler writes one JSON line per row as rows are parsed.
type streamHandler struct {
	enc     *json.Encoder
	policy  psv.NullPolicy
	limit   int
	written int
	proj    *psv.Projector
}

func newStreamHandler(w io.Writer, policy psv.NullPolicy, limit int) *streamHandler {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &streamHandler{enc: enc, policy: policy, limit: limit}
}

func (h *streamHandler) BeginTable(_ string, t *psv.Table) error {
	h.proj = psv.NewProjector(t)
	return nil
}

func (h *streamHandler) Row(t *psv.Table, row psv.Row) error {
	if h.limit > 0 && h.written >= h.limit {
		return nil
	}
	h.written++
	return h.enc.Encode(psv.BuildRecord(t.Columns, h.proj, row, h.policy))
}

func (h *streamHandler) EndTable(*psv.Table) error { return nil }

func runExtract(cmd *cobra.Command, args []string) (err error) {
	ctx := commandContext(cmd)
	stdin := stdinFromContext(ctx)
	if len(args) == 0 && !inputHasData(stdin) {
		return cmd.Help()
	}

	scope, err := extract.ParseScope(scopeFlag)
	if err != nil {
		return err
	}
	selector := extract.Selector{Position: tablePos, ID: strings.TrimSpace(tableID)}
	if err := selector.Validate(); err != nil {
		return err
	}
	policy := psv.NullEmit
	if omitNullFlag {
		policy = psv.NullOmit
	}

	w := stdoutFromContext(ctx)
	if strings.TrimSpace(outFile) != "" {
		f, createErr := createOutput(outFile)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		w = f
	}

	format := GetOutputFormat()
	streaming := format == output.FormatNDJSON && compactFlag &&
		output.QueryFromContext(ctx) == "" && resultSort == ""

	var h extract.Handler
	var collected *collectHandler
	if streaming {
		h = newStreamHandler(w, policy, resultLimit)
	} else {
		collected = newCollectHandler(policy)
		h = collected
	}

	ex := newExtractor(extract.Options{
		Selector:         selector,
		Scope:            scope,
		LegacyTerminator: legacyTerm,
		Materialize:      !streaming,
		Logger:           logger,
	})
	extractErr := ex.ExtractInputs(ctx, args, stdin, h)
	if extractErr != nil && !isInputError(extractErr) {
		return extractErr
	}

	if collected != nil {
		// under file scope a selector matches once per input
		single := selector.Active() && (scope == extract.ScopeGlobal || len(args) <= 1)
		if err := renderDocuments(ctx, w, format, collected.docs, single); err != nil {
			return err
		}
		logger.Debug("extraction finished", "tables", len(collected.docs))
		if outFile != "" && !output.QuietFromContext(ctx) {
			fmt.Fprintf(stderrFromContext(ctx), "Wrote %d table(s) to %s\n", len(collected.docs), outFile)
		}
	}
	return extractErr
}

// renderDocuments prints docs in the shape the format and flags ask for.
// When single is set at most one document is expected and it is printed as
// an object instead of a list.
func renderDocuments(ctx context.Context, w io.Writer, format output.Format, docs []psv.Document, single bool) error {
	if single && len(docs) == 0 {
		return nil
	}
	printer := output.NewPrinter(w, format)

	switch {
	case format == output.FormatTable || format == output.FormatText:
		if shaped, ok := output.ApplyAgentOptions(ctx, docs).([]psv.Document); ok {
			docs = shaped
		}
		tables := make([]output.Table, 0, len(docs))
		for _, doc := range docs {
			tables = append(tables, documentTable(doc))
		}
		// rows are already sorted and limited
		ctx = output.WithSort(output.WithLimit(ctx, 0), "", false)
		if single {
			return printer.Print(ctx, tables[0])
		}
		return printer.Print(ctx, tables)
	case format == output.FormatNDJSON && compactFlag:
		rows := []psv.Record{}
		for _, doc := range docs {
			rows = append(rows, doc.Rows...)
		}
		return printer.Print(ctx, rows)
	case compactFlag:
		if single {
			return printer.Print(ctx, docs[0].Rows)
		}
		rows := make([][]psv.Record, 0, len(docs))
		for _, doc := range docs {
			rows = append(rows, doc.Rows)
		}
		return printer.Print(ctx, rows)
	case single:
		return printer.Print(ctx, docs[0])
	default:
		return printer.Print(ctx, docs)
	}
}

// documentTable converts a document into a printable table keyed by column.
func documentTable(doc psv.Document) output.Table {
	table := output.Table{
		Title:   doc.ID,
		Headers: append([]string(nil), doc.Keys...),
		Rows:    make([][]string, 0, len(doc.Rows)),
	}
	for _, rec := range doc.Rows {
		row := make([]string, len(doc.Keys))
		for i, key := range doc.Keys {
			if v, ok := rec.Lookup(key); ok && v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
