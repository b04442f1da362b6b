package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/pflag"
)

const twoTables = `Intro text.

{#people}
| Name | Age [integer] |
|------|---------------|
| Ann  | 30            |
| Bo   |               |

| Kind | Legs [int] |
| --- | --- |
| cat | 4 |
`

const peopleDoc = `{"id":"people","headers":["Name","Age [integer]"],"keys":["name","age"],` +
	`"data_annotation":[[],["integer"]],"rows":[{"name":"Ann","age":30},{"name":"Bo","age":null}]}`

type cliResult struct {
	out    string
	stderr string
	err    error
}

// runCLI executes the root command with args and stdin, using an empty
// config file so the user's config never leaks into a test.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	restore := snapshotCLIState()
	defer restore()

	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	in := strings.NewReader(stdin)

	rootCmd.SetOut(out)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(in)
	rootCmd.SetContext(withIO(context.Background(), in, out, errBuf))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	prevEnvGet := envGet
	envGet = func(string) string { return "" }
	defer func() { envGet = prevEnvGet }()

	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := Execute()
	return cliResult{out: out.String(), stderr: errBuf.String(), err: err}
}

func compactJSON(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		t.Fatalf("invalid json %q: %v", s, err)
	}
	return buf.String()
}

func TestCLISelectByPositionJSON(t *testing.T) {
	res := runCLI(t, twoTables, "--output", "json", "--table", "1")
	if res.err != nil {
		t.Fatalf("execute: %v (%s)", res.err, res.stderr)
	}
	if got := compactJSON(t, res.out); got != peopleDoc {
		t.Fatalf("output =\n%s\nwant\n%s", got, peopleDoc)
	}
}

func TestCLIAllTablesDefaultToJSONWhenPiped(t *testing.T) {
	res := runCLI(t, twoTables)
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}

	var docs []struct {
		ID             string                   `json:"id"`
		Keys           []string                 `json:"keys"`
		DataAnnotation [][]string               `json:"data_annotation"`
		Rows           []map[string]interface{} `json:"rows"`
	}
	if err := json.Unmarshal([]byte(res.out), &docs); err != nil {
		t.Fatalf("parse output: %v\n%s", err, res.out)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(docs))
	}
	if docs[1].ID != "table2" {
		t.Errorf("default id = %q, want table2", docs[1].ID)
	}
	if strings.Join(docs[1].Keys, ",") != "kind,legs" {
		t.Errorf("keys = %v", docs[1].Keys)
	}
	if docs[1].Rows[0]["legs"] != float64(4) {
		t.Errorf("legs = %#v", docs[1].Rows[0]["legs"])
	}
}

func TestCLICompactOmitNullByID(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "json", "--id", "people", "--compact", "--omit-null")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	want := `[{"name":"Ann","age":30},{"name":"Bo"}]`
	if got := compactJSON(t, res.out); got != want {
		t.Fatalf("output = %s, want %s", got, want)
	}
}

func TestCLIMissingPositionIsEmpty(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "json", "--table", "5")
	if res.err != nil {
		t.Fatalf("expected no error, got %v", res.err)
	}
	if res.out != "" {
		t.Fatalf("expected no output, got %q", res.out)
	}
}

func TestCLINDJSONCompactStreamsRows(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "ndjson", "-c")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	want := "{\"name\":\"Ann\",\"age\":30}\n{\"name\":\"Bo\",\"age\":null}\n{\"kind\":\"cat\",\"legs\":4}\n"
	if res.out != want {
		t.Fatalf("output =\n%q\nwant\n%q", res.out, want)
	}
}

func TestCLIResultLimitAndSort(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "ndjson", "-c", "--id", "people", "--result-sort-by", "name", "--result-desc", "--result-limit", "1")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	if res.out != "{\"name\":\"Bo\",\"age\":null}\n" {
		t.Fatalf("output = %q", res.out)
	}
}

func TestCLIQuery(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "json", "--query", "[.[].id]")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	if got := compactJSON(t, res.out); got != `["people","table2"]` {
		t.Fatalf("output = %s", got)
	}
}

func TestCLITableOutput(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "table", "-t", "2")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	want := "# table2\nkind  legs\ncat   4\n"
	if res.out != want {
		t.Fatalf("output =\n%q\nwant\n%q", res.out, want)
	}
}

func TestCLIGzipFileAndOutFile(t *testing.T) {
	dir := t.TempDir()
	var zbuf bytes.Buffer
	zw := gzip.NewWriter(&zbuf)
	_, _ = zw.Write([]byte(twoTables))
	_ = zw.Close()
	input := filepath.Join(dir, "tables.md.gz")
	if err := os.WriteFile(input, zbuf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "out.json")

	res := runCLI(t, "", "-o", "json", "--table", "1", "--out-file", dest, input)
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	if res.out != "" {
		t.Fatalf("stdout should be empty, got %q", res.out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read out file: %v", err)
	}
	if got := compactJSON(t, string(data)); got != peopleDoc {
		t.Fatalf("out file = %s", got)
	}
}

func TestCLIGlobalScopeAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	if err := os.WriteFile(a, []byte(twoTables), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("| x |\n|---|\n| 1 |\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := runCLI(t, "", "-o", "json", "-c", "--scope", "global", "-t", "3", a, b)
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	if got := compactJSON(t, res.out); got != `[{"x":"1"}]` {
		t.Fatalf("output = %s", got)
	}
}

func TestCLISelectorPerFileScope(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	if err := os.WriteFile(a, []byte("| x |\n|---|\n| A |\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("| x |\n|---|\n| B |\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "json", args: []string{"-o", "json", "-c"}, want: `[[{"x":"A"}],[{"x":"B"}]]`},
		{name: "ndjson stream", args: []string{"-o", "ndjson", "-c"}, want: "{\"x\":\"A\"}\n{\"x\":\"B\"}\n"},
		{name: "ndjson collected", args: []string{"-o", "ndjson", "-c", "--result-sort-by", "x"}, want: "{\"x\":\"A\"}\n{\"x\":\"B\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string{}, tt.args...), "--table", "1", a, b)
			res := runCLI(t, "", args...)
			if res.err != nil {
				t.Fatalf("execute: %v (%s)", res.err, res.stderr)
			}
			got := res.out
			if strings.HasPrefix(tt.want, "[") {
				got = compactJSON(t, got)
			}
			if got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}

	res := runCLI(t, "", "-o", "json", "--table", "1", a, b)
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	var docs []struct {
		ID   string            `json:"id"`
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal([]byte(res.out), &docs); err != nil {
		t.Fatalf("expected a document per file: %v\n%s", err, res.out)
	}
	if len(docs) != 2 || docs[0].ID != "table1" || docs[1].ID != "table1" {
		t.Fatalf("docs = %+v", docs)
	}
}

type failingCloser struct {
	bytes.Buffer
}

func (f *failingCloser) Close() error { return errors.New("disk full") }

func TestCLIOutFileCloseErrorReported(t *testing.T) {
	prev := createOutput
	t.Cleanup(func() { createOutput = prev })
	sink := &failingCloser{}
	createOutput = func(string) (io.WriteCloser, error) { return sink, nil }

	res := runCLI(t, twoTables, "-o", "json", "--table", "1", "--out-file", "out.json")
	if res.err == nil || !strings.Contains(res.err.Error(), "close output file") {
		t.Fatalf("expected close error, got %v", res.err)
	}
	if got := compactJSON(t, sink.String()); got != peopleDoc {
		t.Fatalf("written = %s", got)
	}
}

func TestCLIMissingFileStillPrintsOthers(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	if err := os.WriteFile(good, []byte(twoTables), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.md")

	res := runCLI(t, "", "-o", "json", "--compact", missing, good)
	if res.err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(res.out, `"Ann"`) {
		t.Fatalf("expected output from the readable input, got %q", res.out)
	}

	var envelope struct {
		Error struct {
			Type  string `json:"type"`
			Input string `json:"input"`
		} `json:"error"`
	}
	// warnings are logged before the error envelope
	lines := strings.Split(strings.TrimSpace(res.stderr), "\n")
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &envelope); err != nil {
		t.Fatalf("parse stderr: %v\n%s", err, res.stderr)
	}
	if envelope.Error.Type != "input" || envelope.Error.Input != missing {
		t.Fatalf("unexpected envelope %+v", envelope.Error)
	}
}

func TestCLIConflictingSelectors(t *testing.T) {
	res := runCLI(t, twoTables, "-o", "json", "--table", "1", "--id", "people")
	if res.err == nil {
		t.Fatal("expected selection error")
	}
	if res.out != "" {
		t.Fatalf("expected no output, got %q", res.out)
	}
	if !strings.Contains(res.stderr, `"validation"`) {
		t.Fatalf("expected validation envelope, got %q", res.stderr)
	}
}

func TestCLIList(t *testing.T) {
	res := runCLI(t, twoTables, "list", "-o", "json")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	var summaries []tableSummary
	if err := json.Unmarshal([]byte(res.out), &summaries); err != nil {
		t.Fatalf("parse output: %v\n%s", err, res.out)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(summaries))
	}
	first := summaries[0]
	if first.Position != 1 || first.ID != "people" || first.Source != "-" || first.Rows != 2 {
		t.Fatalf("unexpected first summary %+v", first)
	}
	if summaries[1].Rows != 1 || summaries[1].ID != "table2" {
		t.Fatalf("unexpected second summary %+v", summaries[1])
	}
}

func TestCLIConfigSetThenShow(t *testing.T) {
	restore := snapshotCLIState()
	defer restore()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	for _, args := range [][]string{
		{"--config", cfgPath, "-o", "text", "config", "set", "position_scope", "global"},
		{"--config", cfgPath, "-o", "json", "config", "show"},
	} {
		out := &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetContext(withIO(context.Background(), nil, out, &bytes.Buffer{}))
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("execute %v: %v", args, err)
		}
		resetFlagChanges(rootCmd)
		resetFlagChanges(configShowCmd)
		resetFlagChanges(configSetCmd)

		if args[len(args)-1] != "show" {
			continue
		}
		var shown map[string]interface{}
		if err := json.Unmarshal(out.Bytes(), &shown); err != nil {
			t.Fatalf("parse output: %v\n%s", err, out.String())
		}
		if shown["position_scope"] != "global" {
			t.Fatalf("position_scope = %v", shown["position_scope"])
		}
	}
}

func TestCLIVersion(t *testing.T) {
	res := runCLI(t, "", "version", "-o", "text")
	if res.err != nil {
		t.Fatalf("execute: %v", res.err)
	}
	if !strings.HasPrefix(res.out, "psv version ") {
		t.Fatalf("output = %q", res.out)
	}
}

func snapshotCLIState() func() {
	prevOutputFmt := outputFmt
	prevOutputType := outputType
	prevDebug := debug
	prevConfig := configFile
	prevQueryExpr := queryExpr
	prevQueryFile := queryFile
	prevErrorFmt := errorFmt
	prevQuiet := quietFlag
	prevResultLimit := resultLimit
	prevResultSort := resultSort
	prevResultDesc := resultDesc
	prevScope := scopeFlag
	prevLegacy := legacyTerm
	prevTablePos := tablePos
	prevTableID := tableID
	prevCompact := compactFlag
	prevOmitNull := omitNullFlag
	prevOutFile := outFile

	prevOut := rootCmd.OutOrStdout()
	prevErr := rootCmd.ErrOrStderr()
	prevIn := rootCmd.InOrStdin()
	prevCtx := rootCmd.Context()

	return func() {
		outputFmt = prevOutputFmt
		outputType = prevOutputType
		debug = prevDebug
		configFile = prevConfig
		queryExpr = prevQueryExpr
		queryFile = prevQueryFile
		errorFmt = prevErrorFmt
		quietFlag = prevQuiet
		resultLimit = prevResultLimit
		resultSort = prevResultSort
		resultDesc = prevResultDesc
		scopeFlag = prevScope
		legacyTerm = prevLegacy
		tablePos = prevTablePos
		tableID = prevTableID
		compactFlag = prevCompact
		omitNullFlag = prevOmitNull
		outFile = prevOutFile

		rootCmd.SetOut(prevOut)
		rootCmd.SetErr(prevErr)
		rootCmd.SetIn(prevIn)
		rootCmd.SetContext(prevCtx)
		rootCmd.SetArgs(nil)
		resetFlagChanges(rootCmd)
		for _, sub := range rootCmd.Commands() {
			resetFlagChanges(sub)
		}
	}
}

func resetFlagChanges(cmdFlagSet interface {
	Flags() *pflag.FlagSet
	PersistentFlags() *pflag.FlagSet
	InheritedFlags() *pflag.FlagSet
},
) {
	if cmdFlagSet == nil {
		return
	}
	cmdFlagSet.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
	cmdFlagSet.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
	cmdFlagSet.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
	})
}
