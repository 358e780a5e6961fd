package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	verr "github.com/nihei9/weft/error"
	"github.com/nihei9/weft/grammar"
	spec "github.com/nihei9/weft/spec/grammar"
	"github.com/nihei9/weft/spec/language"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output  *string
	rowKind *string
	compLv  *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a language definition into lexer and parser tables",
		Example: `  weft compile language.json -o language-tables.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.rowKind = cmd.Flags().String("row-kind", "", "lexer row representation: flat or compact (default automatic)")
	compileFlags.compLv = cmd.Flags().Int("compression-level", 0, "lexer table compression level (0..2)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var src io.Reader
	sourceName := "stdin"
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("cannot open the language definition %s: %w", args[0], err)
		}
		defer f.Close()
		src = f
		sourceName = args[0]
	} else {
		src = os.Stdin
	}

	ast, err := readLanguage(src)
	if err != nil {
		return err
	}

	diags := &verr.DiagnosticList{}
	b := &grammar.GrammarBuilder{
		AST:         ast,
		Diagnostics: diags,
	}
	gram, err := b.Build()
	if err != nil {
		printDiagnostics(diags, sourceName)
		return err
	}

	cgram, report, err := grammar.Compile(gram,
		grammar.EnableReporting(),
		grammar.WithDiagnostics(diags),
		grammar.WithRowKind(spec.RowKind(*compileFlags.rowKind)),
		grammar.WithCompressionLevel(*compileFlags.compLv),
	)
	printDiagnostics(diags, sourceName)
	if err != nil {
		return err
	}
	if diags.HasErrors() {
		return fmt.Errorf("the language definition has errors")
	}

	return writeCompiledGrammarAndReport(cgram, report, *compileFlags.output)
}

func readLanguage(src io.Reader) (*language.Language, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	ast := &language.Language{}
	err = json.Unmarshal(b, ast)
	if err != nil {
		return nil, fmt.Errorf("cannot parse the language definition: %w", err)
	}
	return ast, nil
}

func printDiagnostics(diags *verr.DiagnosticList, sourceName string) {
	for _, d := range diags.All() {
		d.SourceName = sourceName
		fmt.Fprintln(os.Stderr, d)
	}
}

// writeCompiledGrammarAndReport writes the tables to the output path (or
// stdout when the path is empty) and the report to a sibling file named
// <grammar-name>-report.json.
func writeCompiledGrammarAndReport(cgram *spec.CompiledGrammar, report *spec.Report, path string) error {
	var w io.Writer
	dir := ""
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
		dir, _ = filepath.Split(path)
	} else {
		w = os.Stdout
	}

	b, err := json.Marshal(cgram)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%v\n", string(b))

	reportPath := filepath.Join(dir, cgram.Name+"-report.json")
	rf, err := os.OpenFile(reportPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer rf.Close()
	rb, err := json.Marshal(report)
	if err != nil {
		return err
	}
	fmt.Fprintf(rf, "%v\n", string(rb))

	return nil
}
