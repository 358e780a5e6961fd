package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nihei9/weft/driver/parser"
	spec "github.com/nihei9/weft/spec/grammar"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source      *string
	interactive *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled grammar>",
		Short:   "Parse text according to compiled tables and print the tree",
		Example: `  weft parse language-tables.json -s source.txt`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.interactive = cmd.Flags().BoolP("interactive", "i", false, "parse line by line from an interactive prompt")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return err
	}

	if *parseFlags.interactive {
		return parseInteractively(cgram)
	}

	var src io.Reader
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	} else {
		src = os.Stdin
	}

	return parseAndPrint(cgram, src, os.Stdout)
}

func readCompiledGrammar(path string) (*spec.CompiledGrammar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cgram := &spec.CompiledGrammar{}
	err = json.Unmarshal(b, cgram)
	if err != nil {
		return nil, fmt.Errorf("cannot parse the compiled grammar: %w", err)
	}
	return cgram, nil
}

func parseAndPrint(cgram *spec.CompiledGrammar, src io.Reader, w io.Writer) error {
	p, err := parser.NewParser(cgram, src, parser.MakeTree())
	if err != nil {
		return err
	}
	err = p.Parse()
	if err != nil {
		return err
	}

	synErrs := p.SyntaxErrors()
	for _, synErr := range synErrs {
		fmt.Fprintf(os.Stderr, "%v:%v: %v", synErr.Row+1, synErr.Col+1, synErr.Message)
		if tok := synErr.Token; tok != nil {
			if tok.EOF {
				fmt.Fprintf(os.Stderr, "; got: <eof>")
			} else {
				fmt.Fprintf(os.Stderr, "; got: %v", tok.Lexeme)
			}
		}
		if len(synErr.ExpectedTerminals) > 0 {
			fmt.Fprintf(os.Stderr, "; expected: %v", strings.Join(synErr.ExpectedTerminals, ", "))
		}
		fmt.Fprintf(os.Stderr, "\n")
	}
	if len(synErrs) > 0 {
		return fmt.Errorf("syntax error")
	}

	parser.PrintTree(w, p.Tree())
	return nil
}

// parseInteractively reads one line at a time and parses each line as an
// independent input, which is handy while debugging a grammar.
func parseInteractively(cgram *spec.CompiledGrammar) error {
	rl, err := readline.New("weft> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		err = parseAndPrint(cgram, strings.NewReader(line), os.Stdout)
		if err != nil && err.Error() != "syntax error" {
			return err
		}
	}
}
