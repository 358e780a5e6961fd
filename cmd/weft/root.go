package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Generate portable lexer and parser tables from a language definition",
	Long: `weft compiles a language definition into the tables a table-driven
LR parser runs on:
- Compiles the lexical entries into a DFA with a code point translator.
- Compiles the grammar into LALR(1) action tables, disambiguated by weak
  symbols and guards.
- Parses text against the compiled tables, primarily for debugging.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}
