package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	spec "github.com/nihei9/weft/spec/grammar"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Show the symbols, productions, and conflicts of a compilation report",
		Example: `  weft show language-report.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	b, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	report := &spec.Report{}
	err = json.Unmarshal(b, report)
	if err != nil {
		return fmt.Errorf("cannot parse the report: %w", err)
	}

	termName := func(num int) string {
		if num >= 0 && num < len(report.Terminals) && report.Terminals[num] != nil {
			return report.Terminals[num].Name
		}
		return strconv.Itoa(num)
	}
	nonTermName := func(num int) string {
		if num >= 0 && num < len(report.NonTerminals) && report.NonTerminals[num] != nil {
			return report.NonTerminals[num].Name
		}
		return strconv.Itoa(num)
	}

	pterm.DefaultSection.Println("Terminals")
	{
		data := pterm.TableData{{"#", "Name", "Weak"}}
		for _, t := range report.Terminals {
			if t == nil {
				continue
			}
			weak := ""
			if t.Weak {
				weak = "weak"
			}
			data = append(data, []string{strconv.Itoa(t.Number), t.Name, weak})
		}
		err := pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		if err != nil {
			return err
		}
	}

	pterm.DefaultSection.Println("Productions")
	{
		data := pterm.TableData{{"#", "Rule"}}
		for _, p := range report.Productions {
			if p == nil {
				continue
			}
			rule := nonTermName(p.LHS) + " →"
			for _, e := range p.RHS {
				if e >= 0 {
					rule += " " + termName(e)
				} else {
					rule += " " + nonTermName(-e)
				}
			}
			data = append(data, []string{strconv.Itoa(p.Number), rule})
		}
		err := pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		if err != nil {
			return err
		}
	}

	pterm.DefaultSection.Println("Conflicts")
	conflictCount := 0
	for _, s := range report.States {
		for _, c := range s.SRConflict {
			conflictCount++
			pterm.Warning.Println(fmt.Sprintf("state %v: shift/reduce on %v (shift to %v, reduce by %v)",
				s.Number, termName(c.Symbol), c.State, c.Production))
		}
		for _, c := range s.RRConflict {
			conflictCount++
			pterm.Warning.Println(fmt.Sprintf("state %v: reduce/reduce on %v (%v vs %v, adopted %v)",
				s.Number, termName(c.Symbol), c.Production1, c.Production2, c.AdoptedProduction))
		}
	}
	if conflictCount == 0 {
		pterm.Success.Println("no conflicts")
	}

	return nil
}
