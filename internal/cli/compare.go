package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmaher/loanscope/internal/loan"
	"github.com/dmaher/loanscope/internal/scenario"
)

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "compare <scenario.json>",
		Short:        "Evaluate every selected program in a scenario file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func loadScenario(path string) (scenario.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.Payload{}, fmt.Errorf("read scenario file: %w", err)
	}

	p, err := scenario.Decode(data)
	if err != nil {
		return scenario.Payload{}, fmt.Errorf("parse scenario file: %w", err)
	}
	return p, nil
}

func runCompare(opts *RootOptions, path string, cmd *cobra.Command) error {
	p, err := loadScenario(path)
	if err != nil {
		return err
	}

	cmp := loan.Compare(p.LoanData, p.Preferred())

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}

	out := cmd.OutOrStdout()
	if p.Name != "" {
		fmt.Fprintf(out, "Scenario: %s\n", p.Name)
	}
	fmt.Fprintf(out, "Loan amount: $%.2f\n\n", cmp.LoanAmount)

	for i, row := range cmp.Rows {
		marker := " "
		if i == cmp.PreferredIndex {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s %d-yr at %.3f%%\n", marker, row.Program.Type, row.Program.Term, row.EffectiveRate)
		fmt.Fprintf(out, "    P&I $%.2f  PITI $%.2f  DTI %.1f%%/%.1f%%\n",
			row.MonthlyPI, row.MonthlyPITI, row.DTI.HousingDTI, row.DTI.TotalDTI)
		if row.BuyDown != nil {
			if row.BuyDown.BreakEvenMonths > 0 {
				fmt.Fprintf(out, "    buy-down saves $%.2f/mo, breaks even in %d months\n",
					row.BuyDown.MonthlySavings, row.BuyDown.BreakEvenMonths)
			} else {
				fmt.Fprintf(out, "    buy-down never breaks even\n")
			}
		}
	}

	return nil
}
