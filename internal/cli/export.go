package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmaher/loanscope/internal/export"
	"github.com/dmaher/loanscope/internal/loan"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Type string
	Out  string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "export <scenario.json>",
		Short:        "Render a comparison as csv, html, or an eml draft",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "csv", "export type (csv|html|eml)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file (default stdout)")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	p, err := loadScenario(path)
	if err != nil {
		return err
	}

	cmp := loan.Compare(p.LoanData, p.Preferred())

	var out []byte
	switch opts.Type {
	case "csv":
		out, err = export.CSV(p.LoanData, cmp)
	case "html":
		out, err = export.HTMLTable(p.LoanData, cmp)
	case "eml":
		emlOpts := export.EMLOptions{}
		if p.Name != "" {
			emlOpts.Subject = "Loan comparison: " + p.Name
		}
		out, err = export.EML(p.LoanData, cmp, emlOpts)
	default:
		return fmt.Errorf("unknown export type %q: must be csv, html, or eml", opts.Type)
	}
	if err != nil {
		return err
	}

	if opts.Out == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(opts.Out, out, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.Out)
	return nil
}
