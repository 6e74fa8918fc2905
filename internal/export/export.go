// Package export renders a comparison snapshot into the formats the
// tool hands off: CSV for spreadsheets, an HTML table fragment for
// email bodies and clipboard paste, and a ready-to-send .eml draft.
// It consumes only plain comparison data and never recalculates.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"

	mail "github.com/go-mail/mail/v2"
	"github.com/shopspring/decimal"

	"github.com/dmaher/loanscope/internal/loan"
)

var programTypeLabels = map[loan.ProgramType]string{
	loan.Conventional: "Conventional",
	loan.ARM3Year:     "3-Year ARM",
	loan.ARM5Year:     "5-Year ARM",
	loan.ARM7Year:     "7-Year ARM",
	loan.FHA:          "FHA",
	loan.VA:           "VA",
	loan.USDA:         "USDA",
}

// money renders a currency cell with cent-exact rounding.
func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3) + "%"
}

func programLabel(p loan.Program) string {
	label, ok := programTypeLabels[p.Type]
	if !ok {
		label = string(p.Type)
	}
	return fmt.Sprintf("%s %d-yr", label, p.Term)
}

func breakEven(row loan.ProgramResult) string {
	if row.BuyDown == nil {
		return "N/A"
	}
	if row.BuyDown.BreakEvenMonths == 0 {
		return "never"
	}
	return strconv.Itoa(row.BuyDown.BreakEvenMonths) + " mo"
}

func monthlySavings(row loan.ProgramResult) string {
	if row.BuyDown == nil {
		return "N/A"
	}
	return money(row.BuyDown.MonthlySavings)
}

func savingsVsCurrent(row loan.ProgramResult) string {
	if row.SavingsVsCurrent == nil {
		return "N/A"
	}
	if *row.SavingsVsCurrent < 0 {
		return money(-*row.SavingsVsCurrent) + "/mo increase"
	}
	return "+" + money(*row.SavingsVsCurrent) + "/mo"
}

// CSV writes the comparison with one column per selected program, in
// list order.
func CSV(ld loan.LoanData, cmp loan.Comparison) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{""}
	for _, row := range cmp.Rows {
		header = append(header, programLabel(row.Program))
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	metrics := []struct {
		label string
		cell  func(loan.ProgramResult) string
	}{
		{"Rate", func(r loan.ProgramResult) string { return percent(r.Program.Rate) }},
		{"Effective Rate", func(r loan.ProgramResult) string { return percent(r.EffectiveRate) }},
		{"Loan Amount", func(r loan.ProgramResult) string { return money(r.LoanAmount) }},
		{"Monthly P&I", func(r loan.ProgramResult) string { return money(r.MonthlyPI) }},
		{"Monthly MI", func(r loan.ProgramResult) string { return money(r.MonthlyMI) }},
		{"Monthly PITI", func(r loan.ProgramResult) string { return money(r.MonthlyPITI) }},
		{"Housing DTI", func(r loan.ProgramResult) string { return percent(r.DTI.HousingDTI) }},
		{"Total DTI", func(r loan.ProgramResult) string { return percent(r.DTI.TotalDTI) }},
		{"Buy-Down Cost", func(r loan.ProgramResult) string { return money(r.Program.BuyDownCost) }},
		{"Monthly Savings (Buy-Down)", monthlySavings},
		{"Break-Even", breakEven},
		{"Savings vs Current", savingsVsCurrent},
	}
	for _, metric := range metrics {
		record := []string{metric.label}
		for _, row := range cmp.Rows {
			record = append(record, metric.cell(row))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %q: %w", metric.label, err)
		}
	}

	summary := [][]string{
		{"Base Loan Amount", money(cmp.LoanAmount)},
		{"Total Monthly Debts", money(cmp.TotalMonthlyDebts)},
	}
	if ld.LoanType == loan.Refinance {
		summary = append(summary,
			[]string{"Total Refinanced Debts", money(cmp.TotalRefinancedDebts)},
			[]string{"Monthly Savings From Refinanced Debts", money(cmp.TotalRefinancedMonthlyPayments)},
		)
	}
	if err := w.Write([]string{""}); err != nil {
		return nil, fmt.Errorf("write csv spacer: %w", err)
	}
	for _, record := range summary {
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv summary: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

var htmlTableTemplate = template.Must(template.New("comparison").Parse(`<table border="1" cellpadding="6" cellspacing="0">
  <thead>
    <tr>
      <th></th>
{{- range .Headers}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Metrics}}
    <tr>
      <td><strong>{{.Label}}</strong></td>
{{- range .Cells}}
      <td>{{.}}</td>
{{- end}}
    </tr>
{{- end}}
  </tbody>
</table>
{{- if .Preferred}}
<p>Recommended program: <strong>{{.Preferred}}</strong></p>
{{- end}}
`))

type htmlMetric struct {
	Label string
	Cells []string
}

type htmlTableData struct {
	Headers   []string
	Metrics   []htmlMetric
	Preferred string
}

// HTMLTable renders the comparison as a self-contained table fragment.
func HTMLTable(ld loan.LoanData, cmp loan.Comparison) ([]byte, error) {
	data := htmlTableData{}
	for _, row := range cmp.Rows {
		data.Headers = append(data.Headers, programLabel(row.Program))
	}
	if preferred := cmp.Preferred(); preferred != nil {
		data.Preferred = programLabel(preferred.Program)
	}

	metrics := []struct {
		label string
		cell  func(loan.ProgramResult) string
	}{
		{"Rate", func(r loan.ProgramResult) string { return percent(r.Program.Rate) }},
		{"Effective Rate", func(r loan.ProgramResult) string { return percent(r.EffectiveRate) }},
		{"Loan Amount", func(r loan.ProgramResult) string { return money(r.LoanAmount) }},
		{"Monthly P&I", func(r loan.ProgramResult) string { return money(r.MonthlyPI) }},
		{"Monthly PITI", func(r loan.ProgramResult) string { return money(r.MonthlyPITI) }},
		{"Total DTI", func(r loan.ProgramResult) string { return percent(r.DTI.TotalDTI) }},
		{"Break-Even", breakEven},
		{"Savings vs Current", savingsVsCurrent},
	}
	for _, metric := range metrics {
		m := htmlMetric{Label: metric.label}
		for _, row := range cmp.Rows {
			m.Cells = append(m.Cells, metric.cell(row))
		}
		data.Metrics = append(data.Metrics, m)
	}

	var buf bytes.Buffer
	if err := htmlTableTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render html table: %w", err)
	}
	return buf.Bytes(), nil
}

// EMLOptions address the draft. Zero values get sensible defaults so
// the user only fills in the recipient in their mail client.
type EMLOptions struct {
	From    string
	To      string
	Subject string
}

// EML composes an RFC 5322 message with the HTML table as its body,
// suitable for saving as a .eml draft.
func EML(ld loan.LoanData, cmp loan.Comparison, opts EMLOptions) ([]byte, error) {
	body, err := HTMLTable(ld, cmp)
	if err != nil {
		return nil, err
	}

	if opts.Subject == "" {
		opts.Subject = "Loan comparison"
	}

	m := mail.NewMessage()
	if opts.From != "" {
		m.SetHeader("From", opts.From)
	}
	if opts.To != "" {
		m.SetHeader("To", opts.To)
	}
	m.SetHeader("Subject", opts.Subject)
	m.SetHeader("X-Unsent", "1")
	m.SetBody("text/html", string(body))

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write eml: %w", err)
	}
	return buf.Bytes(), nil
}
