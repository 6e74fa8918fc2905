package loan

// Comparison is the immutable snapshot the UI and exports render from.
// Rows appear in program list order, filtered to selected programs; the
// engine never sorts.
type Comparison struct {
	Rows                           []ProgramResult `json:"rows"`
	LoanAmount                     float64         `json:"loanAmount"`
	TotalMonthlyDebts              float64         `json:"totalMonthlyDebts"`
	TotalRefinancedDebts           float64         `json:"totalRefinancedDebts"`
	TotalRefinancedMonthlyPayments float64         `json:"totalRefinancedMonthlyPayments"`
	// PreferredIndex points into Rows, -1 when no selected program
	// matches the preferred id.
	PreferredIndex int `json:"preferredIndex"`
}

// Preferred returns the recommended row, nil when none is set.
func (c *Comparison) Preferred() *ProgramResult {
	if c.PreferredIndex < 0 || c.PreferredIndex >= len(c.Rows) {
		return nil
	}
	return &c.Rows[c.PreferredIndex]
}

// Compare evaluates every selected program and the loan-level
// aggregates. preferredID 0 means no recommendation; an id that is
// missing or unselected simply leaves the recommendation empty.
func Compare(ld LoanData, preferredID int64) Comparison {
	out := Comparison{
		Rows:           make([]ProgramResult, 0, len(ld.Programs)),
		LoanAmount:     Amount(ld),
		PreferredIndex: -1,
	}

	for _, p := range ld.Programs {
		if !p.Selected {
			continue
		}
		if preferredID != 0 && p.ID == preferredID {
			out.PreferredIndex = len(out.Rows)
		}
		out.Rows = append(out.Rows, EvaluateProgram(ld, p))
	}

	for _, d := range ld.Debts {
		if d.IncludeInDTI {
			out.TotalMonthlyDebts += d.MonthlyPayment
		}
		if d.WillBeRefinanced {
			out.TotalRefinancedDebts += d.Balance
			out.TotalRefinancedMonthlyPayments += d.MonthlyPayment
		}
	}

	return out
}
