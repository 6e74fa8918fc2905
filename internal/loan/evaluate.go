package loan

import "math"

// DTIResult breaks down the debt-to-income calculation for one program.
// Both ratios are 0 when gross monthly income is 0.
type DTIResult struct {
	HousingDTI              float64 `json:"housingDTI"`
	TotalDTI                float64 `json:"totalDTI"`
	HousingPayment          float64 `json:"housingPayment"`
	DebtPayments            float64 `json:"debtPayments"`
	TotalMonthlyObligations float64 `json:"totalMonthlyObligations"`
}

// BuyDownAnalysis reports what an upfront rate buy-down earns per month
// and how many whole months it takes to recoup the cost. BreakEvenMonths
// is 0 when the buy-down never pays for itself.
type BuyDownAnalysis struct {
	MonthlySavings  float64 `json:"monthlySavings"`
	BreakEvenMonths int     `json:"breakEvenMonths"`
}

// ProgramResult is the fully evaluated view of one program against the
// loan data it belongs to.
type ProgramResult struct {
	Program          Program          `json:"program"`
	EffectiveRate    float64          `json:"effectiveRate"`
	LoanAmount       float64          `json:"loanAmount"`
	MonthlyPI        float64          `json:"monthlyPI"`
	MonthlyMI        float64          `json:"monthlyMI"`
	MonthlyPITI      float64          `json:"monthlyPITI"`
	DTI              DTIResult        `json:"dti"`
	BuyDown          *BuyDownAnalysis `json:"buyDown,omitempty"`
	SavingsVsCurrent *float64         `json:"savingsVsCurrent,omitempty"`
}

// EffectiveRate returns the rate used for payment math: the bought-down
// rate while BuyDown is set, the nominal rate otherwise.
func EffectiveRate(p Program) float64 {
	if p.BuyDown {
		return p.EffectiveRate
	}
	return p.Rate
}

// RateReduction is the bought-down spread, clamped to non-negative.
func RateReduction(p Program) float64 {
	if r := p.Rate - EffectiveRate(p); r > 0 {
		return r
	}
	return 0
}

// ProgramLoanAmount resolves the principal for one program: a positive
// per-program override wins over the LoanData-derived amount.
func ProgramLoanAmount(ld LoanData, p Program) float64 {
	if p.OverrideLoanAmount > 0 {
		return p.OverrideLoanAmount
	}
	return Amount(ld)
}

// selectedDebtPayments sums monthly payments over the debts counted for
// this program: the per-program selection when one exists, otherwise
// every debt flagged IncludeInDTI.
func selectedDebtPayments(ld LoanData, p Program) float64 {
	if ids, ok := ld.DebtSelections[p.ID]; ok {
		chosen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			chosen[id] = true
		}
		var total float64
		for _, d := range ld.Debts {
			if chosen[d.ID] {
				total += d.MonthlyPayment
			}
		}
		return total
	}

	var total float64
	for _, d := range ld.Debts {
		if d.IncludeInDTI {
			total += d.MonthlyPayment
		}
	}
	return total
}

// DTI computes housing and total debt-to-income for a program given its
// full monthly housing payment.
func DTI(ld LoanData, p Program, housingPayment float64) DTIResult {
	debts := selectedDebtPayments(ld, p)
	out := DTIResult{
		HousingPayment:          housingPayment,
		DebtPayments:            debts,
		TotalMonthlyObligations: housingPayment + debts,
	}
	if ld.GrossMonthlyIncome > 0 {
		out.HousingDTI = housingPayment / ld.GrossMonthlyIncome * 100
		out.TotalDTI = out.TotalMonthlyObligations / ld.GrossMonthlyIncome * 100
	}
	return out
}

// BuyDown compares payments at the nominal and bought-down rates. Nil
// when the program has no priced buy-down.
func BuyDown(ld LoanData, p Program) *BuyDownAnalysis {
	if !p.BuyDown || p.BuyDownCost <= 0 {
		return nil
	}
	principal := ProgramLoanAmount(ld, p)
	savings := MonthlyPayment(principal, p.Rate, p.Term) - MonthlyPayment(principal, EffectiveRate(p), p.Term)
	out := &BuyDownAnalysis{MonthlySavings: savings}
	if savings > 0 {
		out.BreakEvenMonths = int(math.Ceil(p.BuyDownCost / savings))
	}
	return out
}

// EvaluateProgram derives every per-program figure from the loan data
// and one program. It never fails; degenerate numeric input degrades to
// zeroes so the caller can render a partially filled scenario.
func EvaluateProgram(ld LoanData, p Program) ProgramResult {
	principal := ProgramLoanAmount(ld, p)
	pi := MonthlyPayment(principal, EffectiveRate(p), p.Term)
	mi := MonthlyMI(ld, principal)
	piti := pi + ld.AnnualPropertyTax/12 + ld.AnnualHomeInsurance/12 + mi

	out := ProgramResult{
		Program:       p,
		EffectiveRate: EffectiveRate(p),
		LoanAmount:    principal,
		MonthlyPI:     pi,
		MonthlyMI:     mi,
		MonthlyPITI:   piti,
		DTI:           DTI(ld, p, piti),
		BuyDown:       BuyDown(ld, p),
	}
	if p.PreviousMonthlyPITI > 0 {
		savings := p.PreviousMonthlyPITI - piti
		out.SavingsVsCurrent = &savings
	}
	return out
}
