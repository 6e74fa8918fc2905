package loan

import "math"

// LoanType selects which branch of LoanData is authoritative for
// calculations. Fields of the other branch may still be present in
// storage for UI convenience but are ignored here.
type LoanType string

const (
	Purchase  LoanType = "purchase"
	Refinance LoanType = "refinance"
)

// ProgramType identifies a loan product.
type ProgramType string

const (
	Conventional ProgramType = "conventional"
	ARM3Year     ProgramType = "3-year-arm"
	ARM5Year     ProgramType = "5-year-arm"
	ARM7Year     ProgramType = "7-year-arm"
	FHA          ProgramType = "fha"
	VA           ProgramType = "va"
	USDA         ProgramType = "usda"
)

// Mortgage insurance is a fixed rule of this tool, not user-configurable:
// 0.5% of principal per year, charged below 20% down (purchase) or above
// 80% LTV (refinance).
const (
	miAnnualRate          = 0.005
	miMinDownPaymentPct   = 20.0
	miMaxLoanToValuePct   = 80.0
	defaultTermYears      = 30
	defaultDownPaymentPct = 20.0
)

// Debt is a monthly obligation that may count toward DTI and may be
// rolled into a refinance.
type Debt struct {
	ID               int64   `json:"id"`
	Creditor         string  `json:"creditor"`
	Balance          float64 `json:"balance"`
	MonthlyPayment   float64 `json:"monthlyPayment"`
	IncludeInDTI     bool    `json:"includeInDTI"`
	WillBeRefinanced bool    `json:"willBeRefinanced"`
}

// Program is one loan offer under comparison. EffectiveRate is only
// meaningful while BuyDown is set; otherwise Rate is used as-is.
type Program struct {
	ID                  int64       `json:"id"`
	Type                ProgramType `json:"type"`
	Rate                float64     `json:"rate"`
	Term                int         `json:"term"`
	Selected            bool        `json:"selected"`
	BuyDown             bool        `json:"buyDown"`
	BuyDownCost         float64     `json:"buyDownCost"`
	EffectiveRate       float64     `json:"effectiveRate"`
	OverrideLoanAmount  float64     `json:"overrideLoanAmount,omitempty"`
	PreviousMonthlyPITI float64     `json:"previousMonthlyPITI,omitempty"`
}

// LoanData is the root input of a comparison session. Program and debt
// order is user-controlled display order and is significant.
type LoanData struct {
	LoanType             LoanType `json:"loanType"`
	PurchasePrice        float64  `json:"purchasePrice"`
	DownPayment          float64  `json:"downPayment"`
	// DownPaymentPercent echoes the last percent the user typed; the
	// engine always derives the ratio from PurchasePrice and DownPayment.
	DownPaymentPercent   float64   `json:"downPaymentPercent"`
	RefinanceLoanAmount  float64   `json:"refinanceLoanAmount"`
	CurrentPropertyValue float64   `json:"currentPropertyValue"`
	AnnualPropertyTax    float64   `json:"annualPropertyTax"`
	AnnualHomeInsurance  float64   `json:"annualHomeInsurance"`
	GrossMonthlyIncome   float64   `json:"grossMonthlyIncome"`
	Debts                []Debt    `json:"debts"`
	Programs             []Program `json:"programs"`
	// DebtSelections maps a program id to the debt ids counted in that
	// program's DTI. A missing entry means "all debts with IncludeInDTI".
	DebtSelections map[int64][]int64 `json:"debtSelections,omitempty"`
}

// Clone returns a deep copy sharing no slices or maps with the receiver.
func (ld LoanData) Clone() LoanData {
	out := ld
	if ld.Debts != nil {
		out.Debts = make([]Debt, len(ld.Debts))
		copy(out.Debts, ld.Debts)
	}
	if ld.Programs != nil {
		out.Programs = make([]Program, len(ld.Programs))
		copy(out.Programs, ld.Programs)
	}
	if ld.DebtSelections != nil {
		out.DebtSelections = make(map[int64][]int64, len(ld.DebtSelections))
		for id, debts := range ld.DebtSelections {
			ids := make([]int64, len(debts))
			copy(ids, debts)
			out.DebtSelections[id] = ids
		}
	}
	return out
}

// MonthlyPayment computes the amortized monthly payment for a principal
// at an annual rate (percent) over a term in years. A zero rate falls
// back to straight-line. Incomplete input yields 0 rather than an error
// so partially filled forms still render.
func MonthlyPayment(principal, annualRatePct float64, termYears int) float64 {
	if principal <= 0 || termYears <= 0 {
		return 0
	}
	n := float64(termYears * 12)
	if annualRatePct <= 0 {
		return principal / n
	}
	r := annualRatePct / 100 / 12
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}

// Amount returns the base loan amount derived from the active branch.
func Amount(ld LoanData) float64 {
	if ld.LoanType == Refinance {
		return ld.RefinanceLoanAmount
	}
	return ld.PurchasePrice - ld.DownPayment
}

// DownPaymentPercent derives the down payment as a percent of purchase
// price. Zero for refinance or when the price is not yet entered.
func DownPaymentPercent(ld LoanData) float64 {
	if ld.LoanType != Purchase || ld.PurchasePrice <= 0 {
		return 0
	}
	return ld.DownPayment / ld.PurchasePrice * 100
}

// LoanToValue derives the LTV percent for refinance scenarios.
func LoanToValue(ld LoanData) float64 {
	if ld.LoanType != Refinance || ld.CurrentPropertyValue <= 0 {
		return 0
	}
	return ld.RefinanceLoanAmount / ld.CurrentPropertyValue * 100
}

// RequiresMI reports whether mortgage insurance applies at the loan
// level: under 20% down on a purchase, over 80% LTV on a refinance.
func RequiresMI(ld LoanData) bool {
	if ld.LoanType == Refinance {
		return LoanToValue(ld) > miMaxLoanToValuePct
	}
	return DownPaymentPercent(ld) < miMinDownPaymentPct
}

// MonthlyMI returns the monthly mortgage insurance charge for the given
// principal. Purchase scenarios key the test on the loan-level down
// payment; refinance scenarios recompute LTV from this principal, so
// per-program override amounts change the answer.
func MonthlyMI(ld LoanData, principal float64) float64 {
	if principal <= 0 {
		return 0
	}
	if ld.LoanType == Refinance {
		if ld.CurrentPropertyValue <= 0 {
			return 0
		}
		if principal/ld.CurrentPropertyValue*100 <= miMaxLoanToValuePct {
			return 0
		}
	} else if DownPaymentPercent(ld) >= miMinDownPaymentPct {
		return 0
	}
	return principal * miAnnualRate / 12
}
