// Package scenario round-trips named loan scenarios between the editing
// state and storage: a versioned JSON codec plus the SQLite store behind
// the scenarios API.
package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/dmaher/loanscope/internal/loan"
)

// CurrentVersion tags the payload shape produced by Encode.
const CurrentVersion = 1

// Payload is the persistence envelope for one scenario. LoanData is
// always a deep copy; a saved payload never aliases live editing state.
type Payload struct {
	Version            int           `json:"version"`
	Name               string        `json:"name,omitempty"`
	LoanData           loan.LoanData `json:"loanData"`
	PreferredProgramID *int64        `json:"preferredProgramId"`
}

// Preferred returns the preferred program id, 0 when none is set.
func (p Payload) Preferred() int64 {
	if p.PreferredProgramID == nil {
		return 0
	}
	return *p.PreferredProgramID
}

// Encode snapshots the loan data into a version-1 envelope.
func Encode(name string, ld loan.LoanData, preferredID int64) Payload {
	p := Payload{
		Version:  CurrentVersion,
		Name:     name,
		LoanData: ld.Clone(),
	}
	if preferredID != 0 {
		p.PreferredProgramID = &preferredID
	}
	return p
}

// DecodeErrorKind classifies the ways a payload can be rejected.
type DecodeErrorKind int

const (
	// InvalidFormat: the payload is not an object or loanData is
	// missing or not an object.
	InvalidFormat DecodeErrorKind = iota
	// MissingField: a field with no safe default is absent.
	MissingField
	// InvalidProgram: a program element is missing its id.
	InvalidProgram
)

func (k DecodeErrorKind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case MissingField:
		return "missing field"
	case InvalidProgram:
		return "invalid program"
	}
	return "unknown"
}

// DecodeError is the only failure Decode produces. Field and
// ProgramIndex carry enough detail for a per-field UI message.
type DecodeError struct {
	Kind         DecodeErrorKind
	Field        string
	ProgramIndex int
}

func (e *DecodeError) Error() string {
	if e.Kind == InvalidProgram {
		return fmt.Sprintf("%s: programs[%d] has no id", e.Kind, e.ProgramIndex)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return e.Kind.String()
}

// Raw shapes use pointers throughout so absence is distinguishable from
// a zero value; defaulting happens in one place below.
type rawPayload struct {
	Version            *int            `json:"version"`
	Name               string          `json:"name"`
	LoanData           json.RawMessage `json:"loanData"`
	PreferredProgramID *int64          `json:"preferredProgramId"`
}

type rawLoanData struct {
	LoanType             *string           `json:"loanType"`
	PurchasePrice        *float64          `json:"purchasePrice"`
	DownPayment          *float64          `json:"downPayment"`
	DownPaymentPercent   *float64          `json:"downPaymentPercent"`
	RefinanceLoanAmount  *float64          `json:"refinanceLoanAmount"`
	CurrentPropertyValue *float64          `json:"currentPropertyValue"`
	AnnualPropertyTax    *float64          `json:"annualPropertyTax"`
	AnnualHomeInsurance  *float64          `json:"annualHomeInsurance"`
	GrossMonthlyIncome   *float64          `json:"grossMonthlyIncome"`
	Debts                []rawDebt         `json:"debts"`
	Programs             []rawProgram      `json:"programs"`
	DebtSelections       map[int64][]int64 `json:"debtSelections"`

	// Pre-rename payloads used these names.
	PropertyTaxes *float64 `json:"propertyTaxes"`
	HOI           *float64 `json:"hoi"`
}

type rawDebt struct {
	ID               *int64   `json:"id"`
	Creditor         string   `json:"creditor"`
	Balance          *float64 `json:"balance"`
	MonthlyPayment   *float64 `json:"monthlyPayment"`
	IncludeInDTI     *bool    `json:"includeInDTI"`
	WillBeRefinanced *bool    `json:"willBeRefinanced"`
}

type rawProgram struct {
	ID                  *int64   `json:"id"`
	Type                *string  `json:"type"`
	Rate                *float64 `json:"rate"`
	Term                *int     `json:"term"`
	Selected            *bool    `json:"selected"`
	BuyDown             *bool    `json:"buyDown"`
	BuyDownCost         *float64 `json:"buyDownCost"`
	EffectiveRate       *float64 `json:"effectiveRate"`
	OverrideLoanAmount  *float64 `json:"overrideLoanAmount"`
	PreviousMonthlyPITI *float64 `json:"previousMonthlyPITI"`
}

// Decode normalizes a stored payload of any accepted vintage into the
// current shape. Every optional field defaults; only loanType and
// per-program ids are required. The error, when non-nil, is always a
// *DecodeError.
func Decode(data []byte) (Payload, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return Payload{}, &DecodeError{Kind: InvalidFormat}
	}
	if len(raw.LoanData) == 0 || string(raw.LoanData) == "null" {
		return Payload{}, &DecodeError{Kind: InvalidFormat, Field: "loanData"}
	}

	var rld rawLoanData
	if err := json.Unmarshal(raw.LoanData, &rld); err != nil {
		return Payload{}, &DecodeError{Kind: InvalidFormat, Field: "loanData"}
	}
	if rld.LoanType == nil || *rld.LoanType == "" {
		return Payload{}, &DecodeError{Kind: MissingField, Field: "loanData.loanType"}
	}

	ld := loan.LoanData{
		LoanType:             loan.LoanType(*rld.LoanType),
		PurchasePrice:        floatOrZero(rld.PurchasePrice),
		DownPayment:          floatOrZero(rld.DownPayment),
		DownPaymentPercent:   floatOr(rld.DownPaymentPercent, 20),
		RefinanceLoanAmount:  floatOrZero(rld.RefinanceLoanAmount),
		CurrentPropertyValue: floatOrZero(rld.CurrentPropertyValue),
		AnnualPropertyTax:    floatOr(rld.AnnualPropertyTax, floatOrZero(rld.PropertyTaxes)),
		AnnualHomeInsurance:  floatOr(rld.AnnualHomeInsurance, floatOrZero(rld.HOI)),
		GrossMonthlyIncome:   floatOrZero(rld.GrossMonthlyIncome),
		Debts:                make([]loan.Debt, 0, len(rld.Debts)),
		Programs:             make([]loan.Program, 0, len(rld.Programs)),
		DebtSelections:       rld.DebtSelections,
	}

	for i, rd := range rld.Debts {
		d := loan.Debt{
			Creditor:       rd.Creditor,
			Balance:        floatOrZero(rd.Balance),
			MonthlyPayment: floatOrZero(rd.MonthlyPayment),
			IncludeInDTI:   boolOr(rd.IncludeInDTI, true),
		}
		if rd.ID != nil {
			d.ID = *rd.ID
		} else {
			d.ID = int64(i + 1)
		}
		if rd.WillBeRefinanced != nil {
			d.WillBeRefinanced = *rd.WillBeRefinanced
		}
		ld.Debts = append(ld.Debts, d)
	}

	for i, rp := range rld.Programs {
		if rp.ID == nil {
			return Payload{}, &DecodeError{Kind: InvalidProgram, ProgramIndex: i}
		}
		p := loan.Program{
			ID:                  *rp.ID,
			Type:                loan.Conventional,
			Rate:                floatOrZero(rp.Rate),
			Term:                30,
			Selected:            boolOr(rp.Selected, true),
			BuyDown:             boolOr(rp.BuyDown, false),
			BuyDownCost:         floatOrZero(rp.BuyDownCost),
			OverrideLoanAmount:  floatOrZero(rp.OverrideLoanAmount),
			PreviousMonthlyPITI: floatOrZero(rp.PreviousMonthlyPITI),
		}
		if rp.Type != nil && *rp.Type != "" {
			p.Type = loan.ProgramType(*rp.Type)
		}
		if rp.Term != nil {
			p.Term = *rp.Term
		}
		p.EffectiveRate = floatOr(rp.EffectiveRate, p.Rate)
		ld.Programs = append(ld.Programs, p)
	}

	out := Payload{
		Version:            CurrentVersion,
		Name:               raw.Name,
		LoanData:           ld,
		PreferredProgramID: raw.PreferredProgramID,
	}
	if raw.Version != nil {
		out.Version = *raw.Version
	}
	return out, nil
}

func floatOrZero(v *float64) float64 {
	return floatOr(v, 0)
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
