package loan

import "testing"

func purchaseFixture() LoanData {
	return LoanData{
		LoanType:            Purchase,
		PurchasePrice:       500000,
		DownPayment:         100000,
		AnnualPropertyTax:   6000,
		AnnualHomeInsurance: 1800,
		GrossMonthlyIncome:  10000,
		Debts: []Debt{
			{ID: 1, Creditor: "Auto loan", Balance: 18000, MonthlyPayment: 400, IncludeInDTI: true},
		},
		Programs: []Program{
			{ID: 100, Type: Conventional, Rate: 7.0, Term: 30, Selected: true},
		},
	}
}

func TestEvaluateProgram_EndToEndPurchase(t *testing.T) {
	ld := purchaseFixture()
	res := EvaluateProgram(ld, ld.Programs[0])

	nearlyEqual(t, "loanAmount", res.LoanAmount, 400000)
	closeTo(t, "monthlyPI", res.MonthlyPI, 2661.21, 0.01)
	nearlyEqual(t, "monthlyMI at 20% down", res.MonthlyMI, 0)
	closeTo(t, "monthlyPITI", res.MonthlyPITI, 3311.21, 0.01)
	closeTo(t, "housingDTI", res.DTI.HousingDTI, 33.1, 0.05)
	closeTo(t, "totalDTI", res.DTI.TotalDTI, 37.1, 0.05)
	nearlyEqual(t, "debtPayments", res.DTI.DebtPayments, 400)
	if res.BuyDown != nil {
		t.Fatalf("expected no buy-down analysis, got %+v", res.BuyDown)
	}
	if res.SavingsVsCurrent != nil {
		t.Fatalf("expected no savings vs current, got %v", *res.SavingsVsCurrent)
	}
}

func TestEffectiveRate(t *testing.T) {
	plain := Program{Rate: 7.0, EffectiveRate: 6.5}
	nearlyEqual(t, "effectiveRate without buy-down", EffectiveRate(plain), 7.0)

	bought := Program{Rate: 7.0, EffectiveRate: 6.5, BuyDown: true}
	nearlyEqual(t, "effectiveRate with buy-down", EffectiveRate(bought), 6.5)
	nearlyEqual(t, "rateReduction", RateReduction(bought), 0.5)

	inverted := Program{Rate: 6.0, EffectiveRate: 6.5, BuyDown: true}
	nearlyEqual(t, "rateReduction clamps at zero", RateReduction(inverted), 0)
}

func TestProgramLoanAmount_OverrideWins(t *testing.T) {
	ld := purchaseFixture()
	base := ld.Programs[0]
	nearlyEqual(t, "derived amount", ProgramLoanAmount(ld, base), 400000)

	base.OverrideLoanAmount = 385000
	nearlyEqual(t, "override amount", ProgramLoanAmount(ld, base), 385000)
}

func TestBuyDown_BreakEvenRoundsUp(t *testing.T) {
	ld := LoanData{LoanType: Purchase, PurchasePrice: 300000}
	p := Program{
		ID: 1, Rate: 7.0, EffectiveRate: 6.5, Term: 30,
		BuyDown: true, BuyDownCost: 6000, Selected: true,
	}

	analysis := BuyDown(ld, p)
	if analysis == nil {
		t.Fatal("expected buy-down analysis")
	}
	if analysis.MonthlySavings <= 0 {
		t.Fatalf("expected positive monthly savings, got %v", analysis.MonthlySavings)
	}
	want := int(6000/analysis.MonthlySavings) + 1
	if analysis.BreakEvenMonths != want {
		t.Fatalf("breakEvenMonths = %d, want %d (ceil of cost/savings)", analysis.BreakEvenMonths, want)
	}
}

func TestBuyDown_NotApplicable(t *testing.T) {
	ld := LoanData{LoanType: Purchase, PurchasePrice: 300000}

	if got := BuyDown(ld, Program{Rate: 7, Term: 30}); got != nil {
		t.Fatalf("no buy-down flag should yield nil, got %+v", got)
	}
	if got := BuyDown(ld, Program{Rate: 7, EffectiveRate: 6.5, Term: 30, BuyDown: true}); got != nil {
		t.Fatalf("zero cost should yield nil, got %+v", got)
	}

	// Effective rate above nominal: negative savings, break-even unknowable.
	got := BuyDown(ld, Program{Rate: 6, EffectiveRate: 6.5, Term: 30, BuyDown: true, BuyDownCost: 1000})
	if got == nil || got.MonthlySavings >= 0 || got.BreakEvenMonths != 0 {
		t.Fatalf("inverted buy-down: got %+v", got)
	}
}

func TestDTI_ZeroIncomeNeverDividesByZero(t *testing.T) {
	ld := purchaseFixture()
	ld.GrossMonthlyIncome = 0
	res := EvaluateProgram(ld, ld.Programs[0])

	if res.DTI.HousingDTI != 0 || res.DTI.TotalDTI != 0 {
		t.Fatalf("zero income must yield zero DTI, got %+v", res.DTI)
	}
	if res.DTI.TotalMonthlyObligations <= 0 {
		t.Fatalf("obligations should still accumulate, got %v", res.DTI.TotalMonthlyObligations)
	}
}

func TestDTI_PerProgramDebtSelection(t *testing.T) {
	ld := purchaseFixture()
	ld.Debts = append(ld.Debts,
		Debt{ID: 2, Creditor: "Student loan", MonthlyPayment: 250, IncludeInDTI: true},
		Debt{ID: 3, Creditor: "Card", MonthlyPayment: 90, IncludeInDTI: false},
	)
	p := ld.Programs[0]

	res := EvaluateProgram(ld, p)
	nearlyEqual(t, "default selection", res.DTI.DebtPayments, 650)

	ld.DebtSelections = map[int64][]int64{p.ID: {2, 3}}
	res = EvaluateProgram(ld, p)
	nearlyEqual(t, "explicit selection overrides IncludeInDTI", res.DTI.DebtPayments, 340)

	ld.DebtSelections = map[int64][]int64{p.ID: {}}
	res = EvaluateProgram(ld, p)
	nearlyEqual(t, "empty selection counts nothing", res.DTI.DebtPayments, 0)
}

func TestMonthlyMI_RefinanceIsProgramSensitive(t *testing.T) {
	ld := LoanData{
		LoanType:             Refinance,
		RefinanceLoanAmount:  340000,
		CurrentPropertyValue: 400000,
	}

	base := Program{ID: 1, Rate: 6.5, Term: 30, Selected: true}
	res := EvaluateProgram(ld, base)
	if res.MonthlyMI == 0 {
		t.Fatal("85% LTV refinance should carry MI")
	}

	// A lower per-program payoff amount drops LTV under the threshold.
	base.OverrideLoanAmount = 310000
	res = EvaluateProgram(ld, base)
	if res.MonthlyMI != 0 {
		t.Fatalf("77.5%% LTV override should drop MI, got %v", res.MonthlyMI)
	}
}

func TestSavingsVsCurrent(t *testing.T) {
	ld := LoanData{
		LoanType:             Refinance,
		RefinanceLoanAmount:  200000,
		CurrentPropertyValue: 400000,
	}
	p := Program{ID: 1, Rate: 5.0, Term: 30, Selected: true, PreviousMonthlyPITI: 1500}

	res := EvaluateProgram(ld, p)
	if res.SavingsVsCurrent == nil {
		t.Fatal("expected savings vs current")
	}
	nearlyEqual(t, "savingsVsCurrent", *res.SavingsVsCurrent, 1500-res.MonthlyPITI)

	// A higher new payment reports a negative value: payment increase.
	p.PreviousMonthlyPITI = 500
	res = EvaluateProgram(ld, p)
	if res.SavingsVsCurrent == nil || *res.SavingsVsCurrent >= 0 {
		t.Fatalf("expected negative savings, got %v", res.SavingsVsCurrent)
	}
}
