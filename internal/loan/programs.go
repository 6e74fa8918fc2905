package loan

import "time"

// nextID mimics the UI's millisecond-timestamp ids while guaranteeing
// uniqueness when two adds land in the same millisecond. Ids are never
// reused within a session even after a removal.
func nextID(existing []int64) int64 {
	id := time.Now().UnixMilli()
	for _, e := range existing {
		if e >= id {
			id = e + 1
		}
	}
	return id
}

func programIDs(ld *LoanData) []int64 {
	ids := make([]int64, len(ld.Programs))
	for i, p := range ld.Programs {
		ids[i] = p.ID
	}
	return ids
}

func debtIDs(ld *LoanData) []int64 {
	ids := make([]int64, len(ld.Debts))
	for i, d := range ld.Debts {
		ids[i] = d.ID
	}
	return ids
}

// AddProgram appends a program with creation defaults and returns a
// pointer to it for in-place field edits.
func AddProgram(ld *LoanData) *Program {
	p := Program{
		ID:       nextID(programIDs(ld)),
		Type:     Conventional,
		Term:     defaultTermYears,
		Selected: true,
	}
	ld.Programs = append(ld.Programs, p)
	return &ld.Programs[len(ld.Programs)-1]
}

// RemoveProgram deletes a program by id and returns the preferred id to
// carry forward: cleared to 0 when the removed program was preferred,
// unchanged otherwise. Its per-program debt selection goes with it.
func RemoveProgram(ld *LoanData, id, preferredID int64) int64 {
	for i, p := range ld.Programs {
		if p.ID != id {
			continue
		}
		ld.Programs = append(ld.Programs[:i], ld.Programs[i+1:]...)
		delete(ld.DebtSelections, id)
		if preferredID == id {
			return 0
		}
		return preferredID
	}
	return preferredID
}

// MoveProgram shifts a program by delta positions (negative = toward the
// front). Reports whether anything moved; a shift past either end is a
// no-op rather than a clamp.
func MoveProgram(ld *LoanData, id int64, delta int) bool {
	from := -1
	for i, p := range ld.Programs {
		if p.ID == id {
			from = i
			break
		}
	}
	if from < 0 || delta == 0 {
		return false
	}
	to := from + delta
	if to < 0 || to >= len(ld.Programs) {
		return false
	}

	moved := ld.Programs[from]
	ld.Programs = append(ld.Programs[:from], ld.Programs[from+1:]...)
	ld.Programs = append(ld.Programs[:to], append([]Program{moved}, ld.Programs[to:]...)...)
	return true
}

// AddDebt appends a debt that counts toward DTI by default.
func AddDebt(ld *LoanData) *Debt {
	d := Debt{
		ID:           nextID(debtIDs(ld)),
		IncludeInDTI: true,
	}
	ld.Debts = append(ld.Debts, d)
	return &ld.Debts[len(ld.Debts)-1]
}

// RemoveDebt deletes a debt by id and strips it from every per-program
// selection so no selection points at a missing debt.
func RemoveDebt(ld *LoanData, id int64) {
	for i, d := range ld.Debts {
		if d.ID != id {
			continue
		}
		ld.Debts = append(ld.Debts[:i], ld.Debts[i+1:]...)
		break
	}
	for programID, ids := range ld.DebtSelections {
		kept := ids[:0]
		for _, debtID := range ids {
			if debtID != id {
				kept = append(kept, debtID)
			}
		}
		ld.DebtSelections[programID] = kept
	}
}
