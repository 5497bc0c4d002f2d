package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

type StopReason string

const StopInsufficientFunds StopReason = "insufficient funds"

type SkipReason string

const (
	SkipAdmin         SkipReason = "admin"
	SkipInvalidSalary SkipReason = "non-positive salary"
	SkipNoWallet      SkipReason = "no wallet"
)

// Line is the split of one employee's salary across the two treasury chains.
type Line struct {
	EmployeeID string
	Salary     decimal.Decimal
	FromSol    decimal.Decimal
	FromBase   decimal.Decimal
}

type Skip struct {
	EmployeeID string
	Reason     SkipReason
}

// Allocation is the outcome of Allocate. When StopReason is set, StoppedAt is
// the employee that could not be funded and no later employee was considered.
type Allocation struct {
	Lines          []Line
	Skipped        []Skip
	StopReason     StopReason
	StoppedAt      string
	TotalAvailable decimal.Decimal
	Total          decimal.Decimal
}

// Allocate splits salaries across the SOL and BASE treasury balances in employee
// order. SOL is drawn first until exhausted, BASE covers the remainder. Admins and
// non-positive salaries are skipped. The batch stops at the first employee whose
// salary would take the running total above the combined balance.
func Allocate(employees []types.Employee, sol, base decimal.Decimal) Allocation {
	a := Allocation{
		TotalAvailable: sol.Add(base),
		Total:          decimal.Zero,
	}
	solLeft := sol

	for _, e := range employees {
		if e.IsAdmin() {
			a.Skipped = append(a.Skipped, Skip{EmployeeID: e.ID, Reason: SkipAdmin})
			continue
		}
		salary, err := types.ParseAmount(e.Salary)
		if err != nil || !salary.IsPositive() {
			a.Skipped = append(a.Skipped, Skip{EmployeeID: e.ID, Reason: SkipInvalidSalary})
			continue
		}

		if a.TotalAvailable.LessThan(salary.Add(a.Total)) {
			a.StopReason = StopInsufficientFunds
			a.StoppedAt = e.ID
			break
		}

		fromSol := decimal.Max(decimal.Min(salary, solLeft), decimal.Zero)
		solLeft = solLeft.Sub(fromSol)

		a.Lines = append(a.Lines, Line{
			EmployeeID: e.ID,
			Salary:     salary,
			FromSol:    fromSol,
			FromBase:   salary.Sub(fromSol),
		})
		a.Total = a.Total.Add(salary)
	}
	return a
}

// Batch returns the allocation as a payroll batch with one disbursement per funded leg.
func (a Allocation) Batch(orgID string, treasury types.TreasurySettings, ts time.Time) types.PayrollBatch {
	batch := types.PayrollBatch{
		OrganisationID: orgID,
		RunTimestamp:   ts,
		TotalAvailable: a.TotalAvailable,
	}
	for _, l := range a.Lines {
		batch.Disbursements = append(batch.Disbursements, l.Disbursements(treasury)...)
	}
	return batch
}

// Disbursements returns the non-zero legs of the line.
func (l Line) Disbursements(treasury types.TreasurySettings) []types.Disbursement {
	var out []types.Disbursement
	if l.FromSol.IsPositive() {
		out = append(out, types.Disbursement{EmployeeID: l.EmployeeID, Amount: l.FromSol, SourceChain: treasury.SolChain})
	}
	if l.FromBase.IsPositive() {
		out = append(out, types.Disbursement{EmployeeID: l.EmployeeID, Amount: l.FromBase, SourceChain: treasury.BaseChain})
	}
	return out
}
