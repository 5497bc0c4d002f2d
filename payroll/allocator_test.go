package payroll_test

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/cctp-payroll/payroll"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func employee(id, salary string, roles ...types.Role) types.Employee {
	if len(roles) == 0 {
		roles = []types.Role{types.RoleEmployee}
	}
	return types.Employee{ID: id, Username: id, Salary: salary, Roles: roles}
}

func requireLine(t *testing.T, line payroll.Line, id, fromSol, fromBase string) {
	t.Helper()
	require.Equal(t, id, line.EmployeeID)
	require.True(t, line.FromSol.Equal(d(fromSol)), "%s from sol: %s", id, line.FromSol)
	require.True(t, line.FromBase.Equal(d(fromBase)), "%s from base: %s", id, line.FromBase)
}

func TestAllocateStopsOnCumulativeTotal(t *testing.T) {
	a := payroll.Allocate([]types.Employee{
		employee("A", "80"),
		employee("B", "60"),
		employee("C", "20"),
	}, d("100.00"), d("50.00"))

	require.Len(t, a.Lines, 2)
	requireLine(t, a.Lines[0], "A", "80", "0")
	requireLine(t, a.Lines[1], "B", "20", "40")
	require.Equal(t, payroll.StopInsufficientFunds, a.StopReason)
	require.Equal(t, "C", a.StoppedAt)
	require.True(t, a.Total.Equal(d("140")))
	require.True(t, a.TotalAvailable.Equal(d("150")))
}

func TestAllocateSkipsAdminsAndInvalidSalaries(t *testing.T) {
	a := payroll.Allocate([]types.Employee{
		employee("admin", "1000000", types.RoleAdmin),
		employee("both", "10", types.RoleEmployee, types.RoleAdmin),
		employee("zero", "0"),
		employee("negative", "-5"),
		employee("garbage", "NaN"),
		employee("empty", ""),
		employee("paid", "10.5"),
	}, d("5"), d("10"))

	require.Len(t, a.Lines, 1)
	requireLine(t, a.Lines[0], "paid", "5", "5.5")
	require.Empty(t, a.StopReason)
	require.Equal(t, []payroll.Skip{
		{EmployeeID: "admin", Reason: payroll.SkipAdmin},
		{EmployeeID: "both", Reason: payroll.SkipAdmin},
		{EmployeeID: "zero", Reason: payroll.SkipInvalidSalary},
		{EmployeeID: "negative", Reason: payroll.SkipInvalidSalary},
		{EmployeeID: "garbage", Reason: payroll.SkipInvalidSalary},
		{EmployeeID: "empty", Reason: payroll.SkipInvalidSalary},
	}, a.Skipped)
}

func TestAllocateBaseOnly(t *testing.T) {
	a := payroll.Allocate([]types.Employee{employee("A", "30")}, decimal.Zero, d("30"))

	require.Len(t, a.Lines, 1)
	requireLine(t, a.Lines[0], "A", "0", "30")
	require.Empty(t, a.StopReason)
}

func TestAllocateEmptyTreasury(t *testing.T) {
	a := payroll.Allocate([]types.Employee{employee("A", "0.0001")}, decimal.Zero, decimal.Zero)

	require.Empty(t, a.Lines)
	require.Equal(t, "A", a.StoppedAt)
}

func summarize(a payroll.Allocation) string {
	s := fmt.Sprintf("%s@%s total=%s skipped=%v", a.StopReason, a.StoppedAt, a.Total, a.Skipped)
	for _, l := range a.Lines {
		s += fmt.Sprintf(" %s:%s+%s", l.EmployeeID, l.FromSol, l.FromBase)
	}
	return s
}

func TestAllocateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		sol := decimal.New(rng.Int63n(100_000), -2)
		base := decimal.New(rng.Int63n(100_000), -2)

		var employees []types.Employee
		for j := 0; j < rng.Intn(12); j++ {
			var roles []types.Role
			if rng.Intn(5) == 0 {
				roles = []types.Role{types.RoleAdmin}
			}
			employees = append(employees, employee(fmt.Sprintf("e%d", j), decimal.New(rng.Int63n(40_000)-1_000, -2).String(), roles...))
		}

		a := payroll.Allocate(employees, sol, base)
		require.Equal(t, summarize(a), summarize(payroll.Allocate(employees, sol, base)), "allocation is deterministic")

		admins := map[string]bool{}
		for _, e := range employees {
			if e.IsAdmin() {
				admins[e.ID] = true
			}
		}

		fromSol, fromBase := decimal.Zero, decimal.Zero
		for _, l := range a.Lines {
			require.False(t, admins[l.EmployeeID], "admin %s was paid", l.EmployeeID)
			require.True(t, l.FromSol.Add(l.FromBase).Equal(l.Salary))
			require.False(t, l.FromSol.IsNegative())
			require.False(t, l.FromBase.IsNegative())
			fromSol = fromSol.Add(l.FromSol)
			fromBase = fromBase.Add(l.FromBase)
		}
		require.True(t, fromSol.LessThanOrEqual(sol), "sol overdrawn: %s > %s", fromSol, sol)
		require.True(t, fromBase.LessThanOrEqual(base), "base overdrawn: %s > %s", fromBase, base)
	}
}

func TestAllocationBatch(t *testing.T) {
	settings := types.TreasurySettings{SolChain: "SOL-DEVNET", BaseChain: "BASE-SEPOLIA"}
	a := payroll.Allocate([]types.Employee{employee("A", "80"), employee("B", "60")}, d("100"), d("50"))

	ts := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	batch := a.Batch("org-1", settings, ts)

	require.Equal(t, "org-1", batch.OrganisationID)
	require.Equal(t, ts, batch.RunTimestamp)
	require.Len(t, batch.Disbursements, 3)
	require.Equal(t, "SOL-DEVNET", batch.Disbursements[0].SourceChain)
	require.Equal(t, "B", batch.Disbursements[2].EmployeeID)
	require.Equal(t, "BASE-SEPOLIA", batch.Disbursements[2].SourceChain)
	require.True(t, batch.Disbursements[2].Amount.Equal(d("40")))
}
