package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/transfer"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Directory is the organisation and employee store payroll reads and updates.
type Directory interface {
	ListPayableOrganisations(ctx context.Context) ([]types.Organisation, error)
	ListActiveEmployees(ctx context.Context, orgID string) ([]types.Employee, error)
	RecordDisbursement(ctx context.Context, orgID string, disbursement types.Disbursement) error
	UpdateTreasuryBalances(ctx context.Context, orgID string, balances map[string]string) error
}

// Transferer moves funds from a treasury to an employee wallet.
type Transferer interface {
	Transfer(ctx context.Context, logger log.Logger, req transfer.Request) (*types.Transfer, error)
}

// BalanceReader reads both sides of a treasury.
type BalanceReader interface {
	TreasuryBalances(ctx context.Context, logger log.Logger, treasury *types.TreasuryWallet) (sol, base decimal.Decimal)
}

// Result is the outcome of one organisation's payroll run. Disbursed, Skipped
// and Failed count employees.
type Result struct {
	OrganisationID string     `json:"organisation_id"`
	Disbursed      int        `json:"disbursed"`
	Skipped        int        `json:"skipped"`
	Failed         int        `json:"failed"`
	StopReason     StopReason `json:"stop_reason,omitempty"`
	StoppedAt      string     `json:"stopped_at,omitempty"`
	// set when the organisation was not run
	Reason string             `json:"reason,omitempty"`
	Batch  types.PayrollBatch `json:"batch"`
}

// Runner pays one organisation at a time. Runs for the same organisation are
// never concurrent; a second caller joins the run in flight.
type Runner struct {
	directory Directory
	balances  BalanceReader
	transfers Transferer
	treasury  types.TreasurySettings
	metrics   *metrics.PromMetrics

	transferTimeout time.Duration
	enforcePayDay   bool
	now             func() time.Time

	group singleflight.Group
}

func NewRunner(
	directory Directory,
	balances BalanceReader,
	transfers Transferer,
	treasury types.TreasurySettings,
	settings types.PayrollSettings,
	m *metrics.PromMetrics,
) *Runner {
	return &Runner{
		directory:       directory,
		balances:        balances,
		transfers:       transfers,
		treasury:        treasury,
		metrics:         m,
		transferTimeout: time.Duration(settings.TransferTimeout) * time.Second,
		enforcePayDay:   settings.EnforcePayDay,
		now:             time.Now,
	}
}

// SetClock replaces the clock used for pay day checks and batch timestamps.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// RunOrganisation pays the active employees of org from its treasury. Failed
// transfers are counted and logged; they never stop the rest of the batch.
func (r *Runner) RunOrganisation(ctx context.Context, logger log.Logger, org types.Organisation) (Result, error) {
	v, err, _ := r.group.Do(org.ID, func() (any, error) {
		return r.run(ctx, logger.With("organisation", org.ID), org)
	})
	// a run stopped part way still reports what it paid
	res, _ := v.(Result)
	res.OrganisationID = org.ID
	return res, err
}

func (r *Runner) run(ctx context.Context, logger log.Logger, org types.Organisation) (Result, error) {
	res := Result{OrganisationID: org.ID}
	now := r.now()

	if r.enforcePayDay && org.PayDay != now.Day() {
		res.Reason = fmt.Sprintf("pay day is %d", org.PayDay)
		return res, nil
	}
	if !org.Treasury.Provisioned() {
		res.Reason = "no treasury"
		logger.Info("Organisation has no treasury, skipping")
		return res, nil
	}

	employees, err := r.directory.ListActiveEmployees(ctx, org.ID)
	if err != nil {
		return res, fmt.Errorf("unable to list employees of organisation %s: %w", org.ID, err)
	}
	if len(employees) == 0 {
		res.Reason = "no active employees"
		return res, nil
	}

	// employees without a payout wallet take no share of the treasury
	payable := make([]types.Employee, 0, len(employees))
	byID := make(map[string]types.Employee, len(employees))
	for _, e := range employees {
		if e.Wallet == nil || e.Wallet.Address == "" || e.Wallet.Chain == "" {
			logger.Info("Employee has no wallet, skipping", "employee", e.ID)
			res.Skipped++
			continue
		}
		payable = append(payable, e)
		byID[e.ID] = e
	}

	sol, base := r.balances.TreasuryBalances(ctx, logger, org.Treasury)
	allocation := Allocate(payable, sol, base)
	res.Skipped += len(allocation.Skipped)
	res.Batch = allocation.Batch(org.ID, r.treasury, now)

	logger.Info(fmt.Sprintf("Running payroll for %d employees", len(allocation.Lines)),
		"sol", types.FormatAmount(sol), "base", types.FormatAmount(base), "total", types.FormatAmount(allocation.Total))

	remaining := map[string]decimal.Decimal{
		r.treasury.SolChain:  sol,
		r.treasury.BaseChain: base,
	}
	for _, line := range allocation.Lines {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		e := byID[line.EmployeeID]
		if r.disburse(ctx, logger.With("employee", e.ID), org, e, line, remaining) {
			res.Disbursed++
			r.metrics.IncDisbursement(org.ID, "disbursed")
		} else {
			res.Failed++
			r.metrics.IncDisbursement(org.ID, "failed")
		}
	}

	if allocation.StopReason != "" {
		res.StopReason = allocation.StopReason
		res.StoppedAt = allocation.StoppedAt
		logger.Info(fmt.Sprintf("Payroll stopped: %s", allocation.StopReason), "employee", allocation.StoppedAt)
	}
	return res, nil
}

// disburse pays each leg of line and persists what was paid. It reports whether every leg succeeded.
func (r *Runner) disburse(
	ctx context.Context,
	logger log.Logger,
	org types.Organisation,
	e types.Employee,
	line Line,
	remaining map[string]decimal.Decimal,
) bool {
	ok := true
	for _, leg := range line.Disbursements(r.treasury) {
		if err := r.pay(ctx, logger, org, e, leg); err != nil {
			ok = false
			var te *types.TransferError
			if errors.As(err, &te) && te.IsPartial() {
				logger.Error("Funds burned without a confirmed mint", "source", leg.SourceChain, "burn_tx", te.Transfer.BurnTxHash, "err", err)
			} else {
				logger.Error("Disbursement failed", "source", leg.SourceChain, "amount", types.FormatAmount(leg.Amount), "err", err)
			}
			continue
		}

		remaining[leg.SourceChain] = remaining[leg.SourceChain].Sub(leg.Amount)
		if err := r.directory.RecordDisbursement(ctx, org.ID, leg); err != nil {
			logger.Error("Unable to record disbursement", "source", leg.SourceChain, "err", err)
		}
		balances := make(map[string]string, len(remaining))
		for chain, bal := range remaining {
			balances[chain] = types.FormatAmount(bal)
		}
		if err := r.directory.UpdateTreasuryBalances(ctx, org.ID, balances); err != nil {
			logger.Error("Unable to update treasury balances", "err", err)
		}
	}
	return ok
}

func (r *Runner) pay(ctx context.Context, logger log.Logger, org types.Organisation, e types.Employee, leg types.Disbursement) error {
	if r.transferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.transferTimeout)
		defer cancel()
	}

	t, err := r.transfers.Transfer(ctx, logger, transfer.Request{
		Treasury:         org.Treasury,
		Recipient:        e.Wallet.Address,
		Amount:           leg.Amount,
		SourceChain:      leg.SourceChain,
		DestinationChain: e.Wallet.Chain,
	})
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Paid %s from %s to %s", types.FormatAmount(leg.Amount), leg.SourceChain, e.Wallet.Chain),
		"burn_tx", t.BurnTxHash, "mint_tx", t.MintTxHash)
	return nil
}
