package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/strangelove-ventures/cctp-payroll/metrics"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

// Attester returns the signed message of a burn once it is attested.
type Attester interface {
	PollAttestation(ctx context.Context, logger log.Logger, sourceDomain types.Domain, txHash string) (*types.Attestation, error)
}

// Request describes a payment of Amount from the treasury on SourceChain to
// Recipient on DestinationChain.
type Request struct {
	Treasury         *types.TreasuryWallet
	Recipient        string
	Amount           decimal.Decimal
	SourceChain      string
	DestinationChain string
}

// Orchestrator runs transfers through burn, attestation and mint.
type Orchestrator struct {
	registry  *registry.Registry
	attester  Attester
	transfers *types.TransferMap
	metrics   *metrics.PromMetrics
}

func NewOrchestrator(reg *registry.Registry, attester Attester, transfers *types.TransferMap, m *metrics.PromMetrics) *Orchestrator {
	if transfers == nil {
		transfers = types.NewTransferMap(0)
	}
	return &Orchestrator{
		registry:  reg,
		attester:  attester,
		transfers: transfers,
		metrics:   m,
	}
}

func (o *Orchestrator) strategy(symbol string) (types.Chain, error) {
	chain, err := o.registry.Strategy(symbol)
	if errors.Is(err, types.ErrUnknownChain) {
		return nil, fmt.Errorf("%w: %w", types.ErrUnsupportedChain, err)
	}
	return chain, err
}

// Lookup returns the last recorded state of a transfer by burn tx hash or transfer id.
func (o *Orchestrator) Lookup(key string) (*types.Transfer, bool) {
	return o.transfers.Load(key)
}

// Pending returns the transfers that burned funds without a confirmed mint.
func (o *Orchestrator) Pending() []*types.Transfer {
	return o.transfers.Pending()
}

// record stores a snapshot so readers never observe a transfer mid update.
func (o *Orchestrator) record(t *types.Transfer) {
	cp := *t
	o.transfers.Store(t.ID, &cp)
	if t.BurnTxHash != "" {
		o.transfers.Store(t.BurnTxHash, &cp)
	}
}

func (o *Orchestrator) advance(t *types.Transfer, status types.TransferStatus) {
	t.SetStatus(status)
	o.record(t)
}

func (o *Orchestrator) fail(t *types.Transfer, err error) error {
	t.Error = err.Error()
	o.advance(t, types.StatusFailed)
	o.metrics.IncTransfer(t.SourceChain, t.DestinationChain, string(types.StatusFailed))
	return &types.TransferError{Transfer: t, Err: err}
}

func (o *Orchestrator) complete(t *types.Transfer) *types.Transfer {
	t.Error = ""
	o.advance(t, types.StatusMintConfirmed)
	o.metrics.IncTransfer(t.SourceChain, t.DestinationChain, string(types.StatusMintConfirmed))
	return t
}

// Transfer moves req.Amount to the recipient. Transfers within one chain are a
// direct send; otherwise the amount is burned on the source chain and minted on
// the destination once attested. Failures are returned as *types.TransferError.
func (o *Orchestrator) Transfer(ctx context.Context, logger log.Logger, req Request) (*types.Transfer, error) {
	src, err := o.strategy(req.SourceChain)
	if err != nil {
		return nil, err
	}
	dst, err := o.strategy(req.DestinationChain)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidAmount, req.Amount)
	}

	now := time.Now()
	t := &types.Transfer{
		ID:               uuid.NewString(),
		Treasury:         req.Treasury,
		Recipient:        req.Recipient,
		Amount:           req.Amount,
		SourceChain:      src.Name(),
		DestinationChain: dst.Name(),
		SourceDomain:     src.Domain(),
		DestDomain:       dst.Domain(),
		Status:           types.StatusInit,
		Created:          now,
		Updated:          now,
	}
	logger = logger.With("transfer", t.ID, "source", t.SourceChain, "destination", t.DestinationChain)

	if src.Name() == dst.Name() {
		t.Direct = true
		return o.send(ctx, logger, t, src)
	}

	mintRecipient, err := dst.MintRecipient(ctx, req.Recipient)
	if err != nil {
		return nil, o.fail(t, err)
	}
	// checked while nothing has moved
	if err := dst.MintReady(req.Treasury); err != nil {
		return nil, o.fail(t, fmt.Errorf("%w: %s cannot mint: %w", types.ErrMintFailed, t.DestinationChain, err))
	}
	// nothing has moved yet, the caller may still cancel
	if err := ctx.Err(); err != nil {
		return nil, o.fail(t, err)
	}

	ref, err := src.Burn(ctx, logger, types.BurnRequest{
		Treasury:          req.Treasury,
		Amount:            req.Amount,
		DestinationDomain: dst.Domain(),
		MintRecipient:     mintRecipient,
	})
	if err != nil {
		return nil, o.fail(t, fmt.Errorf("%w: %w", types.ErrBurnFailed, err))
	}
	t.BurnRef = ref
	o.advance(t, types.StatusBurnSubmitted)

	// a submitted burn is seen through to confirmation
	hash, err := src.Confirm(context.WithoutCancel(ctx), logger, ref)
	if err != nil {
		return nil, o.fail(t, fmt.Errorf("%w: burn %s not confirmed: %w", types.ErrBurnFailed, ref.ID, err))
	}
	t.BurnTxHash = hash
	logger = logger.With("burn_tx", hash)
	o.advance(t, types.StatusBurnConfirmed)
	logger.Info(fmt.Sprintf("Burned %s on %s for domain %d", types.FormatAmount(t.Amount), t.SourceChain, t.DestDomain))

	if err := o.attest(ctx, logger, t); err != nil {
		return nil, err
	}
	return o.mint(ctx, logger, t, dst)
}

// ResumeMint completes a transfer whose burn is confirmed. The attestation is
// fetched again when the transfer does not carry one. The source is never burned again.
func (o *Orchestrator) ResumeMint(ctx context.Context, logger log.Logger, t *types.Transfer) (*types.Transfer, error) {
	if t.BurnTxHash == "" {
		return nil, fmt.Errorf("%w: transfer %s has no confirmed burn", types.ErrMintFailed, t.ID)
	}
	if t.Status == types.StatusMintConfirmed {
		return t, nil
	}
	src, err := o.strategy(t.SourceChain)
	if err != nil {
		return nil, err
	}
	dst, err := o.strategy(t.DestinationChain)
	if err != nil {
		return nil, err
	}

	cp := *t
	t = &cp
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Created.IsZero() {
		t.Created = time.Now()
	}
	t.SourceDomain = src.Domain()
	t.DestDomain = dst.Domain()
	logger = logger.With("transfer", t.ID, "source", t.SourceChain, "destination", t.DestinationChain, "burn_tx", t.BurnTxHash)

	if !t.Mintable() {
		if err := o.attest(ctx, logger, t); err != nil {
			return nil, err
		}
	}
	logger.Info("Resuming mint", "nonce", t.Nonce)
	return o.mint(ctx, logger, t, dst)
}

func (o *Orchestrator) attest(ctx context.Context, logger log.Logger, t *types.Transfer) error {
	o.advance(t, types.StatusAttestationPending)

	att, err := o.attester.PollAttestation(ctx, logger, t.SourceDomain, t.BurnTxHash)
	if err != nil {
		return o.fail(t, err)
	}

	msg, err := new(types.Message).Parse(att.Message)
	if err != nil {
		return o.fail(t, err)
	}
	if types.Domain(msg.DestinationDomain) != t.DestDomain {
		return o.fail(t, fmt.Errorf("%w: message targets domain %d, expected %d",
			types.ErrMalformedMessage, msg.DestinationDomain, t.DestDomain))
	}

	t.Message = att.Message
	t.Attestation = att.Attestation
	t.Nonce = msg.Nonce
	o.advance(t, types.StatusAttestationReady)
	return nil
}

// received probes the destination for the transfer's nonce, for mints that
// may have landed despite a reported error.
func (o *Orchestrator) received(ctx context.Context, logger log.Logger, t *types.Transfer, dst types.Chain) bool {
	ok, err := dst.IsMessageReceived(ctx, t.SourceDomain, t.Nonce)
	if err != nil {
		logger.Debug("Unable to check if message was received", "nonce", t.Nonce, "err", err)
		return false
	}
	return ok
}

func (o *Orchestrator) mint(ctx context.Context, logger log.Logger, t *types.Transfer, dst types.Chain) (*types.Transfer, error) {
	if !t.Mintable() {
		return nil, o.fail(t, fmt.Errorf("%w: no attested message for nonce %d", types.ErrMintFailed, t.Nonce))
	}

	// a broadcast mint is committed and runs to confirmation
	ctx = context.WithoutCancel(ctx)

	if o.received(ctx, logger, t, dst) {
		logger.Info("Message already received on destination", "nonce", t.Nonce)
		return o.complete(t), nil
	}

	o.advance(t, types.StatusMintSubmitted)
	ref, err := dst.Mint(ctx, logger, t)
	if err != nil {
		if o.received(ctx, logger, t, dst) {
			logger.Info("Mint reported an error but the message was received", "nonce", t.Nonce, "err", err)
			return o.complete(t), nil
		}
		return nil, o.fail(t, fmt.Errorf("%w: %w", types.ErrMintFailed, err))
	}
	t.MintRef = ref
	o.record(t)

	hash, err := dst.Confirm(ctx, logger, ref)
	if err != nil {
		if o.received(ctx, logger, t, dst) {
			t.MintTxHash = ref.Hash
			return o.complete(t), nil
		}
		return nil, o.fail(t, fmt.Errorf("%w: mint not confirmed: %w", types.ErrMintFailed, err))
	}
	t.MintTxHash = hash

	logger.Info(fmt.Sprintf("Minted %s on %s", types.FormatAmount(t.Amount), t.DestinationChain), "mint_tx", hash, "nonce", t.Nonce)
	return o.complete(t), nil
}

// send pays within a single chain. The send is the whole transfer, so it is
// recorded in the mint fields.
func (o *Orchestrator) send(ctx context.Context, logger log.Logger, t *types.Transfer, chain types.Chain) (*types.Transfer, error) {
	if err := ctx.Err(); err != nil {
		return nil, o.fail(t, err)
	}

	ref, err := chain.Send(ctx, logger, types.SendRequest{
		Treasury:  t.Treasury,
		Recipient: t.Recipient,
		Amount:    t.Amount,
	})
	if err != nil {
		return nil, o.fail(t, fmt.Errorf("%w: %w", types.ErrBurnFailed, err))
	}
	t.MintRef = ref
	o.advance(t, types.StatusMintSubmitted)

	hash, err := chain.Confirm(context.WithoutCancel(ctx), logger, ref)
	if err != nil {
		return nil, o.fail(t, fmt.Errorf("%w: transfer not confirmed: %w", types.ErrMintFailed, err))
	}
	t.MintTxHash = hash

	logger.Info(fmt.Sprintf("Sent %s on %s", types.FormatAmount(t.Amount), t.SourceChain), "tx", hash)
	return o.complete(t), nil
}
