package solana

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

var errTransactionPending = errors.New("transaction not finalized")

// sendTransaction signs instructions with the configured wallet, plus any
// additional signers, and submits them.
func (s *Solana) sendTransaction(
	ctx context.Context,
	instructions []solana.Instruction,
	signers ...solana.PrivateKey,
) (solana.Signature, error) {
	owner, err := s.Signer()
	if err != nil {
		return solana.Signature{}, err
	}
	client, err := s.client()
	if err != nil {
		return solana.Signature{}, err
	}

	recent, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("unable to fetch recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("unable to build transaction: %w", err)
	}

	keys := append([]solana.PrivateKey{*s.wallet}, signers...)
	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(key) {
				return &keys[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("unable to sign transaction: %w", err)
	}

	return client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
}

// createTokenAccount returns the instruction creating the USDC token account of
// wallet, or nil when it already exists.
func (s *Solana) createTokenAccount(ctx context.Context, payer, wallet solana.PublicKey) (solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, s.fiatToken)
	if err != nil {
		return nil, err
	}
	exists, err := s.AccountExists(ctx, ata)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}
	return associatedtokenaccount.NewCreateInstruction(payer, wallet, s.fiatToken).Build(), nil
}

// Burn submits depositForBurn of the signer's USDC towards the destination domain.
func (s *Solana) Burn(ctx context.Context, logger log.Logger, req types.BurnRequest) (types.TxRef, error) {
	logger = logger.With("chain", s.info.Symbol, "domain", s.info.Domain)

	owner, err := s.Signer()
	if err != nil {
		return types.TxRef{}, err
	}
	if treasury := req.Treasury.Address(s.info.Symbol); treasury != "" && treasury != owner.String() {
		logger.Info("Treasury address differs from the configured signer, burning from the signer", "treasury", treasury, "signer", owner.String())
	}
	if len(req.MintRecipient) != 32 {
		return types.TxRef{}, fmt.Errorf("%w: mint recipient is %d bytes", types.ErrInvalidRecipient, len(req.MintRecipient))
	}
	units, err := types.ToMinorUnits(req.Amount, s.info.Decimals)
	if err != nil {
		return types.TxRef{}, err
	}
	if !units.IsUint64() {
		return types.TxRef{}, fmt.Errorf("%w: %s overflows u64", types.ErrInvalidAmount, units)
	}

	eventData, err := solana.NewRandomPrivateKey()
	if err != nil {
		return types.TxRef{}, err
	}
	instruction, err := s.NewDepositForBurnInstruction(owner, eventData.PublicKey(), DepositForBurnParams{
		Amount:            units.Uint64(),
		DestinationDomain: uint32(req.DestinationDomain),
		MintRecipient:     solana.PublicKeyFromBytes(req.MintRecipient),
	})
	if err != nil {
		return types.TxRef{}, err
	}

	sig, err := s.sendTransaction(ctx, []solana.Instruction{instruction}, eventData)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit depositForBurn: %w", err)
	}

	logger.Info(fmt.Sprintf("Submitted burn of %s to domain %d", types.FormatAmount(req.Amount), req.DestinationDomain), "tx", sig.String())
	return types.TxRef{Hash: sig.String()}, nil
}

// Mint submits receiveMessage for an attested transfer, creating the
// recipient's token account first when the message mints to it.
func (s *Solana) Mint(ctx context.Context, logger log.Logger, t *types.Transfer) (types.TxRef, error) {
	logger = logger.With("chain", s.info.Symbol, "domain", s.info.Domain)

	payer, err := s.Signer()
	if err != nil {
		return types.TxRef{}, err
	}

	msg, err := new(types.Message).Parse(t.Message)
	if err != nil {
		return types.TxRef{}, err
	}
	body, err := new(types.BurnMessage).Parse(msg.MessageBody)
	if err != nil {
		return types.TxRef{}, err
	}

	var instructions []solana.Instruction
	if recipient, err := solana.PublicKeyFromBase58(t.Recipient); err == nil {
		ata, _, err := solana.FindAssociatedTokenAddress(recipient, s.fiatToken)
		if err == nil && bytes.Equal(ata.Bytes(), body.MintRecipient) {
			create, err := s.createTokenAccount(ctx, payer, recipient)
			if err != nil {
				return types.TxRef{}, err
			}
			if create != nil {
				logger.Debug("Creating recipient token account", "owner", t.Recipient, "account", ata.String())
				instructions = append(instructions, create)
			}
		}
	}

	receive, err := s.NewReceiveMessageInstruction(payer, types.Domain(msg.SourceDomain), msg.Nonce, body, ReceiveMessageParams{
		Message:     t.Message,
		Attestation: t.Attestation,
	})
	if err != nil {
		return types.TxRef{}, err
	}
	instructions = append(instructions, receive)

	logger.Info(fmt.Sprintf(
		"Broadcasting message from %d to %d: with source tx hash %s",
		t.SourceDomain,
		t.DestDomain,
		t.BurnTxHash))

	sig, err := s.sendTransaction(ctx, instructions)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit receiveMessage: %w", err)
	}

	logger.Info(fmt.Sprintf("Successfully broadcast %s to %s.  Tx hash: %s", t.BurnTxHash, s.info.Symbol, sig))
	return types.TxRef{Hash: sig.String()}, nil
}

// Send transfers USDC from the signer's token account to the recipient's.
func (s *Solana) Send(ctx context.Context, logger log.Logger, req types.SendRequest) (types.TxRef, error) {
	owner, err := s.Signer()
	if err != nil {
		return types.TxRef{}, err
	}
	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("%w: %q is not a solana address", types.ErrInvalidRecipient, req.Recipient)
	}
	units, err := types.ToMinorUnits(req.Amount, s.info.Decimals)
	if err != nil {
		return types.TxRef{}, err
	}
	if !units.IsUint64() {
		return types.TxRef{}, fmt.Errorf("%w: %s overflows u64", types.ErrInvalidAmount, units)
	}

	source, _, err := solana.FindAssociatedTokenAddress(owner, s.fiatToken)
	if err != nil {
		return types.TxRef{}, err
	}
	destination, _, err := solana.FindAssociatedTokenAddress(recipient, s.fiatToken)
	if err != nil {
		return types.TxRef{}, err
	}

	var instructions []solana.Instruction
	create, err := s.createTokenAccount(ctx, owner, recipient)
	if err != nil {
		return types.TxRef{}, err
	}
	if create != nil {
		instructions = append(instructions, create)
	}
	instructions = append(instructions, token.NewTransferCheckedInstruction(
		units.Uint64(),
		uint8(s.info.Decimals),
		source,
		s.fiatToken,
		destination,
		owner,
		nil,
	).Build())

	sig, err := s.sendTransaction(ctx, instructions)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit transfer: %w", err)
	}

	logger.Info(fmt.Sprintf("Submitted transfer of %s on %s", types.FormatAmount(req.Amount), s.info.Symbol), "tx", sig.String())
	return types.TxRef{Hash: sig.String()}, nil
}

// Confirm polls the signature status until the transaction is finalized.
func (s *Solana) Confirm(ctx context.Context, logger log.Logger, ref types.TxRef) (string, error) {
	client, err := s.client()
	if err != nil {
		return "", err
	}
	sig, err := solana.SignatureFromBase58(ref.Hash)
	if err != nil {
		return "", fmt.Errorf("invalid signature %q: %w", ref.Hash, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	operation := func() (*rpc.SignatureStatusesResult, error) {
		res, err := client.GetSignatureStatuses(ctx, true, sig)
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, errTransactionPending
		}
		if err != nil {
			return nil, err
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			return nil, errTransactionPending
		}
		status := res.Value[0]
		if status.Err != nil {
			return nil, backoff.Permanent(fmt.Errorf("transaction %s failed: %v", ref.Hash, status.Err))
		}
		if status.ConfirmationStatus != rpc.ConfirmationStatusFinalized {
			return nil, errTransactionPending
		}
		return status, nil
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMaxInterval(10*time.Second),
		backoff.WithMaxElapsedTime(s.confirmTimeout),
	)
	status, err := backoff.RetryWithData(operation, backoff.WithContext(b, ctx))
	if err != nil {
		return "", err
	}

	logger.Debug("Transaction confirmed", "chain", s.info.Symbol, "tx", ref.Hash, "slot", status.Slot)
	return ref.Hash, nil
}
