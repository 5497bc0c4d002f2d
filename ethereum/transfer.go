package ethereum

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	approveSignature        = "approve(address,uint256)"
	transferSignature       = "transfer(address,uint256)"
	depositForBurnSignature = "depositForBurn(uint256,uint32,bytes32,address)"
	receiveMessageSignature = "receiveMessage(bytes,bytes)"
)

func (e *Ethereum) treasuryWallet(treasury *types.TreasuryWallet) (string, error) {
	walletID := treasury.WalletID(e.info.Symbol)
	if walletID == "" {
		return "", fmt.Errorf("treasury has no wallet on %s", e.info.Symbol)
	}
	return walletID, nil
}

// Burn approves the TokenMessenger to spend the amount and submits depositForBurn,
// both signed by the treasury's custodial wallet.
func (e *Ethereum) Burn(ctx context.Context, logger log.Logger, req types.BurnRequest) (types.TxRef, error) {
	logger = logger.With("chain", e.info.Symbol, "chain_id", e.info.ChainID, "domain", e.info.Domain)

	walletID, err := e.treasuryWallet(req.Treasury)
	if err != nil {
		return types.TxRef{}, err
	}
	units, err := types.ToMinorUnits(req.Amount, e.info.Decimals)
	if err != nil {
		return types.TxRef{}, err
	}
	if len(req.MintRecipient) != 32 {
		return types.TxRef{}, fmt.Errorf("%w: mint recipient is %d bytes", types.ErrInvalidRecipient, len(req.MintRecipient))
	}

	approval, err := e.provider.ExecuteContractCall(ctx, types.ContractCall{
		WalletID:          walletID,
		Contract:          e.info.USDC,
		FunctionSignature: approveSignature,
		Params:            []any{e.info.TokenMessenger, units.String()},
	})
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to approve token messenger: %w", err)
	}
	approvalHash, err := e.provider.WaitForTransaction(ctx, approval.ID)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("approval %s did not complete: %w", approval.ID, err)
	}
	logger.Debug("Token messenger approved", "tx", approvalHash, "amount", units.String())

	burn, err := e.provider.ExecuteContractCall(ctx, types.ContractCall{
		WalletID:          walletID,
		Contract:          e.info.TokenMessenger,
		FunctionSignature: depositForBurnSignature,
		Params: []any{
			units.String(),
			fmt.Sprint(uint32(req.DestinationDomain)),
			hexutil.Encode(req.MintRecipient),
			e.info.USDC,
		},
	})
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit depositForBurn: %w", err)
	}

	logger.Info(fmt.Sprintf("Submitted burn of %s to domain %d", types.FormatAmount(req.Amount), req.DestinationDomain), "provider_tx", burn.ID)
	return burn, nil
}

// Send pays recipient from the treasury without bridging.
func (e *Ethereum) Send(ctx context.Context, logger log.Logger, req types.SendRequest) (types.TxRef, error) {
	walletID, err := e.treasuryWallet(req.Treasury)
	if err != nil {
		return types.TxRef{}, err
	}
	if !common.IsHexAddress(req.Recipient) {
		return types.TxRef{}, fmt.Errorf("%w: %q is not an evm address", types.ErrInvalidRecipient, req.Recipient)
	}
	units, err := types.ToMinorUnits(req.Amount, e.info.Decimals)
	if err != nil {
		return types.TxRef{}, err
	}

	ref, err := e.provider.ExecuteContractCall(ctx, types.ContractCall{
		WalletID:          walletID,
		Contract:          e.info.USDC,
		FunctionSignature: transferSignature,
		Params:            []any{common.HexToAddress(req.Recipient).Hex(), units.String()},
	})
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit transfer: %w", err)
	}

	logger.Info(fmt.Sprintf("Submitted transfer of %s on %s", types.FormatAmount(req.Amount), e.info.Symbol), "provider_tx", ref.ID)
	return ref, nil
}

// MintReady requires a local minter key or a treasury wallet on this chain.
func (e *Ethereum) MintReady(treasury *types.TreasuryWallet) error {
	if e.privateKey != nil {
		return nil
	}
	if _, err := e.treasuryWallet(treasury); err != nil {
		return fmt.Errorf("no minter key configured and %w", err)
	}
	return nil
}

// Mint calls receiveMessage with the local minter key when one is configured,
// otherwise through the treasury's custodial wallet on this chain.
func (e *Ethereum) Mint(ctx context.Context, logger log.Logger, t *types.Transfer) (types.TxRef, error) {
	logger = logger.With("chain", e.info.Symbol, "chain_id", e.info.ChainID, "domain", e.info.Domain)

	if e.privateKey != nil {
		return e.Broadcast(ctx, logger, t)
	}

	walletID, err := e.treasuryWallet(t.Treasury)
	if err != nil {
		return types.TxRef{}, fmt.Errorf("no minter key configured and %w", err)
	}

	logger.Info(fmt.Sprintf(
		"Broadcasting message from %d to %d: with source tx hash %s",
		t.SourceDomain,
		t.DestDomain,
		t.BurnTxHash))

	ref, err := e.provider.ExecuteContractCall(ctx, types.ContractCall{
		WalletID:          walletID,
		Contract:          e.info.MessageTransmitter,
		FunctionSignature: receiveMessageSignature,
		Params:            []any{hexutil.Encode(t.Message), hexutil.Encode(t.Attestation)},
	})
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to submit receiveMessage: %w", err)
	}
	return ref, nil
}
