package types

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownChain        = errors.New("unknown chain")
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrBurnFailed          = errors.New("burn failed")
	ErrAttestationPending  = errors.New("attestation pending")
	ErrAttestationNotFound = errors.New("attestation not found")
	ErrAttestationTimeout  = errors.New("attestation timeout")
	ErrMintFailed          = errors.New("mint failed")
	ErrBalanceUnavailable  = errors.New("balance unavailable")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRecipient    = errors.New("invalid recipient")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrTransferCommitted   = errors.New("transfer committed")
	ErrAssetNotFound       = errors.New("asset not found")
	ErrNotFound            = errors.New("not found")
)

// TransferError carries the transfer as it was when it stopped so callers can resume it.
type TransferError struct {
	Transfer *Transfer
	Err      error
}

func (e *TransferError) Error() string {
	if e.Transfer == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("transfer %s -> %s (status: %s, burn tx: %s): %s",
		e.Transfer.SourceChain, e.Transfer.DestinationChain, e.Transfer.Status, e.Transfer.BurnTxHash, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IsPartial reports whether funds were burned without a confirmed mint.
func (e *TransferError) IsPartial() bool {
	return e.Transfer != nil && e.Transfer.BurnTxHash != "" && e.Transfer.Status != StatusMintConfirmed
}
