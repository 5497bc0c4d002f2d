package types

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	StatusInit               TransferStatus = "INIT"
	StatusBurnSubmitted      TransferStatus = "BURN_SUBMITTED"
	StatusBurnConfirmed      TransferStatus = "BURN_CONFIRMED"
	StatusAttestationPending TransferStatus = "ATTESTATION_PENDING"
	StatusAttestationReady   TransferStatus = "ATTESTATION_READY"
	StatusMintSubmitted      TransferStatus = "MINT_SUBMITTED"
	StatusMintConfirmed      TransferStatus = "MINT_CONFIRMED"
	StatusFailed             TransferStatus = "FAILED"
)

// TxRef identifies a submitted transaction. ID is the wallet provider's
// transaction id when the provider signed it; Hash is the on-chain hash once known.
type TxRef struct {
	ID   string `json:"id,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// Transfer is the state of a single bridge transfer, keyed by its burn tx hash once submitted.
type Transfer struct {
	ID               string          `json:"id"`
	Treasury         *TreasuryWallet `json:"-"`
	Recipient        string          `json:"recipient"`
	Amount           decimal.Decimal `json:"amount"`
	SourceChain      string          `json:"source_chain"`
	DestinationChain string          `json:"destination_chain"`
	SourceDomain     Domain          `json:"source_domain"`
	DestDomain       Domain          `json:"dest_domain"`
	Direct           bool            `json:"direct"`

	Status      TransferStatus `json:"status"`
	BurnRef     TxRef          `json:"burn_ref"`
	BurnTxHash  string         `json:"burn_tx_hash,omitempty"`
	MintRef     TxRef          `json:"mint_ref"`
	MintTxHash  string         `json:"mint_tx_hash,omitempty"`
	Message     []byte         `json:"message,omitempty"`
	Attestation []byte         `json:"attestation,omitempty"`
	Nonce       uint64         `json:"nonce"`
	Error       string         `json:"error,omitempty"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// SetStatus moves the transfer to status s.
func (t *Transfer) SetStatus(s TransferStatus) {
	t.Status = s
	t.Updated = time.Now()
}

// Committed reports whether a mint may already be on chain. Committed transfers must not be cancelled.
func (t *Transfer) Committed() bool {
	return t.Status == StatusMintSubmitted || t.Status == StatusMintConfirmed
}

// Mintable reports whether the transfer holds an attestation for a message carrying its nonce.
func (t *Transfer) Mintable() bool {
	if len(t.Attestation) == 0 || len(t.Message) == 0 {
		return false
	}
	msg, err := new(Message).Parse(t.Message)
	if err != nil {
		return false
	}
	return msg.Nonce == t.Nonce
}

// Equal checks if two transfers describe the same protocol state.
func (t *Transfer) Equal(other *Transfer) bool {
	return t.ID == other.ID &&
		t.Status == other.Status &&
		t.BurnTxHash == other.BurnTxHash &&
		t.MintTxHash == other.MintTxHash &&
		t.Nonce == other.Nonce &&
		t.Amount.Equal(other.Amount) &&
		bytes.Equal(t.Message, other.Message) &&
		bytes.Equal(t.Attestation, other.Attestation)
}
