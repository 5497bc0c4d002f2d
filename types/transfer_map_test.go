package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestTransferMapHandling(t *testing.T) {
	transferMap := NewTransferMap(time.Hour)

	burnHash := "0x123456789"
	transfer := Transfer{
		ID:         "abc",
		BurnTxHash: burnHash,
		Amount:     decimal.NewFromInt(10),
		Status:     StatusBurnConfirmed,
		Message:    []byte("i like turtles"),
	}

	transferMap.Store(burnHash, &transfer)

	loaded, ok := transferMap.Load(burnHash)
	require.True(t, ok)
	require.True(t, transfer.Equal(loaded))

	loaded.SetStatus(StatusAttestationReady)

	// Because it is a pointer, no need to re-store to state
	loaded2, _ := transferMap.Load(burnHash)
	require.Equal(t, StatusAttestationReady, loaded2.Status)

	require.Len(t, transferMap.Pending(), 1)

	loaded2.SetStatus(StatusMintConfirmed)
	require.Empty(t, transferMap.Pending())

	transferMap.Delete(burnHash)
	_, ok = transferMap.Load(burnHash)
	require.False(t, ok)
}

func TestTransferMapExpiry(t *testing.T) {
	transferMap := NewTransferMap(10 * time.Millisecond)
	transferMap.Store("k", &Transfer{ID: "k"})

	time.Sleep(30 * time.Millisecond)

	_, ok := transferMap.Load("k")
	require.False(t, ok)
}

func TestTransferCommittedAndMintable(t *testing.T) {
	msg := &Message{SourceDomain: 6, DestinationDomain: 5, Nonce: 42}
	transfer := &Transfer{Status: StatusAttestationReady, Nonce: 42, Message: msg.Bytes()}

	require.False(t, transfer.Committed())
	require.False(t, transfer.Mintable(), "no attestation yet")

	transfer.Attestation = []byte{0x01}
	require.True(t, transfer.Mintable())

	transfer.Nonce = 43
	require.False(t, transfer.Mintable(), "nonce mismatch")

	transfer.SetStatus(StatusMintSubmitted)
	require.True(t, transfer.Committed())
}
