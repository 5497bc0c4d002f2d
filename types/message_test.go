package types_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

func TestMessageParse(t *testing.T) {
	recipient, err := types.EncodeEVMRecipient("0x4996f29b254c77972fff8f25e6f7797b3c9a0eb6")
	require.NoError(t, err)

	body := &types.BurnMessage{
		BurnToken:     common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e").Bytes(),
		MintRecipient: recipient,
		Amount:        big.NewInt(80_000_000),
		MessageSender: common.HexToAddress("0x01").Bytes(),
	}
	msg := &types.Message{
		Version:           0,
		SourceDomain:      6,
		DestinationDomain: 3,
		Nonce:             271828,
		MessageBody:       body.Bytes(),
	}

	parsed, err := new(types.Message).Parse(msg.Bytes())
	require.NoError(t, err)
	require.Equal(t, uint32(6), parsed.SourceDomain)
	require.Equal(t, uint32(3), parsed.DestinationDomain)
	require.Equal(t, uint64(271828), parsed.Nonce)

	parsedBody, err := new(types.BurnMessage).Parse(parsed.MessageBody)
	require.NoError(t, err)
	require.Equal(t, int64(80_000_000), parsedBody.Amount.Int64())
	require.Equal(t, recipient, parsedBody.MintRecipient)
}

func TestMessageParseTooShort(t *testing.T) {
	_, err := new(types.Message).Parse(make([]byte, 115))
	require.ErrorIs(t, err, types.ErrMalformedMessage)

	_, err = new(types.BurnMessage).Parse(make([]byte, 131))
	require.ErrorIs(t, err, types.ErrMalformedMessage)
}

func TestDecodeNonce(t *testing.T) {
	msg := &types.Message{SourceDomain: 5, DestinationDomain: 6, Nonce: 6401}
	encoded := hexutil.Encode(msg.Bytes())

	nonce, err := types.DecodeNonce(encoded)
	require.NoError(t, err)
	require.Equal(t, uint64(6401), nonce)

	// without 0x prefix
	nonce, err = types.DecodeNonce(encoded[2:])
	require.NoError(t, err)
	require.Equal(t, uint64(6401), nonce)

	_, err = types.DecodeNonce("0xzz")
	require.ErrorIs(t, err, types.ErrMalformedMessage)
}
