package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

// usedNoncesHeader is the size of the anchor discriminator, remote domain
// and first nonce that precede the bitmap of a used nonces account.
const usedNoncesHeader = 8 + 4 + 8

// GetAccountData returns the raw data of account, or nil when the account does not exist.
func (s *Solana) GetAccountData(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}

	res, err := client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch account %s: %w", account, err)
	}
	return res.GetBinary(), nil
}

// AccountExists reports whether account has been created.
func (s *Solana) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	data, err := s.GetAccountData(ctx, account)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// NonceUsed reads the bit for nonce out of a used nonces account's data.
func NonceUsed(data []byte, nonce uint64) bool {
	if nonce == 0 || len(data) < usedNoncesHeader {
		return false
	}
	idx := nonce - FirstNonce(nonce)
	offset := usedNoncesHeader + int(idx/64)*8
	if len(data) < offset+8 {
		return false
	}
	word := binary.LittleEndian.Uint64(data[offset : offset+8])
	return word&(1<<(idx%64)) != 0
}

// IsMessageReceived checks the Message Transmitter's used nonces account for the nonce.
func (s *Solana) IsMessageReceived(ctx context.Context, sourceDomain types.Domain, nonce uint64) (bool, error) {
	data, err := s.GetAccountData(ctx, s.UsedNoncesAccount(sourceDomain, nonce))
	if err != nil {
		return false, err
	}
	return NonceUsed(data, nonce), nil
}
