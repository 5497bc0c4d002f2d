package types

import (
	"bytes"
	"fmt"

	"github.com/cosmos/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EncodeEVMRecipient places a 20 byte address in the low-order bytes of a bytes32 field,
// the layout the TokenMessenger contract expects for EVM mint recipients.
func EncodeEVMRecipient(address string) ([]byte, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q is not an evm address", ErrInvalidRecipient, address)
	}
	return common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32), nil
}

// DecodeEVMRecipient returns the checksummed address stored in a bytes32 mint recipient.
func DecodeEVMRecipient(bz []byte) (string, error) {
	if len(bz) != 32 {
		return "", fmt.Errorf("%w: recipient is %d bytes", ErrInvalidRecipient, len(bz))
	}
	if !bytes.Equal(bz[:12], make([]byte, 12)) {
		return "", fmt.Errorf("%w: %s has non-zero padding", ErrInvalidRecipient, hexutil.Encode(bz))
	}
	return common.BytesToAddress(bz[12:]).Hex(), nil
}

// EncodeSolanaRecipient converts a base58 public key to its bytes32 form.
func EncodeSolanaRecipient(address string) ([]byte, error) {
	bz := base58.Decode(address)
	if len(bz) != 32 {
		return nil, fmt.Errorf("%w: %q is not a solana address", ErrInvalidRecipient, address)
	}
	return bz, nil
}

// DecodeSolanaRecipient converts a bytes32 recipient back to base58.
func DecodeSolanaRecipient(bz []byte) (string, error) {
	if len(bz) != 32 {
		return "", fmt.Errorf("%w: recipient is %d bytes", ErrInvalidRecipient, len(bz))
	}
	return base58.Encode(bz), nil
}

// SolanaAddressToHex returns the 0x prefixed hex form of a base58 public key.
func SolanaAddressToHex(address string) (string, error) {
	bz, err := EncodeSolanaRecipient(address)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(bz), nil
}

// EncodeRecipient encodes address in the form required by chains of the given family.
func EncodeRecipient(family Family, address string) ([]byte, error) {
	switch family {
	case FamilyEVM:
		return EncodeEVMRecipient(address)
	case FamilySolana:
		return EncodeSolanaRecipient(address)
	default:
		return nil, fmt.Errorf("%w: family %q", ErrUnsupportedChain, family)
	}
}

// DecodeRecipient is the inverse of EncodeRecipient.
func DecodeRecipient(family Family, bz []byte) (string, error) {
	switch family {
	case FamilyEVM:
		return DecodeEVMRecipient(bz)
	case FamilySolana:
		return DecodeSolanaRecipient(bz)
	default:
		return "", fmt.Errorf("%w: family %q", ErrUnsupportedChain, family)
	}
}
