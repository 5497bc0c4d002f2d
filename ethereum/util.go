package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

type JsonError interface {
	Error() string
	ErrorCode() int
	ErrorData() interface{}
}

func GetEthereumAccountNonce(endpoint string, address string) (int64, error) {
	client, err := rpc.Dial(endpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to Ethereum RPC at %s: %v", endpoint, err)
	}
	defer client.Close()

	var result string
	if err := client.Call(&result, "eth_getTransactionCount", address, "pending"); err != nil {
		return 0, fmt.Errorf("failed to get transaction count: %v", err)
	}

	nonce, ok := new(big.Int).SetString(result[2:], 16) // Removing "0x" prefix
	if !ok {
		return 0, fmt.Errorf("invalid transaction count %q", result)
	}
	return nonce.Int64(), nil
}

// GetEcdsaKeyAddress returns the public ecdsa key and address given the private key
func GetEcdsaKeyAddress(privateKey string) (*ecdsa.PrivateKey, string, error) {
	privEcdsaKey, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return nil, "", errors.New("unable to convert private key hex to ecdsa")
	}

	publicKey := privEcdsaKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, "", errors.New("error casting public key to ECDSA")
	}

	return privEcdsaKey, crypto.PubkeyToAddress(*publicKeyECDSA).Hex(), nil
}

// UsedNonceKey is the MessageTransmitter usedNonces key of a source domain and nonce.
func UsedNonceKey(sourceDomain types.Domain, nonce uint64) [32]byte {
	key := append(
		common.LeftPadBytes((big.NewInt(int64(sourceDomain))).Bytes(), 4),
		common.LeftPadBytes(new(big.Int).SetUint64(nonce).Bytes(), 8)...,
	)
	return [32]byte(crypto.Keccak256(key))
}
