package ethereum

import (
	"context"
	"crypto/ecdsa"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

//go:embed abi/MessageTransmitter.json
var content embed.FS

var _ types.Chain = (*Ethereum)(nil)

const defaultConfirmTimeout = 5 * time.Minute

type Ethereum struct {
	// from config
	info                 types.ChainInfo
	rpcURL               string
	privateKey           *ecdsa.PrivateKey
	minterAddress        string
	maxRetries           int
	retryIntervalSeconds int
	confirmTimeout       time.Duration

	provider    types.WalletProvider
	sequenceMap *types.SequenceMap

	mu sync.Mutex

	rpcClient          *ethclient.Client
	messageTransmitter *bind.BoundContract
}

func NewChain(
	info types.ChainInfo,
	provider types.WalletProvider,
	rpcURL string,
	privateKey string,
	maxRetries int,
	retryIntervalSeconds int,
	confirmTimeoutSeconds int,
) (*Ethereum, error) {
	if !common.IsHexAddress(info.MessageTransmitter) {
		return nil, fmt.Errorf("invalid message transmitter address %q for %s", info.MessageTransmitter, info.Symbol)
	}

	e := &Ethereum{
		info:                 info,
		rpcURL:               rpcURL,
		maxRetries:           maxRetries,
		retryIntervalSeconds: retryIntervalSeconds,
		confirmTimeout:       time.Duration(confirmTimeoutSeconds) * time.Second,
		provider:             provider,
		sequenceMap:          types.NewSequenceMap(),
	}
	if e.confirmTimeout <= 0 {
		e.confirmTimeout = defaultConfirmTimeout
	}

	if privateKey != "" {
		privEcdsaKey, ethereumAddress, err := GetEcdsaKeyAddress(strings.TrimPrefix(privateKey, "0x"))
		if err != nil {
			return nil, err
		}
		e.privateKey = privEcdsaKey
		e.minterAddress = ethereumAddress
	}
	return e, nil
}

func (e *Ethereum) Name() string {
	return e.info.Symbol
}

func (e *Ethereum) Family() types.Family {
	return types.FamilyEVM
}

func (e *Ethereum) Domain() types.Domain {
	return e.info.Domain
}

// MinterAddress is the address of the local minter key, empty when mints go through the wallet provider.
func (e *Ethereum) MinterAddress() string {
	return e.minterAddress
}

func (e *Ethereum) MintRecipient(_ context.Context, address string) ([]byte, error) {
	return types.EncodeEVMRecipient(address)
}

var errNoRPC = errors.New("no rpc configured")

// client lazily dials the configured rpc endpoint.
func (e *Ethereum) client(ctx context.Context) (*ethclient.Client, *bind.BoundContract, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rpcClient != nil {
		return e.rpcClient, e.messageTransmitter, nil
	}
	if e.rpcURL == "" {
		return nil, nil, fmt.Errorf("%w for %s", errNoRPC, e.info.Symbol)
	}

	rpcClient, err := ethclient.DialContext(ctx, e.rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to initialize rpc ethereum client; err: %w", err)
	}

	messageTransmitterABI, err := content.ReadFile("abi/MessageTransmitter.json")
	if err != nil {
		rpcClient.Close()
		return nil, nil, fmt.Errorf("unable to read MessageTransmitter abi: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(string(messageTransmitterABI)))
	if err != nil {
		rpcClient.Close()
		return nil, nil, fmt.Errorf("unable to parse MessageTransmitter abi: %w", err)
	}

	e.rpcClient = rpcClient
	e.messageTransmitter = bind.NewBoundContract(
		common.HexToAddress(e.info.MessageTransmitter), parsed, rpcClient, rpcClient, rpcClient)
	return e.rpcClient, e.messageTransmitter, nil
}

func (e *Ethereum) CloseClients() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rpcClient != nil {
		e.rpcClient.Close()
		e.rpcClient = nil
	}
	return nil
}
