package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

var (
	errNonceUsed = errors.New("source domain/nonce has already been used")

	nonceTooLow = regexp.MustCompile("nonce too low: next nonce [0-9]+, tx nonce [0-9]+")
	numberRegex = regexp.MustCompile("[0-9]+")
)

// InitializeBroadcaster seeds the minter account sequence from the rpc.
func (e *Ethereum) InitializeBroadcaster() error {
	nextNonce, err := GetEthereumAccountNonce(e.rpcURL, e.minterAddress)
	if err != nil {
		return fmt.Errorf("unable to retrieve evm account nonce: %w", err)
	}
	e.sequenceMap.Put(e.info.Domain, uint64(nextNonce))

	return nil
}

// Broadcast submits receiveMessage signed by the local minter key, retrying up to the configured attempts.
func (e *Ethereum) Broadcast(ctx context.Context, logger log.Logger, t *types.Transfer) (types.TxRef, error) {
	_, messageTransmitter, err := e.client(ctx)
	if err != nil {
		return types.TxRef{}, err
	}
	if !e.sequenceMap.Has(e.info.Domain) {
		if err := e.InitializeBroadcaster(); err != nil {
			return types.TxRef{}, err
		}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(e.privateKey, big.NewInt(e.info.ChainID))
	if err != nil {
		return types.TxRef{}, fmt.Errorf("unable to create auth: %w", err)
	}
	auth.Context = ctx

	var broadcastErrors error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		ref, err := e.attemptBroadcast(ctx, logger, t, auth, messageTransmitter)
		if err == nil || errors.Is(err, errNonceUsed) {
			return ref, err
		}
		broadcastErrors = errors.Join(broadcastErrors, err)

		// if it's not the last attempt, retry
		if attempt != e.maxRetries {
			logger.Info(fmt.Sprintf("Retrying in %d seconds", e.retryIntervalSeconds))
			select {
			case <-ctx.Done():
				return types.TxRef{}, ctx.Err()
			case <-time.After(time.Duration(e.retryIntervalSeconds) * time.Second):
			}
		}
	}
	broadcastErrors = errors.Join(broadcastErrors, errors.New("reached max number of broadcast attempts"))
	return types.TxRef{}, broadcastErrors
}

func (e *Ethereum) attemptBroadcast(
	ctx context.Context,
	logger log.Logger,
	t *types.Transfer,
	auth *bind.TransactOpts,
	messageTransmitter *bind.BoundContract,
) (types.TxRef, error) {
	logger.Info(fmt.Sprintf(
		"Broadcasting message from %d to %d: with source tx hash %s",
		t.SourceDomain,
		t.DestDomain,
		t.BurnTxHash))

	e.mu.Lock()
	defer e.mu.Unlock()

	nonce := e.sequenceMap.Next(e.info.Domain)
	auth.Nonce = new(big.Int).SetUint64(nonce)

	logger.Debug("Checking if nonce was used for broadcast", "source_domain", t.SourceDomain, "nonce", t.Nonce)

	used, nonceErr := usedNonce(ctx, messageTransmitter, t.SourceDomain, t.Nonce)
	if nonceErr != nil {
		logger.Debug("Error querying whether nonce was used.   Continuing...", "error:", nonceErr)
	} else if used {
		logger.Debug(fmt.Sprintf("This source domain/nonce has already been used: %d %d",
			t.SourceDomain, t.Nonce), "src-tx", t.BurnTxHash)
		return types.TxRef{}, errNonceUsed
	}

	// broadcast txn
	tx, err := messageTransmitter.Transact(auth, "receiveMessage", t.Message, t.Attestation)
	if err == nil {
		logger.Info(fmt.Sprintf("Successfully broadcast %s to %s.  Tx hash: %s", t.BurnTxHash, e.info.Symbol, tx.Hash().Hex()))
		return types.TxRef{Hash: tx.Hash().Hex()}, nil
	}

	logger.Error(fmt.Sprintf("error during broadcast: %s", err.Error()))
	var parsedErr JsonError
	if errors.As(err, &parsedErr) {
		if parsedErr.ErrorCode() == 3 && parsedErr.Error() == "execution reverted: Nonce already used" {
			logger.Error(fmt.Sprintf("This account nonce has already been used: %d", nonce))
			return types.TxRef{}, errNonceUsed
		}

		if nonceTooLow.MatchString(parsedErr.Error()) {
			nextNonce, err := strconv.ParseInt(numberRegex.FindAllString(parsedErr.Error(), 1)[0], 10, 0)
			if err != nil {
				nextNonce, err = GetEthereumAccountNonce(e.rpcURL, e.minterAddress)
				if err != nil {
					logger.Error("unable to retrieve account number")
				}
			}
			e.sequenceMap.Put(e.info.Domain, uint64(nextNonce))
		}
	}

	return types.TxRef{}, err
}

func usedNonce(ctx context.Context, messageTransmitter *bind.BoundContract, sourceDomain types.Domain, nonce uint64) (bool, error) {
	co := &bind.CallOpts{
		Pending: true,
		Context: ctx,
	}

	var out []interface{}
	if err := messageTransmitter.Call(co, &out, "usedNonces", UsedNonceKey(sourceDomain, nonce)); err != nil {
		return false, err
	}
	response := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return response.Uint64() == uint64(1), nil
}

// IsMessageReceived queries the MessageTransmitter usedNonces mapping.
// Without an rpc the chain cannot be probed and every message reads as not received.
func (e *Ethereum) IsMessageReceived(ctx context.Context, sourceDomain types.Domain, nonce uint64) (bool, error) {
	_, messageTransmitter, err := e.client(ctx)
	if errors.Is(err, errNoRPC) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return usedNonce(ctx, messageTransmitter, sourceDomain, nonce)
}

// Confirm waits for a provider transaction to complete, or for the receipt of a locally signed one.
func (e *Ethereum) Confirm(ctx context.Context, logger log.Logger, ref types.TxRef) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	if ref.ID != "" {
		hash, err := e.provider.WaitForTransaction(ctx, ref.ID)
		if err != nil {
			return "", err
		}
		logger.Debug("Transaction confirmed", "chain", e.info.Symbol, "provider_tx", ref.ID, "tx", hash)
		return hash, nil
	}

	client, _, err := e.client(ctx)
	if err != nil {
		return "", err
	}

	operation := func() (*ethtypes.Receipt, error) {
		// not found until mined
		receipt, err := client.TransactionReceipt(ctx, common.HexToHash(ref.Hash))
		if err != nil {
			return nil, err
		}
		if receipt.Status != ethtypes.ReceiptStatusSuccessful {
			return nil, backoff.Permanent(fmt.Errorf("transaction %s reverted", ref.Hash))
		}
		return receipt, nil
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMaxInterval(10*time.Second),
		backoff.WithMaxElapsedTime(e.confirmTimeout),
	)
	receipt, err := backoff.RetryWithData(operation, backoff.WithContext(b, ctx))
	if err != nil {
		return "", err
	}
	logger.Debug("Transaction confirmed", "chain", e.info.Symbol, "tx", ref.Hash, "block", receipt.BlockNumber)
	return receipt.TxHash.Hex(), nil
}
