package circle

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	defaultRequestTimeout    = 30 * time.Second
	defaultRequestsPerSecond = 5
	defaultTxTimeout         = 20 * time.Minute
	defaultTxPollInterval    = 2 * time.Second

	usdcSymbol = "USDC"
)

// Transaction states reported by the wallets api.
const (
	TxStateInitiated = "INITIATED"
	TxStateQueued    = "QUEUED"
	TxStateSent      = "SENT"
	TxStateConfirmed = "CONFIRMED"
	TxStateComplete  = "COMPLETE"
	TxStateFailed    = "FAILED"
	TxStateCancelled = "CANCELLED"
	TxStateDenied    = "DENIED"
)

var _ types.WalletProvider = (*WalletClient)(nil)

// WalletClient talks to Circle's developer controlled wallets api.
type WalletClient struct {
	client       *resty.Client
	limiter      ratelimit.Limiter
	entitySecret string
	fee          types.FeeConfig

	txPollInterval time.Duration
	txTimeout      time.Duration

	keyMu     sync.Mutex
	publicKey *rsa.PublicKey
}

// APIError is the error body returned by the wallets api.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("circle api error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

func NewWalletClient(cfg types.CircleSettings) *WalletClient {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	w := &WalletClient{
		limiter:        ratelimit.New(rps),
		entitySecret:   cfg.EntitySecret,
		fee:            cfg.Fee,
		txPollInterval: defaultTxPollInterval,
		txTimeout:      defaultTxTimeout,
	}

	w.client = resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.WalletsBaseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(onRetryCondition).
		OnBeforeRequest(w.onRateLimit).
		OnAfterResponse(onStatusToError)
	return w
}

// SetPolling overrides how transactions are awaited.
func (w *WalletClient) SetPolling(interval, timeout time.Duration) *WalletClient {
	w.txPollInterval = interval
	w.txTimeout = timeout
	return w
}

// Blocks until the request fits within the configured rate
func (w *WalletClient) onRateLimit(_ *resty.Client, _ *resty.Request) error {
	w.limiter.Take()
	return nil
}

// Converts HTTP status to errors
func onStatusToError(_ *resty.Client, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
	if e, ok := resp.Error().(*APIError); ok && e.Message != "" {
		apiErr.Code = e.Code
		apiErr.Message = e.Message
	}
	return apiErr
}

type walletSetResponse struct {
	Data struct {
		WalletSet struct {
			ID string `json:"id"`
		} `json:"walletSet"`
	} `json:"data"`
}

func (w *WalletClient) CreateWalletSet(ctx context.Context, name string) (string, error) {
	ciphertext, err := w.entitySecretCiphertext(ctx)
	if err != nil {
		return "", err
	}

	var res walletSetResponse
	if _, err := w.client.R().
		SetContext(ctx).
		SetError(&APIError{}).
		SetResult(&res).
		SetBody(map[string]any{
			"idempotencyKey":         uuid.NewString(),
			"entitySecretCiphertext": ciphertext,
			"name":                   name,
		}).
		Post("/v1/w3s/developer/walletSets"); err != nil {
		return "", fmt.Errorf("unable to create wallet set %q: %w", name, err)
	}
	if res.Data.WalletSet.ID == "" {
		return "", fmt.Errorf("wallet set %q created without an id", name)
	}
	return res.Data.WalletSet.ID, nil
}

type walletsResponse struct {
	Data struct {
		Wallets []types.Wallet `json:"wallets"`
	} `json:"data"`
}

// CreateWallets creates count wallets per chain. Wallets are returned in the order Circle reports them.
func (w *WalletClient) CreateWallets(ctx context.Context, walletSetID string, chains []string, count int) ([]types.Wallet, error) {
	if count <= 0 {
		count = 1
	}
	ciphertext, err := w.entitySecretCiphertext(ctx)
	if err != nil {
		return nil, err
	}

	var res walletsResponse
	if _, err := w.client.R().
		SetContext(ctx).
		SetError(&APIError{}).
		SetResult(&res).
		SetBody(map[string]any{
			"idempotencyKey":         uuid.NewString(),
			"entitySecretCiphertext": ciphertext,
			"walletSetId":            walletSetID,
			"blockchains":            chains,
			"count":                  count,
		}).
		Post("/v1/w3s/developer/wallets"); err != nil {
		return nil, fmt.Errorf("unable to create wallets in set %s: %w", walletSetID, err)
	}
	if len(res.Data.Wallets) != len(chains)*count {
		return nil, fmt.Errorf("expected %d wallets in set %s, got %d", len(chains)*count, walletSetID, len(res.Data.Wallets))
	}
	return res.Data.Wallets, nil
}

type tokenBalance struct {
	Amount string `json:"amount"`
	Token  struct {
		Symbol       string `json:"symbol"`
		TokenAddress string `json:"tokenAddress"`
		Blockchain   string `json:"blockchain"`
	} `json:"token"`
}

type balancesResponse struct {
	Data struct {
		Wallets []struct {
			Address       string         `json:"address"`
			Blockchain    string         `json:"blockchain"`
			TokenBalances []tokenBalance `json:"tokenBalances"`
		} `json:"wallets"`
	} `json:"data"`
}

// GetBalance returns the USDC balance held by address. The token is matched by
// contract address when one is given, by symbol otherwise.
func (w *WalletClient) GetBalance(ctx context.Context, address, chain, tokenAddress string) (decimal.Decimal, error) {
	req := w.client.R().
		SetContext(ctx).
		SetError(&APIError{}).
		SetQueryParams(map[string]string{
			"blockchain": chain,
			"address":    address,
		})
	if tokenAddress != "" {
		req.SetQueryParam("tokenAddress", tokenAddress)
	}

	var res balancesResponse
	if _, err := req.SetResult(&res).Get("/v1/w3s/developer/wallets/balances"); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s on %s: %w", types.ErrBalanceUnavailable, address, chain, err)
	}
	if len(res.Data.Wallets) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no wallet %s on %s", types.ErrBalanceUnavailable, address, chain)
	}

	for _, b := range res.Data.Wallets[0].TokenBalances {
		if !matchesToken(b, tokenAddress) {
			continue
		}
		amount, err := types.ParseAmount(b.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %w", types.ErrBalanceUnavailable, err)
		}
		return amount, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s on %s holds no %s", types.ErrAssetNotFound, address, chain, usdcSymbol)
}

func matchesToken(b tokenBalance, tokenAddress string) bool {
	if tokenAddress != "" && b.Token.TokenAddress != "" {
		return strings.EqualFold(b.Token.TokenAddress, tokenAddress)
	}
	return strings.EqualFold(b.Token.Symbol, usdcSymbol)
}

type transactionResponse struct {
	Data struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"data"`
}

// ExecuteContractCall submits a contract execution signed by the provider.
func (w *WalletClient) ExecuteContractCall(ctx context.Context, call types.ContractCall) (types.TxRef, error) {
	ciphertext, err := w.entitySecretCiphertext(ctx)
	if err != nil {
		return types.TxRef{}, err
	}

	body := map[string]any{
		"idempotencyKey":         uuid.NewString(),
		"entitySecretCiphertext": ciphertext,
		"walletId":               call.WalletID,
		"contractAddress":        call.Contract,
		"abiFunctionSignature":   call.FunctionSignature,
		"abiParameters":          call.Params,
	}
	fee := call.Fee
	if fee == (types.FeeConfig{}) {
		fee = w.fee
	}
	applyFee(body, fee)

	var res transactionResponse
	if _, err := w.client.R().
		SetContext(ctx).
		SetError(&APIError{}).
		SetResult(&res).
		SetBody(body).
		Post("/v1/w3s/developer/transactions/contractExecution"); err != nil {
		return types.TxRef{}, fmt.Errorf("unable to execute %s on %s: %w", call.FunctionSignature, call.Contract, err)
	}
	if res.Data.ID == "" {
		return types.TxRef{}, fmt.Errorf("contract execution %s returned no transaction id", call.FunctionSignature)
	}
	return types.TxRef{ID: res.Data.ID}, nil
}

func applyFee(body map[string]any, fee types.FeeConfig) {
	if fee.GasLimit != "" {
		body["gasLimit"] = fee.GasLimit
		if fee.MaxFee != "" {
			body["maxFee"] = fee.MaxFee
		}
		if fee.PriorityFee != "" {
			body["priorityFee"] = fee.PriorityFee
		}
		return
	}
	level := fee.Level
	if level == "" {
		level = "MEDIUM"
	}
	body["feeLevel"] = level
}

type transactionStatus struct {
	Data struct {
		Transaction struct {
			ID          string `json:"id"`
			State       string `json:"state"`
			TxHash      string `json:"txHash"`
			ErrorReason string `json:"errorReason"`
		} `json:"transaction"`
	} `json:"data"`
}

// Transaction returns the state and on-chain hash of a provider transaction.
func (w *WalletClient) Transaction(ctx context.Context, id string) (state, txHash string, err error) {
	var res transactionStatus
	if _, err := w.client.R().
		SetContext(ctx).
		SetError(&APIError{}).
		SetResult(&res).
		SetPathParam("id", id).
		Get("/v1/w3s/transactions/{id}"); err != nil {
		return "", "", fmt.Errorf("unable to get transaction %s: %w", id, err)
	}
	tx := res.Data.Transaction
	switch tx.State {
	case TxStateFailed, TxStateCancelled, TxStateDenied:
		return tx.State, tx.TxHash, fmt.Errorf("transaction %s %s: %s", id, strings.ToLower(tx.State), tx.ErrorReason)
	}
	return tx.State, tx.TxHash, nil
}

var errTxInFlight = errors.New("transaction in flight")

// WaitForTransaction polls the provider until the transaction completes and returns its hash.
func (w *WalletClient) WaitForTransaction(ctx context.Context, id string) (string, error) {
	operation := func() (string, error) {
		state, hash, err := w.Transaction(ctx, id)
		if err != nil {
			if state != "" {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		if state != TxStateComplete || hash == "" {
			return "", fmt.Errorf("%w: %s is %s", errTxInFlight, id, state)
		}
		return hash, nil
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(w.txPollInterval),
		backoff.WithMaxInterval(15*time.Second),
		backoff.WithMaxElapsedTime(w.txTimeout),
	)
	return backoff.RetryWithData(operation, backoff.WithContext(b, ctx))
}
