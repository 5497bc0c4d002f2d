package circle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	defaultFetchRetryInterval = 3 * time.Second
	defaultAttestationTimeout = 15 * time.Minute
	maxFetchInterval          = 30 * time.Second
)

// AttestationClient polls Circle's iris api for the attestation of a burn.
type AttestationClient struct {
	client *resty.Client

	retryInterval time.Duration
	timeout       time.Duration
	// number of not found responses tolerated while iris indexes a fresh burn
	notFoundGrace int
}

func NewAttestationClient(cfg types.CircleSettings) *AttestationClient {
	c := &AttestationClient{
		retryInterval: time.Duration(cfg.FetchRetryInterval) * time.Second,
		timeout:       time.Duration(cfg.AttestationTimeout) * time.Second,
		notFoundGrace: cfg.FetchRetries,
	}
	if c.retryInterval <= 0 {
		c.retryInterval = defaultFetchRetryInterval
	}
	if c.timeout <= 0 {
		c.timeout = defaultAttestationTimeout
	}

	c.client = resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.AttestationBaseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(onRetryCondition)
	return c
}

// SetPolling overrides the poll interval and timeout taken from config.
func (c *AttestationClient) SetPolling(interval, timeout time.Duration) *AttestationClient {
	c.retryInterval = interval
	c.timeout = timeout
	return c
}

// Retry request only upon server errors and rate limiting
func onRetryCondition(resp *resty.Response, err error) bool {
	return resp != nil && (resp.StatusCode() >= 500 || resp.StatusCode() == http.StatusTooManyRequests)
}

// FetchAttestation performs a single lookup. It returns ErrAttestationPending while the
// burn awaits signatures and ErrAttestationNotFound when iris has not indexed it.
func (c *AttestationClient) FetchAttestation(
	ctx context.Context,
	logger log.Logger,
	sourceDomain types.Domain,
	txHash string,
) (*types.Attestation, error) {
	logger.Debug(fmt.Sprintf("Checking attestation for source tx %s from domain %d", txHash, sourceDomain))

	var response types.AttestationResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&response).
		SetPathParams(map[string]string{
			"domain": fmt.Sprint(sourceDomain),
			"hash":   txHash,
		}).
		Get("/v1/messages/{domain}/{hash}")
	if err != nil {
		return nil, fmt.Errorf("error during request: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, types.ErrAttestationNotFound
	case !resp.IsSuccess():
		return nil, fmt.Errorf("non 200 response received from Circle's attestation API: %s", resp.Status())
	case len(response.Messages) == 0:
		return nil, types.ErrAttestationNotFound
	}

	msg := response.Messages[0]
	if msg.Attestation == "" || msg.Attestation == types.AttestationPending {
		return nil, types.ErrAttestationPending
	}

	message, err := types.DecodeHex(msg.Message)
	if err != nil {
		return nil, err
	}
	attestation, err := types.DecodeHex(msg.Attestation)
	if err != nil {
		return nil, err
	}
	parsed, err := new(types.Message).Parse(message)
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Attestation found for source tx %s from domain %d", txHash, sourceDomain), "nonce", parsed.Nonce)

	return &types.Attestation{
		Message:     message,
		Attestation: attestation,
		Nonce:       parsed.Nonce,
	}, nil
}

// PollAttestation polls with exponential backoff until the attestation is ready.
// It fails with ErrAttestationTimeout once the configured timeout elapses.
func (c *AttestationClient) PollAttestation(
	ctx context.Context,
	logger log.Logger,
	sourceDomain types.Domain,
	txHash string,
) (*types.Attestation, error) {
	notFound := 0
	operation := func() (*types.Attestation, error) {
		att, err := c.FetchAttestation(ctx, logger, sourceDomain, txHash)
		switch {
		case err == nil:
			return att, nil
		case errors.Is(err, types.ErrAttestationNotFound):
			notFound++
			if notFound > c.notFoundGrace {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		case errors.Is(err, types.ErrMalformedMessage):
			return nil, backoff.Permanent(err)
		default:
			return nil, err
		}
	}

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.retryInterval),
		backoff.WithMaxInterval(maxFetchInterval),
		backoff.WithMaxElapsedTime(c.timeout),
	)

	notify := func(err error, next time.Duration) {
		logger.Debug("Attestation not ready", "tx", txHash, "err", err, "retry_in", next)
	}

	att, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
	switch {
	case err == nil:
		return att, nil
	case errors.Is(err, types.ErrAttestationNotFound), errors.Is(err, types.ErrMalformedMessage):
		return nil, err
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: source tx %s after %s: %w", types.ErrAttestationTimeout, txHash, c.timeout, err)
	}
}
