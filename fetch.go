package seashell

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Fetcher defaults. The retry budget is deliberately small: backoff smooths
// over transient blips but must not mask a persistent failure.
const (
	defaultFetchTimeout  = 30 * time.Second
	defaultFetchTries    = 3
	defaultFetchInterval = 250 * time.Millisecond
)

// fetcher performs one-shot account reads against a JSON-RPC endpoint.
type fetcher struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	tries    uint
	interval time.Duration
	logger   *slog.Logger
}

func newFetcher(endpoint string, client *http.Client, timeout time.Duration, logger *slog.Logger) *fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &fetcher{
		endpoint: endpoint,
		client:   client,
		timeout:  timeout,
		tries:    defaultFetchTries,
		interval: defaultFetchInterval,
		logger:   logger,
	}
}

// fetchAccount reads the current remote state of one account.
//
// Three outcomes are distinguished: an existing account yields its full
// value; an address with no remote account (a legitimate, uninitialized
// state) yields an explicit empty system-owned account; transport or
// protocol failure yields [ErrFetch] after bounded retries.
//
// The whole operation, retries included, is bounded by the fetcher timeout.
func (f *fetcher) fetchAccount(ctx context.Context, addr Address) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Debug("fetching account", "address", addr.String(), "endpoint", f.endpoint)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.interval

	operation := func() (Account, error) {
		return f.fetchOnce(ctx, addr)
	}

	acct, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(f.tries),
	)
	if err != nil {
		return Account{}, &Error{
			Address:  addr.String(),
			Endpoint: f.endpoint,
			Err:      fmt.Errorf("%w: %w", ErrFetch, err),
		}
	}

	return acct, nil
}

// JSON-RPC wire types for getAccountInfo.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Error  *rpcError          `json:"error"`
	Result *accountInfoResult `json:"result"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResult struct {
	Value *rpcAccount `json:"value"`
}

type rpcAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [payload, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

func (f *fetcher) fetchOnce(ctx context.Context, addr Address) (Account, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params:  []any{addr.String(), map[string]string{"encoding": "base64"}},
	})
	if err != nil {
		return Account{}, backoff.Permanent(fmt.Errorf("encoding request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return Account{}, backoff.Permanent(fmt.Errorf("building request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Account{}, fmt.Errorf("calling endpoint: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Account{}, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var parsed rpcResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
	if decodeErr != nil {
		return Account{}, fmt.Errorf("malformed response: %w", decodeErr)
	}

	// A protocol-level rejection won't improve on retry.
	if parsed.Error != nil {
		return Account{}, backoff.Permanent(fmt.Errorf("rpc error %d: %s", parsed.Error.Code, parsed.Error.Message))
	}

	if parsed.Result == nil {
		return Account{}, fmt.Errorf("malformed response: missing result")
	}

	if parsed.Result.Value == nil {
		// Uninitialized address: a legitimate non-error state. Surface it
		// as an explicit empty record rather than an error.
		f.logger.Debug("account does not exist remotely", "address", addr.String())

		return Account{Owner: SystemProgramID}, nil
	}

	return decodeRPCAccount(parsed.Result.Value)
}

func decodeRPCAccount(raw *rpcAccount) (Account, error) {
	owner, err := ParseAddress(raw.Owner)
	if err != nil {
		return Account{}, backoff.Permanent(fmt.Errorf("malformed response: %w", err))
	}

	var data []byte

	if len(raw.Data) > 0 && raw.Data[0] != "" {
		decoded, decodeErr := base64.StdEncoding.DecodeString(raw.Data[0])
		if decodeErr != nil {
			return Account{}, backoff.Permanent(fmt.Errorf("malformed response: decoding account data: %w", decodeErr))
		}

		data = decoded
	}

	return Account{
		Lamports:   raw.Lamports,
		Owner:      owner,
		Data:       data,
		Executable: raw.Executable,
		RentEpoch:  raw.RentEpoch,
	}, nil
}
