package solana

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 100 * time.Millisecond
)

// HTTPClient talks JSON-RPC 2.0 to a Solana node over HTTP.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger
	nextID     atomic.Uint64
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets how many times transport failures are retried.
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// NewHTTPClient creates a client for the given RPC endpoint.
func NewHTTPClient(endpoint string, logger *zap.Logger, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// call issues one RPC, retrying transport errors and 429 responses
// with linear backoff. RPC-level errors are returned immediately.
func (c *HTTPClient) call(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		start := time.Now()
		raw, err := c.post(ctx, body)
		RPCRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				RPCRequestsTotal.WithLabelValues(method, "timeout").Inc()
				return ctx.Err()
			}
			RPCRequestsTotal.WithLabelValues(method, "transport_error").Inc()
			c.logger.Warn("rpc-transport-error",
				zap.String("method", method),
				zap.Int("attempt", attempt),
				zap.Error(err))
			lastErr = err
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			RPCRequestsTotal.WithLabelValues(method, "bad_response").Inc()
			return fmt.Errorf("unmarshal response: %w", err)
		}

		if resp.Error != nil {
			RPCRequestsTotal.WithLabelValues(method, "rpc_error").Inc()
			return fmt.Errorf("rpc %s: %w", method, resp.Error)
		}

		if result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				RPCRequestsTotal.WithLabelValues(method, "bad_result").Inc()
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		RPCRequestsTotal.WithLabelValues(method, "ok").Inc()
		return nil
	}

	return fmt.Errorf("rpc %s after %d attempts: %w", method, c.maxRetries+1, lastErr)
}

func (c *HTTPClient) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return raw, nil
}

// Raw getTransaction layout, jsonParsed disabled.
type rawTransaction struct {
	Slot uint64 `json:"slot"`
	Meta *struct {
		Err               any               `json:"err"`
		LogMessages       []string          `json:"logMessages"`
		PreTokenBalances  []rawTokenBalance `json:"preTokenBalances"`
		PostTokenBalances []rawTokenBalance `json:"postTokenBalances"`
		InnerInstructions []struct {
			Index        int              `json:"index"`
			Instructions []rawInstruction `json:"instructions"`
		} `json:"innerInstructions"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			AccountKeys  []string         `json:"accountKeys"`
			Instructions []rawInstruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

type rawInstruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
}

type rawTokenBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		Amount   string `json:"amount"`
		Decimals uint8  `json:"decimals"`
	} `json:"uiTokenAmount"`
}

// GetTransaction fetches and normalizes a transaction by signature.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	var raw *rawTransaction
	err := c.call(ctx, "getTransaction", []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"commitment":                     string(commitment),
			"maxSupportedTransactionVersion": 0,
		},
	}, &raw)
	if err != nil {
		return nil, err
	}

	// Null result means the node has not seen the signature yet.
	if raw == nil {
		return nil, ErrNotFound
	}

	detail := &types.TransactionDetail{
		Signature:   signature,
		Slot:        raw.Slot,
		Commitment:  commitment,
		AccountKeys: raw.Transaction.Message.AccountKeys,
	}

	keys := raw.Transaction.Message.AccountKeys
	for _, ri := range raw.Transaction.Message.Instructions {
		detail.Instructions = append(detail.Instructions, convertInstruction(ri, keys))
	}

	if raw.Meta != nil {
		detail.Failed = raw.Meta.Err != nil
		detail.LogMessages = raw.Meta.LogMessages
		for _, inner := range raw.Meta.InnerInstructions {
			for _, ri := range inner.Instructions {
				detail.InnerInstructions = append(detail.InnerInstructions, convertInstruction(ri, keys))
			}
		}
		detail.PreTokenBalances = convertBalances(raw.Meta.PreTokenBalances, keys)
		detail.PostTokenBalances = convertBalances(raw.Meta.PostTokenBalances, keys)
	}

	return detail, nil
}

func convertInstruction(ri rawInstruction, keys []string) types.Instruction {
	inst := types.Instruction{Data: ri.Data}
	if ri.ProgramIDIndex >= 0 && ri.ProgramIDIndex < len(keys) {
		inst.ProgramID = keys[ri.ProgramIDIndex]
	}
	for _, idx := range ri.Accounts {
		if idx >= 0 && idx < len(keys) {
			inst.Accounts = append(inst.Accounts, keys[idx])
		}
	}
	return inst
}

func convertBalances(raws []rawTokenBalance, keys []string) []types.TokenBalance {
	var out []types.TokenBalance
	for _, rb := range raws {
		amount, err := strconv.ParseUint(rb.UITokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		tb := types.TokenBalance{
			AccountIndex: rb.AccountIndex,
			Mint:         rb.Mint,
			Owner:        rb.Owner,
			Amount:       amount,
			Decimals:     rb.UITokenAmount.Decimals,
		}
		if rb.AccountIndex >= 0 && rb.AccountIndex < len(keys) {
			tb.Account = keys[rb.AccountIndex]
		}
		out = append(out, tb)
	}
	return out
}

// GetSlot returns the current slot.
func (c *HTTPClient) GetSlot(ctx context.Context, commitment types.Commitment) (uint64, error) {
	var slot uint64
	err := c.call(ctx, "getSlot", []any{
		map[string]any{"commitment": string(commitment)},
	}, &slot)
	if err != nil {
		return 0, err
	}
	return slot, nil
}

type rawTokenAmountResult struct {
	Value struct {
		Amount   string `json:"amount"`
		Decimals uint8  `json:"decimals"`
	} `json:"value"`
}

// GetTokenSupply returns the total supply of a mint.
func (c *HTTPClient) GetTokenSupply(ctx context.Context, mint string) (TokenAmount, error) {
	var raw rawTokenAmountResult
	err := c.call(ctx, "getTokenSupply", []any{mint}, &raw)
	if err != nil {
		return TokenAmount{}, err
	}
	return parseTokenAmount(raw)
}

// GetTokenAccountBalance returns the balance of a token account.
func (c *HTTPClient) GetTokenAccountBalance(ctx context.Context, account string) (TokenAmount, error) {
	var raw rawTokenAmountResult
	err := c.call(ctx, "getTokenAccountBalance", []any{account}, &raw)
	if err != nil {
		return TokenAmount{}, err
	}
	return parseTokenAmount(raw)
}

func parseTokenAmount(raw rawTokenAmountResult) (TokenAmount, error) {
	amount, err := strconv.ParseUint(raw.Value.Amount, 10, 64)
	if err != nil {
		return TokenAmount{}, fmt.Errorf("parse token amount %q: %w", raw.Value.Amount, err)
	}
	return TokenAmount{Amount: amount, Decimals: raw.Value.Decimals}, nil
}
