// Package solana provides a minimal JSON-RPC client for looking up the
// perpetuals program account, with a short-lived response cache. The client
// is stateless apart from that cache and owns no security decisions.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pumpwatch/pumpbot/instrumentation"
)

const (
	// DefaultRPCURL is the devnet RPC endpoint
	DefaultRPCURL = "https://api.devnet.solana.com"

	// DefaultProgramID is the perpetuals program account on devnet
	DefaultProgramID = "7VwAnHYuF5JCXhT9tLWNnbuD6buox8dPCpk7qBrMu3PA"

	// DefaultTimeout is the per-call HTTP timeout
	DefaultTimeout = 10 * time.Second

	// DefaultCacheTTL is how long an account lookup stays cached
	DefaultCacheTTL = 5 * time.Minute

	// networkName identifies the cluster in formatted output
	networkName = "Solana Devnet"
)

// AccountInfo is the decoded result of a getAccountInfo call. Exists is false
// when the account is missing or when the RPC node reported an error; Message
// carries the degraded-path explanation in that case.
type AccountInfo struct {
	Exists     bool
	Lamports   uint64
	Owner      string
	Executable bool
	RentEpoch  uint64
	DataSize   int
	Message    string
}

// ContractInfo is the full lookup result for the configured program
type ContractInfo struct {
	ProgramID   string
	Network     string
	Account     *AccountInfo
	ExplorerURL string
	FetchedAt   time.Time
	Cached      bool
}

// Config holds client configuration
type Config struct {
	// RPCURL is the JSON-RPC endpoint. Default: DefaultRPCURL.
	RPCURL string

	// ProgramID is the account looked up by ContractInfo. Default: DefaultProgramID.
	ProgramID string

	// Timeout is the per-call HTTP timeout. Default: 10 seconds.
	// Ignored when HTTPClient is provided.
	Timeout time.Duration

	// CacheTTL is how long lookups are cached. Default: 5 minutes.
	CacheTTL time.Duration

	// HTTPClient is a custom HTTP client for RPC calls (optional)
	HTTPClient *http.Client

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Tracer for lookup spans (optional, spans are skipped when nil)
	Tracer trace.Tracer
}

// Client is a Solana JSON-RPC client
type Client struct {
	rpcURL    string
	programID string
	client    *http.Client
	cache     *accountCache
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates a client. A nil config uses defaults.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}

	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	programID := cfg.ProgramID
	if programID == "" {
		programID = DefaultProgramID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		rpcURL:    rpcURL,
		programID: programID,
		client:    client,
		cache:     newAccountCache(ttl, 0),
		logger:    logger,
		tracer:    cfg.Tracer,
	}
}

// startSpan starts a lookup span when a tracer is configured
func (c *Client) startSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return c.tracer.Start(ctx, "solana."+operation)
}

// ProgramID returns the account address ContractInfo looks up
func (c *Client) ProgramID() string {
	return c.programID
}

// ContractInfo looks up the configured program account. RPC-level failures
// (node error, missing account) produce a degraded result with
// Account.Exists false; an error is returned only when the transport itself
// fails.
func (c *Client) ContractInfo(ctx context.Context) (*ContractInfo, error) {
	account, cached, err := c.AccountInfo(ctx, c.programID)
	if err != nil {
		return nil, err
	}

	return &ContractInfo{
		ProgramID:   c.programID,
		Network:     networkName,
		Account:     account,
		ExplorerURL: ExplorerURL(c.programID),
		FetchedAt:   time.Now(),
		Cached:      cached,
	}, nil
}

// AccountInfo fetches account state for the given address, consulting the
// short-lived cache first. The second return reports a cache hit.
func (c *Client) AccountInfo(ctx context.Context, address string) (*AccountInfo, bool, error) {
	ctx, span := c.startSpan(ctx, "account_info")
	defer span.End()
	span.SetAttributes(
		attribute.String(instrumentation.AttrRPCMethod, "getAccountInfo"),
		attribute.String(instrumentation.AttrRPCAccount, address),
	)

	if info, ok := c.cache.Get(address); ok {
		c.logger.Debug("Account lookup served from cache", "address", address)
		span.SetAttributes(attribute.Bool(instrumentation.AttrRPCCached, true))
		instrumentation.SetSpanSuccess(span)
		return info, true, nil
	}
	span.SetAttributes(attribute.Bool(instrumentation.AttrRPCCached, false))

	c.logger.Info("Fetching account info", "address", address)

	info, err := c.getAccountInfo(ctx, address)
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, false, err
	}

	c.cache.Set(address, info)
	instrumentation.SetSpanSuccess(span)
	return info, false, nil
}

// rpcRequest is a JSON-RPC 2.0 request envelope
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcError is a JSON-RPC 2.0 error object
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

// accountInfoResult is the result payload of getAccountInfo
type accountInfoResult struct {
	Value *accountValue `json:"value"`
}

// accountValue is the on-chain account state. Data is a [payload, encoding]
// pair; the payload is base64 with the encoding we request.
type accountValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
	Data       []string `json:"data"`
}

func (c *Client) getAccountInfo(ctx context.Context, address string) (*AccountInfo, error) {
	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getAccountInfo",
		Params: []any{
			address,
			map[string]string{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode RPC request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RPC call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RPC returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read RPC response: %w", err)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}

	if envelope.Error != nil {
		// The node answered; degrade rather than fail
		c.logger.Warn("RPC node returned an error",
			"code", envelope.Error.Code,
			"message", envelope.Error.Message)
		return &AccountInfo{
			Message: fmt.Sprintf("RPC error: %s", envelope.Error.Message),
		}, nil
	}

	var result accountInfoResult
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to decode account info: %w", err)
	}

	if result.Value == nil {
		return &AccountInfo{Message: "Account not found"}, nil
	}

	info := &AccountInfo{
		Exists:     true,
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
	}
	if len(result.Value.Data) > 0 {
		if decoded, err := base64.StdEncoding.DecodeString(result.Value.Data[0]); err == nil {
			info.DataSize = len(decoded)
		}
	}

	return info, nil
}

// ExplorerURL returns the explorer link for an address on devnet
func ExplorerURL(address string) string {
	return fmt.Sprintf("https://explorer.solana.com/address/%s?cluster=devnet", address)
}
