package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// ErrConfig indicates missing connection settings. It is fatal: callers
// surface it at startup and never retry.
var ErrConfig = errors.New("ledger: url, database, username and password are required")

// ErrUnauthenticated indicates the remote rejected the credentials.
var ErrUnauthenticated = errors.New("ledger: authentication failed")

// Observer receives timing for every remote call, for metrics wiring.
type Observer func(entity, method string, elapsed time.Duration, err error)

// ClientConfig carries the connection settings for the remote ledger.
type ClientConfig struct {
	URL      string
	Database string
	Username string
	Password string

	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
}

// Client implements Source over the ledger's JSON-RPC endpoint. One
// instance is constructed at process start and injected everywhere a
// Source is needed; there is no ambient singleton.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger

	mu    sync.Mutex
	uid   int64
	reqID atomic.Int64
}

// NewClient validates the configuration and returns an unauthenticated
// client. The first call authenticates lazily.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.URL == "" || cfg.Database == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrConfig
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}, nil
}

type rpcRequest struct {
	Jsonrpc string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	ID      int64          `json:"id"`
	Params  map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	payload := rpcRequest{
		Jsonrpc: "2.0",
		Method:  "call",
		ID:      c.reqID.Add(1),
		Params: map[string]any{
			"service": service,
			"method":  method,
			"args":    args,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ledger: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/jsonrpc", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ledger: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger: %s.%s: %w", service, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ledger: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("ledger: %s.%s: remote error %d: %s", service, method, decoded.Error.Code, decoded.Error.Message)
	}
	return decoded.Result, nil
}

// authenticate resolves and caches the remote user id.
func (c *Client) authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid != 0 {
		return c.uid, nil
	}
	raw, err := c.call(ctx, "common", "authenticate", []any{
		c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{},
	})
	if err != nil {
		return 0, err
	}
	var uid int64
	if err := json.Unmarshal(raw, &uid); err != nil || uid == 0 {
		return 0, ErrUnauthenticated
	}
	c.uid = uid
	c.logger.Info("ledger session established", slog.Int64("uid", uid))
	return uid, nil
}

func (c *Client) execute(ctx context.Context, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.executeOnce(ctx, entity, method, args, kwargs)
	if c.cfg.Observer != nil {
		c.cfg.Observer(entity, method, time.Since(start), err)
	}
	return raw, err
}

func (c *Client) executeOnce(ctx context.Context, entity, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	uid, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.call(ctx, "object", "execute_kw", []any{
		c.cfg.Database, uid, c.cfg.Password, entity, method, args, kwargs,
	})
}

// Count implements Source.
func (c *Client) Count(ctx context.Context, entity string, domain *Domain) (int, error) {
	raw, err := c.execute(ctx, entity, "search_count", []any{domain.Clauses()}, nil)
	if err != nil {
		return 0, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("ledger: decode count: %w", err)
	}
	return count, nil
}

// Read implements Source.
func (c *Client) Read(ctx context.Context, entity string, ids []int64, fields []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := c.execute(ctx, entity, "read", []any{ids}, map[string]any{"fields": fields})
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// SearchRead implements Source.
func (c *Client) SearchRead(ctx context.Context, entity string, domain *Domain, fields []string, opts SearchOptions) ([]Record, error) {
	kwargs := map[string]any{"fields": fields}
	if opts.Limit > 0 {
		kwargs["limit"] = opts.Limit
	}
	if opts.Offset > 0 {
		kwargs["offset"] = opts.Offset
	}
	if opts.Order != "" {
		kwargs["order"] = opts.Order
	}
	raw, err := c.execute(ctx, entity, "search_read", []any{domain.Clauses()}, kwargs)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// ReadGroup implements Source.
func (c *Client) ReadGroup(ctx context.Context, entity string, domain *Domain, aggFields, groupBy []string) ([]Record, error) {
	raw, err := c.execute(ctx, entity, "read_group", []any{domain.Clauses()}, map[string]any{
		"fields":  aggFields,
		"groupby": groupBy,
		"lazy":    false,
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func decodeRecords(raw json.RawMessage) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("ledger: decode records: %w", err)
	}
	return records, nil
}
