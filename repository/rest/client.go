package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/lucidportal/backend/domain"
	"github.com/lucidportal/backend/repository"
)

// nilUUID lets bulk deletes pass the gateway's "no unfiltered delete" guard.
const nilUUID = "00000000-0000-0000-0000-000000000000"

// Config locates the hosted REST gateway.
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithDial replaces the TCP dialer, mostly for in-memory tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) {
		c.http.Dial = dial
	}
}

// Client is a RemoteBackend speaking the PostgREST dialect over HTTP.
type Client struct {
	baseURL string
	key     string
	timeout time.Duration
	http    *fasthttp.Client
	logger  *zap.Logger
}

var _ repository.RemoteBackend = (*Client)(nil)

// NewClient builds a REST client. A missing URL or key leaves it unconfigured.
func NewClient(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.Key,
		timeout: cfg.Timeout,
		http: &fasthttp.Client{
			Name:                     "lucidportal-backend",
			ReadTimeout:              cfg.Timeout,
			WriteTimeout:             cfg.Timeout,
			NoDefaultUserAgentHeader: true,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.key != ""
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, "", nil, nil, "ping")
	return err
}

func (c *Client) Select(ctx context.Context, table string, q repository.Query) ([]repository.Row, error) {
	args := filterArgs(q.Filter)
	args = append(args, [2]string{"select", "*"})
	if q.Order.Column != "" {
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		args = append(args, [2]string{"order", q.Order.Column + "." + dir})
	}
	if q.Limit > 0 {
		args = append(args, [2]string{"limit", strconv.Itoa(q.Limit)})
	}
	body, err := c.do(ctx, fasthttp.MethodGet, table, args, nil, "select")
	if err != nil {
		return nil, err
	}
	return decodeRows(body, "select", table)
}

func (c *Client) Insert(ctx context.Context, table string, rows []repository.Row) ([]repository.Row, error) {
	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "encode rows", err)
	}
	body, err := c.do(ctx, fasthttp.MethodPost, table, nil, payload, "insert")
	if err != nil {
		return nil, err
	}
	return decodeRows(body, "insert", table)
}

func (c *Client) Update(ctx context.Context, table, id string, patch repository.Row) (repository.Row, error) {
	set := make(repository.Row, len(patch))
	for k, v := range patch {
		if k != domain.FieldID {
			set[k] = v
		}
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "encode patch", err)
	}
	args := [][2]string{{domain.FieldID, "eq." + id}}
	body, err := c.do(ctx, fasthttp.MethodPatch, table, args, payload, "update")
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(body, "update", table)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.NewError(domain.ErrCodeNotFound, "update "+table+": no row with id "+id)
	}
	return rows[0], nil
}

// Delete removes the row with id. The deleted representation being empty means
// there was no such row.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	args := [][2]string{{domain.FieldID, "eq." + id}}
	body, err := c.do(ctx, fasthttp.MethodDelete, table, args, nil, "delete")
	if err != nil {
		return err
	}
	rows, err := decodeRows(body, "delete", table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.NewError(domain.ErrCodeNotFound, "delete "+table+": no row with id "+id)
	}
	return nil
}

func (c *Client) DeleteWhere(ctx context.Context, table string, filter map[string]any) error {
	args := filterArgs(filter)
	args = append(args, [2]string{domain.FieldID, "neq." + nilUUID})
	_, err := c.do(ctx, fasthttp.MethodDelete, table, args, nil, "delete")
	return err
}

func (c *Client) do(ctx context.Context, method, table string, args [][2]string, payload []byte, op string) ([]byte, error) {
	if !c.Configured() {
		return nil, domain.ErrRemoteUnavailable
	}
	if table != "" && !domain.ValidIdentifier(table) {
		return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("invalid table %q", table))
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/rest/v1/" + table)
	req.Header.SetMethod(method)
	req.Header.Set("apikey", c.key)
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.key)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if method != fasthttp.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	for _, kv := range args {
		req.URI().QueryArgs().Add(kv[0], kv[1])
	}
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrCodeConnectivity, op+" "+table, err)
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Debug("rest request failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeConnectivity, op+" "+table, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	if status < 200 || status >= 300 {
		return nil, mapStatus(status, body, op, table)
	}
	return body, nil
}

func filterArgs(filter map[string]any) [][2]string {
	args := make([][2]string, 0, len(filter)+3)
	for col, v := range filter {
		if v == nil {
			args = append(args, [2]string{col, "is.null"})
			continue
		}
		args = append(args, [2]string{col, "eq." + formatValue(v)})
	}
	return args
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func decodeRows(body []byte, op, table string) ([]repository.Row, error) {
	if len(body) == 0 {
		return []repository.Row{}, nil
	}
	var rows []repository.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode "+op+" "+table, err)
	}
	return rows, nil
}
