// Package api is the gateway's only way to reach the remote booking API.
// One Client serves every role; the role only selects the route prefix.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"servicehub/models"

	"go.uber.org/zap"
)

type cookieKey struct{}

// WithCookie attaches the caller's Cookie header so it is forwarded upstream.
func WithCookie(ctx context.Context, cookie string) context.Context {
	return context.WithValue(ctx, cookieKey{}, cookie)
}

// CookieFrom returns the Cookie header stored by WithCookie.
func CookieFrom(ctx context.Context) string {
	s, _ := ctx.Value(cookieKey{}).(string)
	return s
}

// Client talks to the remote API on behalf of one role.
type Client struct {
	baseURL  string
	role     models.Role
	http     *http.Client
	logger   *zap.Logger
	pageSize int
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *zap.Logger) Option      { return func(c *Client) { c.logger = l } }
func WithPageSize(n int) Option            { return func(c *Client) { c.pageSize = n } }

// NewClient creates a client for role rooted at baseURL.
func NewClient(baseURL string, role models.Role, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		role:     role,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   zap.NewNop(),
		pageSize: 10,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Role returns the role whose routes this client calls.
func (c *Client) Role() models.Role { return c.role }

// PageSize returns the default page size used when a query leaves Limit unset.
func (c *Client) PageSize() int { return c.pageSize }

// WithRole returns a copy of c that calls role's routes.
func (c *Client) WithRole(role models.Role) *Client {
	cp := *c
	cp.role = role
	return &cp
}

// Path builds "/api/{role}/{parts...}".
func (c *Client) Path(parts ...string) string {
	segs := make([]string, 0, len(parts)+2)
	segs = append(segs, "api", string(c.role))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			segs = append(segs, p)
		}
	}
	return "/" + strings.Join(segs, "/")
}

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Do performs one call and decodes the envelope's data field into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindDecode, Op: op, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := CookieFrom(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api: request failed", zap.String("op", op), zap.Error(err))
		return &Error{Kind: KindNetwork, Op: op, Message: "Unable to reach the server", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}
	c.logger.Debug("api: call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 {
		kind := KindServer
		if resp.StatusCode < 500 {
			kind = KindClient
		}
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: msg}
	}
	if decodeErr == nil && env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return &Error{Kind: KindClient, Op: op, Status: http.StatusBadRequest, Message: msg}
	}
	if out == nil {
		return nil
	}
	data := json.RawMessage(raw)
	if decodeErr == nil && len(env.Data) > 0 {
		data = env.Data
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Status: resp.StatusCode, Message: "unexpected response shape", Err: err}
	}
	return nil
}

// Ping checks that the remote API answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("api: health returned %d", resp.StatusCode)
	}
	return nil
}

// decodeItem unwraps {"<key>": {...}} when present, otherwise decodes raw itself.
func decodeItem(raw json.RawMessage, key string, out any) error {
	var wrapped map[string]json.RawMessage
	if key != "" && json.Unmarshal(raw, &wrapped) == nil {
		if inner, ok := wrapped[key]; ok {
			return json.Unmarshal(inner, out)
		}
	}
	if len(raw) == 0 {
		return errors.New("empty data")
	}
	return json.Unmarshal(raw, out)
}
