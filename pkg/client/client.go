package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"messageboard/pkg/api/auth"
	"messageboard/pkg/api/utils"
	"messageboard/pkg/board"
	"messageboard/pkg/codec"
	"messageboard/pkg/models"

	"github.com/valyala/fasthttp"
)

const defaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string
	// Identity is sent as the caller on every request. Required for writes.
	Identity models.Identity
	// SigningKey, when set, signs Identity with HMAC-SHA256.
	SigningKey string
	AdminKey   string
	Timeout    time.Duration
	// HTTP overrides the underlying fasthttp client.
	HTTP *fasthttp.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messageboard: %d %s", e.Status, e.Message)
}

// Client talks to a messageboard server.
type Client struct {
	base    string
	opts    Options
	http    *fasthttp.Client
	timeout time.Duration
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("base url required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	hc := opts.HTTP
	if hc == nil {
		hc = &fasthttp.Client{Name: "boardctl"}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{base: base, opts: opts, http: hc, timeout: timeout}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	if c.opts.Identity != "" {
		req.Header.Set(utils.HeaderIdentity, c.opts.Identity.Hex())
		if c.opts.SigningKey != "" {
			req.Header.Set(utils.HeaderSignature, auth.CreateHMACSignature(c.opts.Identity, c.opts.SigningKey))
		}
	}
	if c.opts.AdminKey != "" {
		req.Header.Set(utils.HeaderAPIKey, c.opts.AdminKey)
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	out := append([]byte(nil), resp.Body()...)
	if status := resp.StatusCode(); status < 200 || status > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(out, &e)
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(out))
		}
		return nil, &APIError{Status: status, Message: e.Error}
	}
	return out, nil
}

func (c *Client) result(ctx context.Context, path string, v any) error {
	data, err := c.do(ctx, fasthttp.MethodGet, path, nil)
	if err != nil {
		return err
	}
	var wrapped struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if err := json.Unmarshal(wrapped.Result, v); err != nil {
		return fmt.Errorf("decode %s result: %w", path, err)
	}
	return nil
}

func (c *Client) receipt(ctx context.Context, path string, body any) (board.Receipt, error) {
	var r board.Receipt
	data, err := c.do(ctx, fasthttp.MethodPost, path, body)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decode receipt: %w", err)
	}
	return r, nil
}

func (c *Client) envelope(ctx context.Context, path string) (codec.Envelope, error) {
	var blob codec.Blob
	if err := c.result(ctx, path, &blob); err != nil {
		return codec.Envelope{}, err
	}
	return codec.DecodeEnvelope(blob)
}

// Post appends text to the broadcast feed.
func (c *Client) Post(ctx context.Context, text string) (board.Receipt, error) {
	return c.receipt(ctx, "/v1/broadcasts", map[string]string{"message": text})
}

// Send appends text to the thread between the caller and to.
func (c *Client) Send(ctx context.Context, to models.Identity, text string) (board.Receipt, error) {
	return c.receipt(ctx, "/v1/messages", map[string]string{"to": to.Hex(), "message": text})
}

// Broadcasts returns up to n of the newest broadcasts.
func (c *Client) Broadcasts(ctx context.Context, n uint64) (codec.Envelope, error) {
	return c.envelope(ctx, "/v1/broadcasts?limit="+strconv.FormatUint(n, 10))
}

// Broadcast returns the i-th newest broadcast as a quoted JSON string, or ""
// when i is out of range.
func (c *Client) Broadcast(ctx context.Context, i uint64) (string, error) {
	var s string
	err := c.result(ctx, "/v1/broadcasts/"+strconv.FormatUint(i, 10), &s)
	return s, err
}

func (c *Client) Messages(ctx context.Context, a, b models.Identity, n uint64) (codec.Envelope, error) {
	return c.envelope(ctx, threadPath(a, b)+"?limit="+strconv.FormatUint(n, 10))
}

func (c *Client) Message(ctx context.Context, a, b models.Identity, i uint64) (string, error) {
	var s string
	err := c.result(ctx, threadPath(a, b)+"/"+strconv.FormatUint(i, 10), &s)
	return s, err
}

func (c *Client) Friends(ctx context.Context, x models.Identity) ([]models.Identity, error) {
	var blob codec.Blob
	if err := c.result(ctx, "/v1/friends/"+x.Hex(), &blob); err != nil {
		return nil, err
	}
	return codec.DecodeFriends(blob)
}

func (c *Client) FriendsString(ctx context.Context, x models.Identity) (string, error) {
	var s string
	err := c.result(ctx, "/v1/friends/"+x.Hex()+"/string", &s)
	return s, err
}

func (c *Client) CharLimit(ctx context.Context) (int, error) {
	var n int
	err := c.result(ctx, "/v1/char-limit", &n)
	return n, err
}

// Stats fetches the admin counters. Requires AdminKey when the server has
// admin keys configured.
func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	data, err := c.do(ctx, fasthttp.MethodGet, "/admin/stats", nil)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

// Backup asks the server to take a checkpoint now.
func (c *Client) Backup(ctx context.Context) (models.BackupResult, error) {
	var res models.BackupResult
	data, err := c.do(ctx, fasthttp.MethodPost, "/admin/backup", nil)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("decode backup result: %w", err)
	}
	return res, nil
}

func threadPath(a, b models.Identity) string {
	return "/v1/threads/" + a.Hex() + "/" + b.Hex() + "/messages"
}
