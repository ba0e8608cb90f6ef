package gateway

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

	"github.com/rs/zerolog"
)

// Credentials supplies the bearer token and its session generation.
type Credentials interface {
	Token() string
	Generation() uint64
	Clear() error
}

// Client is the single wrapper through which every backend call flows.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
	log     zerolog.Logger
}

// New creates a Client for the backend rooted at baseURL.
func New(baseURL string, timeout time.Duration, creds Credentials, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	auth    bool
	primary bool
}

// errorBody covers the error shapes the backend uses.
type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// do sends r and returns the raw response body of a 2xx reply.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	gen := c.creds.Generation()

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth {
		if token := c.creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Msg("Backend unreachable")
		return nil, &Error{Kind: KindNetwork, Message: "Network error. Please check your connection and try again.", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "Failed to read server response.", Err: err}
	}

	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Backend call")

	if c.creds.Generation() != gen {
		return nil, ErrStaleSession
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.failure(resp.StatusCode, raw, r.primary)
	}
	return raw, nil
}

func (c *Client) failure(status int, raw []byte, primary bool) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	e := &Error{
		Kind:    classify(status, eb.Errors, primary),
		Status:  status,
		Message: msg,
		Fields:  eb.Errors,
	}
	if e.Kind == KindAuth {
		if err := c.creds.Clear(); err != nil {
			c.log.Error().Err(err).Msg("Failed to clear session after auth failure")
		}
	}
	return e
}

// decode unwraps the `data` envelope when present and decodes into out.
func decode(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		raw = env.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// call is do followed by decode.
func (c *Client) call(ctx context.Context, r request, out any) error {
	raw, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decode(raw, out)
}

// IsStale reports whether err means the response was discarded.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleSession)
}
