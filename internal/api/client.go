// Package api is the single HTTP gateway to the storefront REST API.
//
// Every request carries the bearer token currently held in storage. A 401
// or 403 response clears the cached token and user and, outside public
// routes, redirects to the login surface. Failed calls are never retried.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/route"
	"github.com/and161185/storefront/internal/storage"
)

// DefaultTimeout bounds every request unless Options overrides it.
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

// Options configures the gateway.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the storefront API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      storage.Storage
	router     route.Router
	log        *zap.Logger
}

// New constructs a gateway. router may be nil when no navigation exists.
func New(opts Options, store storage.Storage, router route.Router, log *zap.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    NormalizeBaseURL(opts.BaseURL),
		httpClient: hc,
		store:      store,
		router:     router,
		log:        log,
	}
}

// NormalizeBaseURL makes sure the URL ends with "/api/".
func NormalizeBaseURL(u string) string {
	u = strings.TrimSpace(u)
	switch {
	case u == "":
		return ""
	case strings.HasSuffix(u, "/api/"):
		return u
	case strings.HasSuffix(u, "/api"):
		return u + "/"
	case strings.HasSuffix(u, "/"):
		return u + "api/"
	}
	return u + "/api/"
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

type reqConfig struct {
	keepAuthOnForbidden bool
}

type reqOpt func(*reqConfig)

// withoutAuthReset keeps token and user on 403 for lookups where the
// denial carries domain meaning. A 401 still resets.
func withoutAuthReset() reqOpt { return func(r *reqConfig) { r.keepAuthOnForbidden = true } }

// do sends one request. body is nil, a *Multipart or a JSON-encodable value;
// out is nil, *[]byte (raw body) or a JSON target.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...reqOpt) error {
	var rc reqConfig
	for _, o := range opts {
		o(&rc)
	}

	var (
		rdr         io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Multipart:
		r, ct, err := b.encode()
		if err != nil {
			return err
		}
		rdr, contentType = r, ct
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}
	if contentType == "" {
		switch method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimLeft(path, "/"), rdr)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := newRequestID()
	if reqID != "" {
		req.Header.Set(RequestIDHeader, reqID)
	}
	c.addAuthHeader(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ae := transportError(err)
		c.log.Debug("api request failed",
			zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return ae
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: msgNetwork, Err: err}
	}
	if resp.StatusCode >= 400 {
		ae := responseError(resp.StatusCode, raw)
		c.log.Debug("api error",
			zap.String("method", method), zap.String("path", path), zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode), zap.String("message", ae.Message))
		switch {
		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden && !rc.keepAuthOnForbidden:
			c.resetAuth(ctx)
		}
		return ae
	}

	switch o := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*o = raw
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) addAuthHeader(ctx context.Context, req *http.Request) {
	if c.store == nil {
		return
	}
	tok, ok, err := c.store.Get(ctx, storage.KeyToken)
	if err != nil {
		c.log.Warn("read token", zap.Error(err))
		return
	}
	if !ok || strings.TrimSpace(tok) == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+tok)
}

func (c *Client) resetAuth(ctx context.Context) {
	if c.store != nil {
		if err := c.store.Delete(context.WithoutCancel(ctx), storage.KeyToken, storage.KeyUser); err != nil {
			c.log.Warn("clear credentials", zap.Error(err))
		}
	}
	if c.router == nil {
		return
	}
	if !route.IsPublic(c.router.CurrentPath()) {
		c.router.Redirect(route.Login)
	}
}

func transportError(err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Message: msgTimeout, Err: errors.Join(errs.ErrTimeout, err)}
	}
	return &Error{Message: msgNetwork, Err: err}
}

func responseError(status int, raw []byte) *Error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = strings.TrimSpace(body.Message)
		if msg == "" {
			msg = strings.TrimSpace(body.Error)
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		msg = text
	}
	if msg == "" {
		msg = fallbackMessage(status)
	}
	return &Error{Status: status, Message: msg, Code: strings.TrimSpace(body.Code)}
}
