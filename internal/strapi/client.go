package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/fishbot/core/logger"
)

const (
	resourceProducts  = "products"
	resourceCarts     = "carts"
	resourceCartItems = "cart-items"
	resourceClients   = "clients"
	resourceMedia     = "media"

	maxErrorBody = 512
)

// Client talks to one Strapi instance.
type Client struct {
	base *url.URL
	opts options
	http *http.Client
}

// New constructs a client for the CMS at baseURL (for example http://localhost:1337).
func New(baseURL string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("strapi: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("strapi: base url must be http(s), got %q", baseURL)
	}
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	return &Client{base: base, opts: o, http: hc}, nil
}

// BaseURL returns the CMS root the client was built with.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.base.String(), "/")
}

func (c *Client) endpoint(resource string, key string, q *Query) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/api/" + resource
	if key != "" {
		u.Path += "/" + key
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// do performs one API call and decodes the JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, verb, resource, key string, q *Query, body any, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		attrs := []slog.Attr{
			slog.String("resource", resource),
			slog.String("verb", verb),
			slog.Int("http_code", status),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs,
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			logger.Warn(ctx, "cms", "request", attrs...)
			return
		}
		attrs = append(attrs, slog.String("status", "ok"))
		logger.Info(ctx, "cms", "request", attrs...)
	}()

	fail := func(cause error) error {
		return &RemoteServiceError{Resource: resource, Verb: verb, Status: status, Err: cause}
	}

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return fail(fmt.Errorf("encode body: %w", mErr))
		}
		reader = bytes.NewReader(payload)
	}

	req, rErr := http.NewRequestWithContext(ctx, verb, c.endpoint(resource, key, q), reader)
	if rErr != nil {
		return fail(rErr)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.apiToken)
	}
	if c.opts.userAgent != "" {
		req.Header.Set("User-Agent", c.opts.userAgent)
	}

	resp, dErr := c.http.Do(req)
	if dErr != nil {
		return fail(dErr)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fail(errors.New(strings.TrimSpace(errorMessage(snippet, resp.Status))))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if dErr := json.NewDecoder(resp.Body).Decode(out); dErr != nil {
		status = 0
		return fail(fmt.Errorf("decode response: %w", dErr))
	}
	return nil
}

// errorMessage extracts error.message from a Strapi error body, else returns the raw snippet.
func errorMessage(body []byte, fallback string) string {
	var env struct {
		Error struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
		if env.Error.Name != "" {
			return env.Error.Name + ": " + env.Error.Message
		}
		return env.Error.Message
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return fallback
}

// OpenMedia downloads an uploaded file such as a product picture. The caller closes the body.
func (c *Client) OpenMedia(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	target := resolveURL(c.base, mediaURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RemoteServiceError{Resource: resourceMedia, Verb: http.MethodGet, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteServiceError{Resource: resourceMedia, Verb: http.MethodGet, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &RemoteServiceError{
			Resource: resourceMedia,
			Verb:     http.MethodGet,
			Status:   resp.StatusCode,
			Err:      errors.New(resp.Status),
		}
	}
	return resp.Body, nil
}
