package strapi

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds one CMS round trip.
const DefaultTimeout = 8 * time.Second

type options struct {
	apiToken   string
	timeout    time.Duration
	httpClient *http.Client
	userAgent  string
}

// Option configures the Client.
type Option func(*options)

// WithAPIToken sends the token as a Bearer credential on every API call.
func WithAPIToken(token string) Option {
	return func(o *options) { o.apiToken = token }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

func defaultOptions() options {
	return options{
		timeout:   DefaultTimeout,
		userAgent: "fishbot",
	}
}
