package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/ledgerbot/core/logger"
	"github.com/m3rciful/ledgerbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// HTTPOptions tunes BuildHTTPClient. Zero values take the defaults.
type HTTPOptions struct {
	// LongPollTimeout is how long getUpdates may hold a request open.
	// Header and client timeouts are stretched past it.
	LongPollTimeout time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.LongPollTimeout < 0 {
		o.LongPollTimeout = 0
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = defaultRetryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = defaultRetryBackoff
	}
	return o
}

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	opts = opts.withDefaults()
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout + opts.LongPollTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: defaultClientTimeout + opts.LongPollTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: opts.RetryAttempts,
			backoff:    opts.RetryBackoff,
		},
	}
}

// retryTransport repeats requests that failed before reaching Telegram.
// Requests with a body are only repeated when the body can be rewound.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		currReq, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		if currReq == nil {
			return nil, lastErr
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		logger.TG.LogAttrs(req.Context(), slog.LevelDebug, "http retry",
			slog.String("event", "tg.http_retry"),
			slog.String("endpoint", endpointOf(req)),
			slog.String("error_kind", netutil.Kind(err)),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", logger.SanitizeLimit(err.Error(), 128)),
		)
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}

// rewind returns the request to send on the given attempt, or nil when the
// body cannot be replayed.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	if req.Body == nil || req.Body == http.NoBody {
		return req.Clone(req.Context()), nil
	}
	if req.GetBody == nil {
		return nil, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// endpointOf returns the Bot API method of req without exposing the token.
func endpointOf(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	return path.Base(req.URL.Path)
}
