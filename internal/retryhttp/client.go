// Package retryhttp is the single place where transient-failure policy for
// outbound vendor calls lives. Every call is retried on 429, 5xx and
// network-level failures with a linear delay between attempts.
package retryhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"sitevoice-go/internal/logger"
)

// ErrRetriesExhausted is returned when every attempt hit a retryable failure.
var ErrRetriesExhausted = errors.New("retries exhausted")

const DefaultMaxAttempts = 3

// Response is a fully-read HTTP response. The body is read inside the attempt
// so that the per-attempt timeout covers it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Options struct {
	// FirstAttemptTimeout is short so a hung vendor fails fast.
	FirstAttemptTimeout time.Duration
	// RetryTimeout applies to every attempt after the first.
	RetryTimeout time.Duration
	// Delay is multiplied by the attempt number between attempts.
	Delay       time.Duration
	MaxAttempts int
}

type Client struct {
	http *http.Client
	opts Options
	log  *logger.Logger
}

func New(httpClient *http.Client, opts Options, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if opts.FirstAttemptTimeout <= 0 {
		opts.FirstAttemptTimeout = 30 * time.Second
	}
	if opts.RetryTimeout <= 0 {
		opts.RetryTimeout = 60 * time.Second
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = logger.New()
	}
	return &Client{http: httpClient, opts: opts, log: log}
}

// Execute sends req with the client's configured attempt budget.
func (c *Client) Execute(req *http.Request) (*Response, error) {
	return c.ExecuteN(req, c.opts.MaxAttempts)
}

// ExecuteN sends req up to maxAttempts times. A 2xx or non-retryable 4xx
// response is returned as-is; the caller decides what a 4xx means. The request
// body must be replayable (http.NewRequest sets GetBody for in-memory readers).
func (c *Client) ExecuteN(req *http.Request, maxAttempts int) (*Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	parent := req.Context()
	log := c.log.WithFields(map[string]interface{}{
		"module": "retryhttp",
		"method": req.Method,
		"host":   req.URL.Host,
	})

	attempt := 0
	var lastErr error
	op := func() (*Response, error) {
		attempt++
		timeout := c.opts.FirstAttemptTimeout
		if attempt > 1 {
			timeout = c.opts.RetryTimeout
		}
		resp, err := c.attempt(parent, req, timeout)
		if err != nil {
			lastErr = err
			if parent.Err() != nil {
				return nil, backoff.Permanent(parent.Err())
			}
			var permanent *permanentError
			if errors.As(err, &permanent) {
				return nil, backoff.Permanent(permanent.err)
			}
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = &statusError{code: resp.StatusCode, body: resp.Body}
			return nil, lastErr
		}
		return resp, nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: c.opts.Delay}, uint64(maxAttempts-1)), parent)
	notify := func(err error, wait time.Duration) {
		log.WithField("attempt", attempt).WithField("wait_ms", wait.Milliseconds()).
			WithField("error", err.Error()).Warn("transient failure, retrying")
	}

	resp, err := backoff.RetryNotifyWithData(op, b, notify)
	if err == nil {
		return resp, nil
	}
	if parent.Err() != nil {
		return nil, parent.Err()
	}
	var se *statusError
	if errors.As(err, &se) || (lastErr != nil && errors.Is(err, lastErr)) {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempt, lastErr)
	}
	return nil, err
}

func (c *Client) attempt(parent context.Context, req *http.Request, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	r := req.Clone(ctx)
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, &permanentError{err: errors.New("request body is not replayable")}
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, &permanentError{err: fmt.Errorf("rewind body: %w", err)}
		}
		r.Body = body
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// linearBackOff waits attempt × step between attempts.
type linearBackOff struct {
	step time.Duration
	n    int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.step
}

func (l *linearBackOff) Reset() { l.n = 0 }

type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	body := string(e.body)
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("status %d: %s", e.code, body)
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
