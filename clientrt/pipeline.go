package clientrt

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryOptions bounds retries of transient failures (network errors, 429, 5xx).
type RetryOptions struct {
	MaxRetries int
	Delay      time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryOptions returns the options used when none are configured.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{MaxRetries: 3, Delay: 800 * time.Millisecond, MaxDelay: 60 * time.Second}
}

// ClientOptions configures the pipeline behind a generated client.
type ClientOptions struct {
	Retry      RetryOptions
	HTTPClient Doer
	UserAgent  string
}

// Pipeline sends requests with retries.
type Pipeline struct {
	doer      Doer
	retry     RetryOptions
	userAgent string
}

// NewPipeline builds a pipeline. Zero-valued options fall back to
// http.DefaultClient and DefaultRetryOptions.
func NewPipeline(opts ClientOptions) *Pipeline {
	p := &Pipeline{doer: opts.HTTPClient, retry: opts.Retry, userAgent: opts.UserAgent}
	if p.doer == nil {
		p.doer = http.DefaultClient
	}
	if p.retry == (RetryOptions{}) {
		p.retry = DefaultRetryOptions()
	}
	if p.userAgent == "" {
		p.userAgent = "swagger2client-runtime"
	}
	return p
}

// Do sends req, retrying transient failures with exponential backoff.
// Requests with a body are only retried when req.GetBody is set.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	delay := p.retry.Delay
	for attempt := 0; ; attempt++ {
		resp, err := p.doer.Do(req)
		if attempt >= p.retry.MaxRetries || !shouldRetry(resp, err) || !rewind(req) {
			return resp, err
		}
		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if err := sleep(req.Context(), delay); err != nil {
			return nil, err
		}
		delay *= 2
		if p.retry.MaxDelay > 0 && delay > p.retry.MaxDelay {
			delay = p.retry.MaxDelay
		}
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

func rewind(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	if req.GetBody == nil {
		return false
	}
	body, err := req.GetBody()
	if err != nil {
		return false
	}
	req.Body = body
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
