package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client bundles the REST client with the rate limit budget its transport
// maintains.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
	Budget *RequestBudget
}

type options struct {
	logger *zap.Logger
	budget *RequestBudget
}

type Option func(*options)

// WithLogger logs one debug line per request and response.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithBudget shares a rate limit budget between clients.
func WithBudget(b *RequestBudget) Option {
	return func(o *options) {
		o.budget = b
	}
}

// loggingRoundTripper emits a request line and a response line (with latency).
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *zap.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug("github api request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug("github api error", zap.Duration("elapsed", dur), zap.Error(err))
		return resp, err
	}
	t.logger.Debug("github api response",
		zap.Int("status", resp.StatusCode),
		zap.String("remaining", resp.Header.Get("X-RateLimit-Remaining")),
		zap.Duration("elapsed", dur))
	return resp, err
}

// budgetRoundTripper blocks until the budget allows a request and feeds the
// rate limit headers of every response back into it.
type budgetRoundTripper struct {
	base   http.RoundTripper
	budget *RequestBudget
}

func (t *budgetRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.budget.Acquire(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for github rate limit: %w", err)
	}
	resp, err := t.base.RoundTrip(req)
	t.budget.Observe(resp)
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.budget == nil {
		o.budget = NewRequestBudget()
	}

	var transport http.RoundTripper = &loggingRoundTripper{base: http.DefaultTransport, logger: o.logger}
	transport = &budgetRoundTripper{base: transport, budget: o.budget}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	return &Client{
		Client: github.NewClient(tc),
		HTTP:   tc,
		Budget: o.budget,
	}, nil
}
