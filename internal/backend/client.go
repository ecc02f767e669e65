// Package backend is the client for the hostel REST API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

const userAgent = "hostelmate-cli/1.0"

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64 // <= 0 disables throttling
	Burst             int
	Logger            *slog.Logger
}

// Client talks to the hostel REST API. Transport failures and 5xx responses
// are retried by the underlying retryable transport; every outcome is mapped
// onto the domain error taxonomy.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		retryClient.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		retryClient.RetryWaitMax = opts.RetryWaitMax
	}
	retryClient.Logger = logger.With("component", "retryablehttp")
	// Return the last response instead of an error so 5xx stays a server fault.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(opts.BaseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		restyClient.SetTimeout(opts.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	return &Client{resty: restyClient, limiter: limiter, log: logger}
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}

// Login exchanges credentials for a token and profile. A 2xx response is
// returned as-is even if it lacks a field; callers decide whether it is usable.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthPayload, error) {
	const op = "login"

	req, err := c.request(ctx)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}
	resp, err := req.
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/auth/login")
	if err := classify(op, resp, err); err != nil {
		c.log.Debug("login failed", "kind", domain.KindOf(err), "error", err)
		return nil, err
	}

	var payload domain.AuthPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &domain.Error{Kind: domain.KindServerFault, Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return &payload, nil
}

// Revoke invalidates token on the server.
func (c *Client) Revoke(ctx context.Context, token string) error {
	const op = "logout"

	req, err := c.request(ctx)
	if err != nil {
		return &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}
	resp, err := req.SetAuthToken(token).Post("/auth/logout")
	return classify(op, resp, err)
}

// Get performs an authorized GET against path and returns the raw body.
func (c *Client) Get(ctx context.Context, token, path string) ([]byte, error) {
	op := "GET " + path

	req, err := c.request(ctx)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Get("/" + strings.TrimLeft(path, "/"))
	if err := classify(op, resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// classify maps a resty outcome onto the domain error taxonomy. It returns nil
// for 2xx responses.
func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}
	if resp.IsSuccess() {
		return nil
	}
	return domain.StatusError(op, resp.StatusCode(), serverMessage(resp.Body()))
}

// serverMessage extracts {"error": ...} or {"message": ...} from an error body.
func serverMessage(body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	switch {
	case payload.Message != "":
		return errors.New(payload.Message)
	case payload.Error != "":
		return errors.New(payload.Error)
	default:
		return nil
	}
}
