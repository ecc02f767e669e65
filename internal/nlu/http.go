package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

const recognizeTextPath = "/recognize-text"

// HTTPClient calls the assistant service over JSON/HTTP. Turns are never
// retried.
type HTTPClient struct {
	resty   *resty.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewHTTPClient creates an HTTPClient rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	r := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &HTTPClient{
		resty:   r,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
		log:     logger,
	}
}

// RecognizeText posts req and decodes the reply segments.
func (c *HTTPClient) RecognizeText(ctx context.Context, req *Request) (*Response, error) {
	const op = "recognize text"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(req).
		Post(recognizeTextPath)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindConnectivity, Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, domain.StatusError(op, resp.StatusCode(), nil)
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, &domain.Error{Kind: domain.KindServerFault, Op: op, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	c.log.Debug("recognize text", "session_id", req.SessionID, "segments", len(out.Messages))
	return &out, nil
}
