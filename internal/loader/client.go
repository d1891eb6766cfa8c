// Package loader talks to the Neptune bulk loader: it probes the loader
// endpoint, submits load payloads, queries job status and turns every
// outcome into a domain.Result. Nothing in this package returns an error
// for a network or HTTP failure.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"
	"resty.dev/v3"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// DefaultLoadTimeout bounds a single loader request.
const DefaultLoadTimeout = 30 * time.Second

const badRequestException = "BadRequestException"

// Prober checks endpoint reachability. *EndpointChecker satisfies it.
type Prober interface {
	Check(ctx context.Context, rawURL string) (*domain.Result, error)
}

// Client submits load requests to the loader.
type Client struct {
	resty      *resty.Client
	prober     Prober
	classifier Classifier
	limiter    *rate.Limiter
	timeout    time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimiter throttles requests. A nil limiter disables throttling.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithChecker replaces the endpoint probe.
func WithChecker(p Prober) Option {
	return func(c *Client) { c.prober = p }
}

// WithClassifier replaces the error code classifier.
func WithClassifier(cl Classifier) Option {
	return func(c *Client) { c.classifier = cl }
}

// NewClient constructs a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		classifier: NewClassifier(),
		timeout:    DefaultLoadTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prober == nil {
		c.prober = NewEndpointChecker(WithCheckerLogger(c.logger))
	}
	c.resty = resty.NewWithClient(&http.Client{Timeout: c.timeout})
	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.resty.Close()
}

// Submit posts a load payload to the loader endpoint.
func (c *Client) Submit(ctx context.Context, endpoint string, payload []byte) domain.Result {
	c.logger.Info("neptune loader endpoint", "endpoint", endpoint)

	if res, ok := c.ready(ctx, endpoint); !ok {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Info("posting load request", "timeout", c.timeout)
	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(endpoint)
	return c.result(resp, err)
}

// Status fetches the state of a load job.
func (c *Client) Status(ctx context.Context, endpoint string, req domain.LoaderStatusRequest) domain.Result {
	if err := req.Validate(); err != nil {
		return domain.ResultFromError(err)
	}

	if res, ok := c.ready(ctx, endpoint); !ok {
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := strings.TrimRight(endpoint, "/") + "/" + req.LoadID
	c.logger.Info("getting load status", "url", target, "load_id", req.LoadID)
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParamsFromValues(req.Query()).
		Get(target)
	return c.result(resp, err)
}

// ready probes the endpoint and waits for the rate limiter. It returns
// ok=false with the Result to report when the request must not be sent.
func (c *Client) ready(ctx context.Context, endpoint string) (domain.Result, bool) {
	unavailable, err := c.prober.Check(ctx, endpoint)
	if err != nil {
		return domain.ResultFromError(err), false
	}
	if unavailable != nil {
		return *unavailable, false
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Error("exception occurred", "error", err)
			return exception(err), false
		}
	}
	return domain.Result{}, true
}

func (c *Client) result(resp *resty.Response, err error) domain.Result {
	if err != nil {
		return c.failure(err)
	}
	//nolint:errcheck
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.failure(err)
	}

	status := resp.StatusCode()
	c.logger.Debug("loader response", "status", status)

	if status >= 200 && status < 300 {
		var out struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			c.logger.Error("exception occurred", "error", err)
			return exception(fmt.Errorf("decode loader response: %w", err))
		}
		return domain.Result{StatusCode: http.StatusOK, StatusDetail: out.Payload}
	}

	if status >= 300 {
		return c.httpError(status, body)
	}

	return exception(fmt.Errorf("unexpected status code: %d", status))
}

func (c *Client) httpError(status int, body []byte) domain.Result {
	detail := rawJSON(body)
	c.logger.Error("http error occurred", "status", status, "body", string(detail))

	var errBody struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(detail, &errBody)

	if status == http.StatusBadRequest && errBody.Code == badRequestException {
		return domain.Result{
			StatusCode:       status,
			StatusCodeDetail: c.classifier.Classify(errBody.Message),
			StatusError:      fmt.Sprintf("HTTP Error occurred: %d, %s", status, errBody.Message),
			StatusDetail:     detail,
		}
	}
	return domain.Result{
		StatusCode:   status,
		StatusError:  fmt.Sprintf("HTTP Error occurred: %d", status),
		StatusDetail: detail,
	}
}

func (c *Client) failure(err error) domain.Result {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		c.logger.Error("timeout occurred", "error", err)
		return domain.Result{StatusCode: http.StatusInternalServerError, StatusError: "Timeout occurred"}
	case errors.Is(err, syscall.ECONNREFUSED):
		c.logger.Error("connection refused", "error", err)
		return domain.Result{StatusCode: http.StatusInternalServerError, StatusError: "Connection refused"}
	case isConnectionError(err):
		c.logger.Error("connection error", "error", err)
		return domain.Result{StatusCode: http.StatusInternalServerError, StatusError: "Connection error"}
	default:
		c.logger.Error("exception occurred", "error", err)
		return exception(err)
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) || errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF)
}

func exception(err error) domain.Result {
	return domain.Result{
		StatusCode:  http.StatusInternalServerError,
		StatusError: fmt.Sprintf("Exception occurred: %v", err),
	}
}

// rawJSON returns body unchanged when it is JSON, otherwise body encoded as
// a JSON string.
func rawJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
