package loader

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nimafallahian/go-rdfload/internal/domain"
)

// DefaultProbeTimeout bounds the TCP reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Resolver resolves host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// EndpointChecker probes the loader endpoint before a request is sent so
// that a dead endpoint costs a few seconds instead of the full load timeout.
type EndpointChecker struct {
	resolver Resolver
	dialer   Dialer
	timeout  time.Duration
	logger   *slog.Logger
}

// CheckerOption configures an EndpointChecker.
type CheckerOption func(*EndpointChecker)

// WithResolver replaces the DNS resolver.
func WithResolver(r Resolver) CheckerOption {
	return func(c *EndpointChecker) { c.resolver = r }
}

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) CheckerOption {
	return func(c *EndpointChecker) { c.dialer = d }
}

// WithProbeTimeout sets the probe timeout.
func WithProbeTimeout(d time.Duration) CheckerOption {
	return func(c *EndpointChecker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCheckerLogger sets the logger.
func WithCheckerLogger(l *slog.Logger) CheckerOption {
	return func(c *EndpointChecker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewEndpointChecker constructs an EndpointChecker using the system resolver
// and dialer unless replaced by options.
func NewEndpointChecker(opts ...CheckerOption) *EndpointChecker {
	c := &EndpointChecker{
		resolver: net.DefaultResolver,
		dialer:   &net.Dialer{},
		timeout:  DefaultProbeTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reports whether the loader endpoint accepts TCP connections.
// It returns (nil, nil) when the endpoint is open and a 500 Result when it
// is not. A URL without a host, or a host that does not resolve, is an
// input error.
func (c *EndpointChecker) Check(ctx context.Context, rawURL string) (*domain.Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil, domain.NewInputError(domain.ErrInvalidEndpoint,
			"Loader endpoint's host name not specified in url [%s]", rawURL)
	}
	host := u.Hostname()
	port := defaultPort(u)

	c.logger.Info("checking loader endpoint", "host", host, "port", port)

	// One deadline bounds both the lookup and the dial.
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ip, err := c.resolve(probeCtx, host)
	if err != nil {
		c.logger.Error("loader endpoint not resolved", "host", host, "error", err)
		return nil, domain.NewInputError(domain.ErrInvalidEndpoint,
			"Loader endpoint's host name [%s] could not be resolved", host)
	}
	c.logger.Info("loader endpoint resolved", "ip", ip.String())

	c.logger.Info("connecting to loader endpoint", "host", host, "port", port, "timeout", c.timeout)
	conn, err := c.dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(port)))
	if err != nil {
		c.logger.Error("loader endpoint not available", "host", host, "port", port, "error", err)
		return &domain.Result{
			StatusCode:  http.StatusInternalServerError,
			StatusError: fmt.Sprintf("Loader endpoint %s:%d is not open", host, port),
		}, nil
	}
	_ = conn.Close()

	c.logger.Info("loader endpoint available", "host", host, "port", port)
	return nil, nil
}

// resolve returns the first IPv4 address of host, or its first address of
// any family when it has no IPv4 address.
func (c *EndpointChecker) resolve(ctx context.Context, host string) (net.IP, error) {
	ips, err := c.resolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %s", host)
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

func defaultPort(u *url.URL) int {
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	if u.Scheme == "http" {
		return 80
	}
	return 443
}
