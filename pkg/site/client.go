package site

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/proxy"

	"nhdl/pkg/config"
	"nhdl/pkg/errors"
	"nhdl/pkg/logger"
	"nhdl/pkg/ratelimit"
)

// Client talks to the gallery site and its image servers.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	endpoints  Endpoints
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient builds a client from the site, http and rate_limit sections of cfg.
func NewClient(cfg *config.Config, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	transport, err := newTransport(cfg.HTTP.Proxy)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{
			Transport:     transport,
			Timeout:       cfg.HTTP.Timeout,
			CheckRedirect: NewRedirectPolicy(cfg.HTTP.MaxRedirects).CheckRedirect,
		},
		headers: map[string]string{
			"User-Agent":                cfg.Site.UserAgent,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.9",
			"Referer":                   cfg.SiteRoot() + "/",
			"Upgrade-Insecure-Requests": "1",
		},
		endpoints: NewEndpoints(cfg.Site.Scheme, cfg.Site.Host),
		limiter:   ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		logger:    log.WithField("component", "site"),
	}
	if cfg.Site.Cookie != "" {
		c.headers["Cookie"] = cfg.Site.Cookie
	}

	return c, nil
}

func newTransport(proxyAddr string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second

	if proxyAddr == "" {
		return transport, nil
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}

	if proxyURL.Scheme == "socks5" {
		dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
				return dialer.Dial(network, address)
			}
		}
	} else {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return transport, nil
}

// SetHeader sets a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetTransport replaces the underlying round tripper, keeping the redirect policy.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.httpClient.Transport = rt
}

// Endpoints returns the URL builder for this client's site.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// Get issues a GET and returns the response whatever its status. Redirects
// suppressed by the redirect policy come back as the 3xx response.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork, rawURL, "rate limiter wait failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, rawURL, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.New(errors.ErrorTypeNetwork, rawURL, "request failed", err)
	}

	logger.LogRequest(c.logger, req.Method, rawURL, resp.StatusCode, time.Since(start))
	return resp, nil
}

// Fetch is Get followed by a status check. Any status >= 400 closes the body
// and returns an error carrying the URL and status.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := checkResponseStatus(rawURL, resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetHTML fetches rawURL and parses the body as an HTML document.
func (c *Client) GetHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	resp, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseHTML(rawURL, resp.Body)
}

// ParseHTML parses body as HTML, tagging failures with rawURL.
func ParseHTML(rawURL string, body io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeParsing, rawURL, "failed to read HTML document", err)
	}
	return doc, nil
}

// Download streams the body of rawURL into w and returns the byte count.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, errors.New(errors.ErrorTypeNetwork, rawURL, "failed to read response body", err)
	}
	return n, nil
}

func checkResponseStatus(rawURL string, resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	return errors.Status(rawURL, resp.StatusCode)
}
