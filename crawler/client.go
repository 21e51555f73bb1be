package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"smart-scraper/config"
	"smart-scraper/models"
	"smart-scraper/utils"
)

// ErrUnavailable marks the expected failures of a scrape: unreachable host,
// non-2xx status, missing robots.txt, unranked domain, rejected login.
var ErrUnavailable = errors.New("resource unavailable")

type UnavailableError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UnavailableError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s unavailable (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s unavailable (HTTP %d)", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s unavailable: %v", e.URL, e.Err)
	}
	return e.URL + " unavailable"
}

func (e *UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Err}
}

type RequestOptions struct {
	Method  string
	Headers map[string]string
	Params  map[string]string
	Form    map[string]string
	Cookies []*http.Cookie
	// Timeout replaces the configured request timeout for this call, longer
	// or shorter.
	Timeout time.Duration
}

type Client struct {
	cfg  *config.Config
	http *resty.Client
}

func NewClient(cfg *config.Config) *Client {
	// deadlines come from the request context, see SendRequest
	client := resty.New()
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	// plain clients are stateless, only sessions from Login keep cookies
	client.SetCookieJar(nil)

	client.OnAfterResponse(logResponse)
	client.OnError(logError)

	return &Client{cfg: cfg, http: client}
}

func (c *Client) newSession() (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	session := NewClient(c.cfg)
	session.http.SetCookieJar(jar)
	return session, nil
}

// SendRequest issues one request. Transport failures and non-2xx statuses are
// reported as *UnavailableError.
func (c *Client) SendRequest(ctx context.Context, rawURL string, opts RequestOptions) (*models.Response, error) {
	target := utils.EnsureSchema(rawURL)

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := c.cfg.Timeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.http.R().SetContext(ctx)
	for k, v := range opts.Headers {
		req.SetHeader(k, v)
	}
	if len(opts.Params) > 0 {
		req.SetQueryParams(opts.Params)
	}
	if len(opts.Form) > 0 {
		req.SetFormData(opts.Form)
	}
	if len(opts.Cookies) > 0 {
		req.SetCookies(opts.Cookies)
	}

	res, err := req.Execute(method, target)
	if err != nil {
		return nil, &UnavailableError{URL: target, Err: err}
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, &UnavailableError{URL: target, StatusCode: res.StatusCode()}
	}

	finalURL := target
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}

	return &models.Response{
		StatusCode: res.StatusCode(),
		URL:        finalURL,
		Header:     res.Header(),
		Body:       res.Body(),
		Elapsed:    res.Time(),
	}, nil
}

func (c *Client) Fetch(ctx context.Context, rawURL string, opts RequestOptions) (*Document, error) {
	res, err := c.SendRequest(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}
	return NewDocument(res)
}

// Login posts form data on a fresh session and returns that session so later
// requests carry the cookies the server issued.
func (c *Client) Login(ctx context.Context, rawURL string, postdata, params map[string]string) (*models.Response, *Client, error) {
	session, err := c.newSession()
	if err != nil {
		return nil, nil, err
	}

	res, err := session.SendRequest(ctx, rawURL, RequestOptions{
		Method: http.MethodPost,
		Form:   postdata,
		Params: params,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("login failed: %w", err)
	}
	return res, session, nil
}

func logResponse(_ *resty.Client, res *resty.Response) error {
	zerolog.Ctx(res.Request.Context()).Debug().
		Str("method", res.Request.Method).
		Str("url", res.Request.URL).
		Int("status", res.StatusCode()).
		Dur("elapsed", res.Time()).
		Int("bytes", len(res.Body())).
		Msg("request finished")
	return nil
}

func logError(req *resty.Request, err error) {
	zerolog.Ctx(req.Context()).Warn().Err(err).
		Str("method", req.Method).
		Str("url", req.URL).
		Msg("request failed")
}
