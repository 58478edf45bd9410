// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package apiclient provides a resilient HTTP API client whose calls
// return results carrying problems.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/z5labs/outcome/module"
	"github.com/z5labs/outcome/problem"
	"github.com/z5labs/outcome/result"
)

// StatusError is returned by [Client.Raw] for a response without a 2xx
// status. The response body has already been read into Body.
type StatusError struct {
	resp *http.Response
	body []byte
}

// Error implements the [error] interface.
func (e *StatusError) Error() string {
	req := e.resp.Request
	if req == nil || req.URL == nil {
		return fmt.Sprintf("unexpected response status: %s", e.resp.Status)
	}
	return fmt.Sprintf("%s %s: unexpected response status: %s", req.Method, req.URL, e.resp.Status)
}

// StatusCode returns the response status code.
func (e *StatusError) StatusCode() int {
	return e.resp.StatusCode
}

// Response returns the failed response. Its body is closed.
func (e *StatusError) Response() *http.Response {
	return e.resp
}

// Body returns the body of the failed response.
func (e *StatusError) Body() []byte {
	return e.body
}

// Client calls a single HTTP API.
type Client struct {
	http        *http.Client
	transformer *problem.Transformer
	baseURL     *url.URL
	header      http.Header
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// Header adds a header to every request.
func Header(key, value string) ClientOption {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// NewClient returns a [Client] sending requests relative to baseURL
// with hc and converting failures with transformer.
func NewClient(baseURL string, hc *http.Client, transformer *problem.Transformer, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url must be absolute: %q", baseURL)
	}
	if transformer == nil {
		return nil, errors.New("api client requires a problem transformer")
	}
	if hc == nil {
		hc = New()
	}

	c := &Client{
		http:        hc,
		transformer: transformer,
		baseURL:     u,
		header:      make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// NewRequest returns a request for path resolved against the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, err
	}
	base := c.BaseURL()
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	req, err := http.NewRequestWithContext(ctx, method, base.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// Raw sends req and returns a [*StatusError] for any response without a
// 2xx status.
func (c *Client) Raw(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, problem.MaxBodySize))
	if err != nil {
		return nil, err
	}
	return nil, &StatusError{resp: resp, body: body}
}

// Do sends req. Transport failures and responses without a 2xx status
// become problems. A problem returned by the API passes through as is.
func (c *Client) Do(req *http.Request) result.Result[*http.Response, problem.Problem] {
	resp, err := c.Raw(req)
	if err != nil {
		return result.Err[*http.Response](c.transformer.FromClientError(req.Context(), err, req.URL.Path))
	}
	return result.Ok[*http.Response, problem.Problem](resp)
}

// GetJSON gets path and decodes the JSON response into a T.
func GetJSON[T any](ctx context.Context, c *Client, path string) result.Result[T, problem.Problem] {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return result.Err[T](c.transformer.FromError(ctx, err, problem.ErrorContext("building request for "+path)))
	}
	req.Header.Set("Accept", "application/json")

	return result.AndThen(c.Do(req), func(resp *http.Response) result.Result[T, problem.Problem] {
		defer resp.Body.Close()

		var v T
		err := json.NewDecoder(resp.Body).Decode(&v)
		if err != nil {
			return result.Err[T](c.transformer.FromError(ctx, err, problem.ErrorContext("decoding response from "+path), problem.WithInstance(req.URL.Path)))
		}
		return result.Ok[T, problem.Problem](v)
	})
}

// Config configures the [Client] built by [Module].
type Config struct {
	BaseURL string        `config:"baseUrl"`
	Timeout time.Duration `config:"timeout"`

	Retry struct {
		Max     int           `config:"max"`
		WaitMin time.Duration `config:"waitMin"`
		WaitMax time.Duration `config:"waitMax"`
	} `config:"retry"`

	Circuit struct {
		Enabled   bool          `config:"enabled"`
		TripAfter uint32        `config:"tripAfter"`
		Timeout   time.Duration `config:"timeout"`
	} `config:"circuit"`
}

// Module returns a [module.Module] building a [Client] from [Config].
// The opts apply to the underlying [http.Client] after those derived
// from the config.
func Module(name string, transformer *problem.Transformer, opts ...Option) module.Module[Config, *Client] {
	return module.New(name, module.BuilderFunc[Config, *Client](func(ctx context.Context, cfg Config) (*Client, error) {
		httpOpts := []Option{Name(name)}
		if cfg.Timeout > 0 {
			httpOpts = append(httpOpts, Timeout(cfg.Timeout))
		}
		if cfg.Retry.Max > 0 {
			httpOpts = append(httpOpts, Retry(cfg.Retry.Max, cfg.Retry.WaitMin, cfg.Retry.WaitMax))
		}
		if cfg.Circuit.Enabled {
			httpOpts = append(httpOpts, TripAfter(max(cfg.Circuit.TripAfter, 1)))
			if cfg.Circuit.Timeout > 0 {
				httpOpts = append(httpOpts, OpenStateTimeout(cfg.Circuit.Timeout))
			}
		}
		httpOpts = append(httpOpts, opts...)

		return NewClient(cfg.BaseURL, New(httpOpts...), transformer)
	}))
}
