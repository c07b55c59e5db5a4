package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout  = 10 * time.Second
	defaultPollInterval = 500 * time.Millisecond
	contentTypeJSON     = "application/json"
)

// HttpClient is a thin JSON-over-HTTP helper bound to one base URL.
type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    http.Header
}

type ClientOption func(*HttpClient)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *HttpClient) { c.HTTPClient.Timeout = d }
}

// WithDefaultHeader sets a header sent on every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *HttpClient) { c.Headers.Set(key, value) }
}

func NewHttpClient(baseURL string, opts ...ClientOption) *HttpClient {
	c := &HttpClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultHTTPTimeout},
		Headers:    http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is an already-drained HTTP response.
type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

type request struct {
	body        io.Reader
	contentType string
	headers     http.Header
	query       url.Values
	err         error
}

type RequestOption func(*request)

// JSONBody marshals v as the request body.
func JSONBody(v any) RequestOption {
	return func(r *request) {
		data, err := json.Marshal(v)
		if err != nil {
			r.err = fmt.Errorf("failed to marshal request body: %w", err)
			return
		}
		r.body = bytes.NewReader(data)
		r.contentType = contentTypeJSON
	}
}

func RawBody(contentType string, data []byte) RequestOption {
	return func(r *request) {
		r.body = bytes.NewReader(data)
		r.contentType = contentType
	}
}

func Header(key, value string) RequestOption {
	return func(r *request) { r.headers.Set(key, value) }
}

func Query(values url.Values) RequestOption {
	return func(r *request) { r.query = values }
}

func (c *HttpClient) GET(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, JSONBody(body))
}

func (c *HttpClient) POSTWithHeaders(ctx context.Context, path string, body any, headers map[string]string) (*Response, error) {
	opts := []RequestOption{JSONBody(body)}
	for k, v := range headers {
		opts = append(opts, Header(k, v))
	}
	return c.Do(ctx, http.MethodPost, path, opts...)
}

func (c *HttpClient) POSTRaw(ctx context.Context, path string, contentType string, rawBody []byte) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, RawBody(contentType, rawBody))
}

// Do sends one request and reads the whole response body.
func (c *HttpClient) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	spec := &request{headers: http.Header{}}
	for _, opt := range opts {
		opt(spec)
	}
	if spec.err != nil {
		return nil, spec.err
	}

	target := c.BaseURL + path
	if len(spec.query) > 0 {
		target += "?" + spec.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, spec.body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range c.Headers {
		req.Header[k] = vs
	}
	if spec.contentType != "" {
		req.Header.Set("Content-Type", spec.contentType)
	}
	for k, vs := range spec.headers {
		req.Header[k] = vs
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return &Response{Response: resp, Body: body}, nil
}

// WaitForHealthy polls /health until it answers 200 or maxWait elapses.
func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	for {
		resp, err := c.GET(ctx, "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy within %v", maxWait)
		case <-time.After(defaultPollInterval):
		}
	}
}

// GetErrorMessage extracts the message of an error body, falling back to the
// raw text when it is not JSON.
func GetErrorMessage(resp *Response) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return strings.TrimSpace(string(resp.Body))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
