// Package http provides a small fluent HTTP client for outgoing JSON calls.
//
//	resp, err := http.Post(base + "/extract").
//	    Bearer(apiKey).
//	    Body(payload).
//	    WithContext(ctx).
//	    Send()
//
//	var out submitResponse
//	err = resp.JSON(&out)
//
// Every request is attempted exactly once. A non-2xx status is not an error
// at this layer; callers inspect StatusCode.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"
)

// MaxResponseBytes caps how much of a response body is read. Completed
// extraction jobs can carry large payloads, so the cap is generous.
const MaxResponseBytes = 32 << 20

const userAgent = "gpucatalog/1.0"

// DefaultClient is shared by requests that do not set their own client.
var DefaultClient = &gohttp.Client{
	Transport: &gohttp.Transport{
		Proxy:               gohttp.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Request is a fluent HTTP request builder.
type Request struct {
	method  string
	url     string
	headers map[string]string
	body    interface{}
	timeout time.Duration
	ctx     context.Context
	client  *gohttp.Client
}

// Get starts a GET request.
func Get(url string) *Request { return newRequest(gohttp.MethodGet, url) }

// Post starts a POST request.
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method: method,
		url:    url,
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": userAgent,
		},
		timeout: 30 * time.Second,
		ctx:     context.Background(),
		client:  DefaultClient,
	}
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header.
func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body sets the request body. v is marshalled to JSON unless it is []byte.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Timeout bounds the round trip including reading the body.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// WithContext sets the parent context of the request.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Using sends the request through c instead of DefaultClient.
func (r *Request) Using(c *gohttp.Client) *Request {
	if c != nil {
		r.client = c
	}
	return r
}

// Send executes the request and reads the whole response.
func (r *Request) Send() (*Response, error) {
	resp, err := r.do()
	if err != nil {
		return nil, fmt.Errorf("http: %s %s: %w", r.method, r.url, err)
	}
	return resp, nil
}

func (r *Request) do() (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(raw) > MaxResponseBytes {
		return nil, fmt.Errorf("read body: response exceeds %d bytes", MaxResponseBytes)
	}

	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Raw: raw}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(v), "application/json", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}
