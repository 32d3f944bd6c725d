package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-portal/core"
)

// Request describes one call to the API. Path is relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    interface{}
	Timeout time.Duration // overrides the client timeout when > 0
	Token   string        // overrides the stored bearer token
	NoAuth  bool
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(r.Body, v), "decoding response")
}

// RequestInterceptor may edit req. A non-nil Response short-circuits the network call.
type RequestInterceptor func(ctx context.Context, req *Request) (*Response, error)

// ResponseInterceptor may replace the response or turn it into an error.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) (*Response, error)

// ErrorInterceptor sees every failure and returns the error handed to the caller.
type ErrorInterceptor func(ctx context.Context, req *Request, err error) error

// Client sends JSON requests to the API through the interceptor pipeline.
// Failures are always one of *core.TimeoutError, *core.NetworkError or *core.HTTPError.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  core.Logger

	reqIcpts  []RequestInterceptor
	respIcpts []ResponseInterceptor
	errIcpts  []ErrorInterceptor

	unauthorized *core.Emitter[error]
}

// New returns a client with the bearer and 401 interceptors installed.
func New(conf *core.Config, storage core.Storage, logger core.Logger) *Client {
	c := NewBare(conf.API.BaseURL, conf.API.Timeout, logger)
	c.UseRequest(BearerInterceptor(storage, conf.Auth.TokenKey))
	c.UseError(UnauthorizedInterceptor(storage, c.unauthorized, conf.Auth.TokenKey, conf.Auth.UserKey, conf.Auth.ExpiryKey))
	return c
}

// NewBare returns a client without interceptors.
func NewBare(baseURL string, timeout time.Duration, logger core.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		timeout:      timeout,
		http:         &http.Client{},
		logger:       logger,
		unauthorized: core.NewEmitter[error]("unauthorized", logger),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) UseRequest(i RequestInterceptor)   { c.reqIcpts = append(c.reqIcpts, i) }
func (c *Client) UseResponse(i ResponseInterceptor) { c.respIcpts = append(c.respIcpts, i) }
func (c *Client) UseError(i ErrorInterceptor)       { c.errIcpts = append(c.errIcpts, i) }

// Unauthorized fires with the error of every 401 response.
func (c *Client) Unauthorized() *core.Emitter[error] { return c.unauthorized }

// Do runs req through the request interceptors, the network and the response interceptors.
// Any failure goes through the error interceptors.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.do(ctx, &req)
	if err != nil {
		for _, icpt := range c.errIcpts {
			err = icpt(ctx, &req, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}

	var resp *Response
	for _, icpt := range c.reqIcpts {
		r, err := icpt(ctx, req)
		if err != nil {
			return nil, err
		}
		if r != nil {
			resp = r
			break
		}
	}

	if resp == nil {
		var err error
		if resp, err = c.send(ctx, req); err != nil {
			return nil, err
		}
	}

	for _, icpt := range c.respIcpts {
		r, err := icpt(ctx, req, resp)
		if err != nil {
			return nil, err
		}
		if r != nil {
			resp = r
		}
	}

	if resp.Status < 200 || resp.Status > 299 {
		return nil, parseError(resp)
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		body = bytes.NewReader(b)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req), body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() { _ = hresp.Body.Close() }()

	b, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}
	return &Response{Status: hresp.StatusCode, Header: hresp.Header, Body: b}, nil
}

func (c *Client) url(req *Request) string {
	u := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

// classify maps a transport failure to a timeout or a network error.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &core.TimeoutError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &core.TimeoutError{Err: err}
	}
	return &core.NetworkError{Err: err}
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Code    json.RawMessage `json:"code"`
	Details interface{}     `json:"details"`
}

// parseError builds a *core.HTTPError from the JSON body of a failed response,
// falling back to the status text.
func parseError(resp *Response) error {
	hErr := &core.HTTPError{Status: resp.Status}

	var eb errorBody
	if err := json.Unmarshal(resp.Body, &eb); err == nil {
		hErr.Message = eb.Message
		hErr.Code = rawString(eb.Code)
		hErr.Details = eb.Details
		if hErr.Message == "" && len(eb.Error) > 0 {
			var nested errorBody
			if json.Unmarshal(eb.Error, &nested) == nil && nested.Message != "" {
				hErr.Message = nested.Message
				if hErr.Code == "" {
					hErr.Code = rawString(nested.Code)
				}
			} else {
				hErr.Message = rawString(eb.Error)
			}
		}
	}
	if hErr.Message == "" {
		if txt := http.StatusText(resp.Status); txt != "" {
			hErr.Message = txt
		} else {
			hErr.Message = "request failed"
		}
	}
	return hErr
}

// rawString renders a JSON string or number without quotes.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
