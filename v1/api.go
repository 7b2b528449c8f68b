package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bww/go-metrics/v1"
	"github.com/dustin/go-humanize"

	"github.com/bww/go-rfqclient/v1/events"
)

var (
	requestDurationSampler = metrics.RegisterSamplerVec("rfq_client_perform_request", "Perform an HTTP request", []string{"domain"})
	requestFailureSampler  = metrics.RegisterSamplerVec("rfq_client_request_failure", "Request failed with a transport or status error", []string{"domain"})
)

var reqctr int64

const JSON = "application/json"

// shared HTTP client; no timeout is imposed, callers bound requests with their context
var sharedClient = &http.Client{}

// An API client
type Client struct {
	*http.Client
	base   *url.URL
	header http.Header
	obs    *events.Observers
	debug  Debug
}

// Create a new client
func New(opts ...Option) (*Client, error) {
	return NewWithConfig(Config{}.WithOptions(opts))
}

// Create a new client with a configuration
func NewWithConfig(conf Config) (*Client, error) {
	var err error

	var base *url.URL
	if u := conf.BaseURL; u != "" {
		base, err = parseBase(u)
		if err != nil {
			return nil, fmt.Errorf("Invalid base URL: %w", err)
		}
	}

	var client *http.Client
	if conf.Client != nil {
		client = conf.Client
	} else if conf.Timeout > 0 {
		client = &http.Client{Timeout: conf.Timeout}
	} else {
		client = sharedClient
	}

	debug, err := Debug{
		Debug:   conf.Debug,
		Verbose: conf.Verbose,
	}.WithEnv()
	if err != nil {
		return nil, err
	}

	return &Client{
		Client: client,
		base:   base,
		header: conf.Header,
		obs:    conf.Observers,
		debug:  debug,
	}, nil
}

// parseBase parses a base URL and makes sure its path ends in a slash so that
// relative references resolve beneath it rather than replacing its last segment.
func parseBase(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", s)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

func (c *Client) Base() *url.URL {
	return c.base
}

func (c *Client) Observers() *events.Observers {
	return c.obs
}

func (c *Client) isVerbose(req *http.Request) bool {
	if !c.debug.Verbose {
		return false
	}
	return c.debug.Matches(req)
}

func (c *Client) isDebug(req *http.Request) bool {
	if !c.debug.Debug {
		return false
	}
	return c.debug.Matches(req)
}

// A convenience for Exec with a GET request
func (c *Client) Get(cxt context.Context, u string, output interface{}, opts ...Option) (*http.Response, error) {
	req, err := http.NewRequestWithContext(cxt, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.Exec(req, output, opts...)
}

// A convenience for Exec with a POST request
func (c *Client) Post(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodPost, u, input, output, opts)
}

// A convenience for Exec with a PUT request
func (c *Client) Put(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodPut, u, input, output, opts)
}

// A convenience for Exec with a DELETE request
func (c *Client) Delete(cxt context.Context, u string, input, output interface{}, opts ...Option) (*http.Response, error) {
	return c.send(cxt, http.MethodDelete, u, input, output, opts)
}

func (c *Client) send(cxt context.Context, method, u string, input, output interface{}, opts []Option) (*http.Response, error) {
	data, err := entityReader(input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(cxt, method, u, data)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", JSON)
	return c.Exec(req, output, opts...)
}

// Perform a request and attempt to unmarshal the response into an entity. When
// the entity is nil the response body is discarded.
func (c *Client) Exec(req *http.Request, entity interface{}, opts ...Option) (*http.Response, error) {
	conf := Config{}.WithOptions(opts)
	for k, v := range conf.Header {
		for _, e := range v {
			req.Header.Set(k, e)
		}
	}

	start := time.Now()
	rsp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	if entity != nil {
		err = unmarshal(rsp, req, entity)
		if err != nil {
			requestFailureSampler.With(metrics.Tags{"domain": req.URL.Host}).Observe(float64(time.Since(start)))
			c.obs.RequestFailedWithError(req, rsp, err)
			return nil, err
		}
	}
	return rsp, nil
}

// UnmarshalResponse decodes the entity of a successful response and closes its
// body. A failure is reported as an *Error wrapping ErrCouldNotUnmarshalResponse
// which retains the raw entity.
func UnmarshalResponse(rsp *http.Response, entity interface{}) error {
	return unmarshal(rsp, rsp.Request, entity)
}

func unmarshal(rsp *http.Response, req *http.Request, entity interface{}) error {
	data, err := io.ReadAll(rsp.Body)
	rsp.Body.Close()
	if err != nil {
		return err
	}
	rsp.Body = io.NopCloser(bytes.NewReader(data))

	err = Unmarshal(rsp, entity)
	if err != nil {
		e := Errorf(rsp.StatusCode, "Could not unmarshal response").
			SetEntity(&Entity{
				ContentType: rsp.Header.Get("Content-Type"),
				Data:        data,
			}).
			SetCause(wrapErr(err, ErrCouldNotUnmarshalResponse))
		if req != nil {
			e.SetRequest(req)
		}
		return e
	}
	return nil
}

// Perform a request. The client may mutate the parameter request.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.RoundTrip(req)
}

// Round-trip a request. Exactly one request is issued; a non-2XX response is
// converted to an *Error and its body closed. The client may mutate the
// parameter request.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	reqid := atomic.AddInt64(&reqctr, 1)

	if c.base != nil {
		req.URL = c.base.ResolveReference(req.URL)
	}

	domain := req.URL.Host
	defer func() {
		requestDurationSampler.With(metrics.Tags{"domain": domain}).Observe(float64(time.Since(start)))
	}()

	for k, v := range c.header {
		n := http.CanonicalHeaderKey(k)
		if _, set := req.Header[n]; !set { // don't overrwrite explicitly set headers
			req.Header[n] = v
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", JSON)
	}

	err := c.obs.WillSendRequest(req)
	if err != nil {
		err = fmt.Errorf("Request rejected by observer: %w", err)
		c.obs.RequestFailedWithError(req, nil, err)
		return nil, err
	}

	if c.isVerbose(req) || c.isDebug(req) {
		fmt.Printf("api: [%06d] %v %v\n", reqid, req.Method, req.URL)
	}
	if c.isDebug(req) {
		err := c.dumpReq(debugOutput, req)
		if err != nil {
			return nil, err
		}
	}

	rsp, err := c.Client.Do(req)
	if err != nil {
		requestFailureSampler.With(metrics.Tags{"domain": domain}).Observe(float64(time.Since(start)))
		c.obs.RequestFailedWithError(req, nil, err)
		return nil, err
	}

	err = checkErr(reqid, req, rsp)
	if err != nil {
		rsp.Body.Close()
		requestFailureSampler.With(metrics.Tags{"domain": domain}).Observe(float64(time.Since(start)))
		c.obs.RequestFailedWithError(req, rsp, err)
		return nil, err
	}

	if c.isVerbose(req) || c.isDebug(req) {
		var l string
		if rsp.ContentLength >= 0 {
			l = humanize.Bytes(uint64(rsp.ContentLength))
		} else {
			l = "<unknown>"
		}
		fmt.Printf("api: [%06d] %v %v -> %v (%v)\n", reqid, req.Method, req.URL, rsp.Status, l)
	}
	if c.isDebug(req) {
		err := c.dumpRsp(debugOutput, req, rsp)
		if err != nil {
			rsp.Body.Close()
			return nil, err
		}
	}

	err = c.obs.DidReceiveResponse(req, rsp)
	if err != nil {
		rsp.Body.Close()
		return nil, fmt.Errorf("Response rejected by observer: %w", err)
	}

	return rsp, nil
}
