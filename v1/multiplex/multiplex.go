// Package multiplex issues independent requests concurrently over a single
// client and streams back their responses.
package multiplex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bww/go-exec/v1"
	siter "github.com/bww/go-iterator/v1"
	"github.com/bww/go-util/v1/ext"

	api "github.com/bww/go-rfqclient/v1"
)

var _reqid uint64

func nextReq() uint64 {
	return atomic.AddUint64(&_reqid, 1)
}

type Config struct {
	Errors  ErrorHandler
	Headers map[string]string
}

func (c Config) WithOptions(opts []Option) Config {
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

func (c Config) configure(req *http.Request) *http.Request {
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	return req
}

type Option func(Config) Config

func WithErrorHandler(h ErrorHandler) Option {
	return func(c Config) Config {
		c.Errors = h
		return c
	}
}

func WithHeaders(h map[string]string) Option {
	return func(c Config) Config {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range h {
			c.Headers[k] = v
		}
		return c
	}
}

// A RequestProducer produces the i-th request of a set, or nil when the set
// is exhausted.
type RequestProducer interface {
	Request(int) (*http.Request, error)
}

type RequestProducerFunc func(int) (*http.Request, error)

func (p RequestProducerFunc) Request(i int) (*http.Request, error) {
	return p(i)
}

type URLRequestProducer struct {
	method string
	urls   []string
}

func NewGet(u []string) URLRequestProducer {
	return URLRequestProducer{
		method: http.MethodGet,
		urls:   u,
	}
}

func (p URLRequestProducer) Request(i int) (*http.Request, error) {
	if i >= len(p.urls) {
		return nil, nil
	}
	return http.NewRequest(p.method, p.urls[i], nil)
}

type Result struct {
	Index    int
	Response *http.Response
}

type resultSet []*Result

func (r resultSet) Len() int           { return len(r) }
func (r resultSet) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r resultSet) Less(i, j int) bool { return r[i].Index < r[j].Index }

// Collect drains an iterator and returns its responses in request order
func Collect(iter siter.Iterator[*Result], err error) ([]*http.Response, error) {
	if err != nil {
		return nil, err
	}

	var buf []*Result
	for {
		res, err := iter.Next()
		if errors.Is(err, siter.ErrClosed) {
			break
		} else if err != nil {
			for _, e := range buf {
				e.Response.Body.Close()
			}
			return nil, err
		}
		buf = append(buf, res)
	}

	sort.Sort(resultSet(buf))
	rsp := make([]*http.Response, len(buf))
	for i, e := range buf {
		rsp[i] = e.Response
	}

	return rsp, nil
}

// Unmarshal drains an iterator and decodes every response, in request order,
// appending the entities to ents.
func Unmarshal[E any](iter siter.Iterator[*Result], ents []E) ([]E, error) {
	rsps, err := Collect(iter, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not collect responses: %w", err)
	}
	for i, r := range rsps {
		var e E
		err := api.UnmarshalResponse(r, &e)
		if err != nil {
			for _, x := range rsps[i+1:] {
				x.Body.Close()
			}
			return nil, fmt.Errorf("Could not unmarshal response #%d: %w", i, err)
		}
		ents = append(ents, e)
	}
	return ents, nil
}

// output serializes writes to an iterator with its cancelation. Once the
// iterator is canceled, late results are dropped and their bodies closed.
type output struct {
	sync.Mutex
	iter   siter.Writer[*Result]
	cancel func(error)
	closed bool
}

func (o *output) Write(res *Result) error {
	o.Lock()
	defer o.Unlock()
	if o.closed {
		res.Response.Body.Close()
		return nil
	}
	return o.iter.Write(res)
}

func (o *output) Cancel(err error) {
	o.Lock()
	defer o.Unlock()
	if !o.closed {
		o.closed = true
		o.cancel(err)
	}
}

type Mux struct {
	*api.Client
	concur  int
	errors  ErrorHandler
	verbose bool
	debug   bool
}

func New(c *api.Client, n int) *Mux {
	return &Mux{
		Client:  c,
		concur:  max(1, n),
		verbose: os.Getenv("VERBOSE_API_MUX") != "",
		debug:   os.Getenv("DEBUG_API_MUX") != "",
	}
}

func (m *Mux) WithErrorHandler(h ErrorHandler) *Mux {
	d := *m
	d.errors = h
	return &d
}

// Create a block for execution on a dispatcher
func block(cxt context.Context, conf Config, mux *Mux, i int, req *http.Request, out *output) func() error {
	reqid := nextReq()
	errh := ext.Coalesce(conf.Errors, mux.errors)
	return func() error {
		start := time.Now()
		if mux.debug && mux.verbose {
			fmt.Printf("api: mux: [%06d, %d] >>> %s %v\n", reqid, i, req.Method, req.URL)
		}
		rsp, err := mux.Client.Do(req.WithContext(cxt))
		if err != nil && errh != nil { // let the error handler process first if we have one
			rsp, err = errh.Handle(rsp, err)
		}
		if err != nil {
			return fmt.Errorf("Could not multiplex request: %w", err)
		} else if rsp == nil {
			return nil // error handler consumed response
		}
		if mux.debug {
			fmt.Printf("api: mux: [%06d, %d] <<< %s %v: %s in %v\n", reqid, i, req.Method, req.URL, rsp.Status, time.Since(start))
		}
		return out.Write(&Result{
			Index:    i,
			Response: rsp,
		})
	}
}

// Do executes requests in parallel, returning an iterator over their
// counterpart responses in completion order. The caller owns every response
// body it receives.
func (m *Mux) Do(cxt context.Context, p RequestProducer, opts ...Option) (siter.Iterator[*Result], error) {
	conf := Config{}.WithOptions(opts)

	dsp := exec.NewDispatcher(m.concur, m.concur)
	err := dsp.Run(cxt)
	if err != nil {
		return nil, err
	}

	proc := make(chan siter.Result[*Result], m.concur)
	iter := siter.New[*Result](proc)
	out := &output{iter: iter, cancel: func(err error) { iter.Cancel(err) }}

	go func() {
		defer func() {
			out.Cancel(dsp.Error())
		}()
	outer:
		for i := 0; ; i++ {
			select {
			case <-cxt.Done():
				break outer
			default:
				// proceed
			}
			req, err := p.Request(i)
			if err != nil {
				out.Cancel(err)
				return
			} else if req == nil {
				break outer // no more requests
			}
			err = dsp.Exec(block(cxt, conf, m, i, conf.configure(req), out))
			if errors.Is(err, exec.ErrCanceled) {
				break outer // dispatcher stopped, probably due to a previous error
			} else if err != nil {
				out.Cancel(err)
				return
			}
		}
	}()

	return iter, nil
}
