// Package resource implements a client for one resource type exposed by the
// quotation service. Every resource type shares the same shape of operations
// and differs only in its path segment and its default summary format.
package resource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bww/go-metrics/v1"
	"github.com/go-playground/validator/v10"

	api "github.com/bww/go-rfqclient/v1"
	"github.com/bww/go-rfqclient/v1/multiplex"
)

var operationSampler = metrics.RegisterSamplerVec("rfq_client_resource_operation", "Perform a resource operation", []string{"resource", "operation"})

var validate = validator.New(validator.WithRequiredStructEnabled())

const summaryUpdated = "Summary format updated successfully"

// Describes a resource type exposed by the service
type Kind struct {
	Path    string         // path segment beneath api/, e.g. "items"
	Noun    string         // singular name used in messages, e.g. "Item"
	Summary func() Summary // default summary format; nil means an empty one
}

func (k Kind) defaultSummary() Summary {
	if k.Summary == nil {
		return Summary{}
	}
	return k.Summary()
}

// A Reader provides the read operations for a resource type
type Reader[E any] struct {
	api  *api.Client
	kind Kind
}

func NewReader[E any](c *api.Client, k Kind) *Reader[E] {
	return &Reader[E]{api: c, kind: k}
}

func (r *Reader[E]) Kind() Kind {
	return r.kind
}

func (r *Reader[E]) path(op, id string) string {
	p := "api/" + r.kind.Path + "/" + op
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (r *Reader[E]) observe(op string, start time.Time) {
	operationSampler.With(metrics.Tags{"resource": r.kind.Path, "operation": op}).Observe(float64(time.Since(start)))
}

func (r *Reader[E]) valid(rsp *http.Response, ents ...*E) error {
	for _, e := range ents {
		err := validate.Struct(e)
		if err != nil {
			return api.EntityError(rsp, err)
		}
	}
	return nil
}

// List fetches every record, in the order the service reports them
func (r *Reader[E]) List(cxt context.Context) ([]E, error) {
	defer r.observe("list", time.Now())

	var ents []E
	rsp, err := r.api.Get(cxt, r.path("list", ""), &ents)
	if err != nil {
		return nil, err
	}
	for i := range ents {
		if err := r.valid(rsp, &ents[i]); err != nil {
			return nil, err
		}
	}
	return ents, nil
}

// Get fetches a single record
func (r *Reader[E]) Get(cxt context.Context, id string) (*E, error) {
	defer r.observe("get", time.Now())
	return r.get(cxt, id)
}

func (r *Reader[E]) get(cxt context.Context, id string) (*E, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: %w", r.kind.Noun, ErrMissingID)
	}
	ent := new(E)
	rsp, err := r.api.Get(cxt, r.path("get", id), ent)
	if err != nil {
		return nil, err
	}
	if err := r.valid(rsp, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// GetMany fetches the records identified by ids, issuing up to n requests at
// a time. Every fetch is an independent request; results are returned in the
// order of ids and the first failure aborts the set.
func (r *Reader[E]) GetMany(cxt context.Context, ids []string, n int) ([]E, error) {
	defer r.observe("get_many", time.Now())
	if len(ids) == 0 {
		return nil, nil
	}

	urls := make([]string, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%s: %w", r.kind.Noun, ErrMissingID)
		}
		urls[i] = r.path("get", id)
	}

	rsps, err := multiplex.Collect(multiplex.New(r.api, n).Do(cxt, multiplex.NewGet(urls)))
	if err != nil {
		return nil, err
	}
	ents := make([]E, len(rsps))
	for i, rsp := range rsps {
		err := api.UnmarshalResponse(rsp, &ents[i])
		if err == nil {
			err = r.valid(rsp, &ents[i])
		}
		if err != nil {
			for _, x := range rsps[i+1:] {
				x.Body.Close()
			}
			return nil, err
		}
	}
	return ents, nil
}

// A Client provides the full set of operations for a resource type whose
// records carry a summary format.
type Client[E Summarized] struct {
	*Reader[E]
}

func NewClient[E Summarized](c *api.Client, k Kind) *Client[E] {
	return &Client[E]{NewReader[E](c, k)}
}

// Create adds a record. Only the fields of the creation are sent; the
// service assigns the identifier.
func (c *Client[E]) Create(cxt context.Context, v Creation) (*E, error) {
	defer c.observe("create", time.Now())

	ent := new(E)
	rsp, err := c.api.Post(cxt, c.path("add", ""), v, ent)
	if err != nil {
		return nil, err
	}
	if err := c.valid(rsp, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// Update replaces the updatable fields of a record: exactly name,
// description, status, and properties are sent.
func (c *Client[E]) Update(cxt context.Context, id string, v Update) (*E, error) {
	defer c.observe("update", time.Now())
	if id == "" {
		return nil, fmt.Errorf("%s: %w", c.kind.Noun, ErrMissingID)
	}

	ent := new(E)
	rsp, err := c.api.Put(cxt, c.path("update", id), v, ent)
	if err != nil {
		return nil, err
	}
	if err := c.valid(rsp, ent); err != nil {
		return nil, err
	}
	return ent, nil
}

// Delete removes a record. The response entity is discarded.
func (c *Client[E]) Delete(cxt context.Context, id string) (Message, error) {
	defer c.observe("delete", time.Now())
	if id == "" {
		return Message{}, fmt.Errorf("%s: %w", c.kind.Noun, ErrMissingID)
	}

	_, err := c.api.Delete(cxt, c.path("delete", id), nil, nil)
	if err != nil {
		return Message{}, err
	}
	return Message{Message: c.kind.Noun + " deleted successfully"}, nil
}

// SummaryFormat fetches a record and returns its summary format, or the
// default format for the resource type if the record has none.
func (c *Client[E]) SummaryFormat(cxt context.Context, id string) (Summary, error) {
	defer c.observe("summary_format", time.Now())

	ent, err := c.get(cxt, id)
	if err != nil {
		return nil, err
	}
	if s := (*ent).summary(); s != nil {
		return s, nil
	}
	return c.kind.defaultSummary(), nil
}

// SetSummaryFormat replaces the summary format of a record. The response
// entity is discarded.
func (c *Client[E]) SetSummaryFormat(cxt context.Context, id string, s Summary) (Message, error) {
	defer c.observe("set_summary_format", time.Now())
	if id == "" {
		return Message{}, fmt.Errorf("%s: %w", c.kind.Noun, ErrMissingID)
	}

	_, err := c.api.Put(cxt, c.path("summary", id), summaryUpdate{SummaryFormat: s}, nil)
	if err != nil {
		return Message{}, err
	}
	return Message{Message: summaryUpdated}, nil
}
