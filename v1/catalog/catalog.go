// Package catalog provides clients for every resource type exposed by the
// quotation service: customers, items, programs, and RFQs.
package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	api "github.com/bww/go-rfqclient/v1"
	"github.com/bww/go-rfqclient/v1/events"
	"github.com/bww/go-rfqclient/v1/resource"
)

type Catalog struct {
	Customers *resource.Client[Customer]
	Items     *resource.Client[Item]
	Programs  *resource.Client[Program]
	RFQs      *resource.Reader[RFQ]
}

// New creates clients for every resource type. Requests are logged to the
// configured logger, or to one built for the configured level. Any options are
// applied to the underlying transport after those derived from the
// configuration.
func New(conf Config, opts ...api.Option) (*Catalog, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	var base []api.Option
	if conf.Timeout > 0 {
		base = append(base, api.WithTimeout(conf.Timeout))
	}
	if conf.Debug {
		base = append(base, api.WithDebug(true))
	}
	log := conf.Logger
	if log == nil && conf.LogLevel != "" {
		log = NewLogger(conf.LogLevel)
	}
	if log != nil {
		base = append(base, api.WithObservers(events.New(events.NewLogObserver(log))))
	}
	base = append(base, opts...)

	svc, err := api.NewWithConfig(api.Config{BaseURL: conf.BaseURL}.WithOptions(base))
	if err != nil {
		return nil, err
	}
	rfq := svc
	if u := conf.rfqBaseURL(); u != conf.BaseURL {
		rfq, err = api.NewWithConfig(api.Config{BaseURL: u}.WithOptions(base))
		if err != nil {
			return nil, err
		}
	}

	return &Catalog{
		Customers: resource.NewClient[Customer](svc, Customers),
		Items:     resource.NewClient[Item](svc, Items),
		Programs:  resource.NewClient[Program](svc, Programs),
		RFQs:      resource.NewReader[RFQ](rfq, RFQs),
	}, nil
}

// Every record of every resource type at a point in time
type Snapshot struct {
	Customers []Customer
	Items     []Item
	Programs  []Program
	RFQs      []RFQ
}

// Snapshot lists every resource type concurrently. Each list is an
// independent request; the first failure cancels the rest.
func (c *Catalog) Snapshot(cxt context.Context) (*Snapshot, error) {
	g, cxt := errgroup.WithContext(cxt)
	snap := &Snapshot{}

	g.Go(func() (err error) {
		snap.Customers, err = c.Customers.List(cxt)
		return
	})
	g.Go(func() (err error) {
		snap.Items, err = c.Items.List(cxt)
		return
	})
	g.Go(func() (err error) {
		snap.Programs, err = c.Programs.List(cxt)
		return
	})
	g.Go(func() (err error) {
		snap.RFQs, err = c.RFQs.List(cxt)
		return
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
