// The events interface provides a mechanism to observe the requests a client
// issues in a central place. This is how request logging is attached to a
// client, and it may be useful for debugging a variety of operations centrally.
package events

import (
	"net/http"
)

type Observers struct {
	observers  []interface{} // all observers
	preflight  []PreflightObserver
	postflight []PostflightObserver
	failure    []ErrorObserver
}

// New creates a set of observers. Each observer is registered for every
// observer interface it implements.
func New(obs ...interface{}) *Observers {
	o := &Observers{}
	for _, e := range obs {
		o.Add(e)
	}
	return o
}

func (o *Observers) Add(add interface{}) {
	o.observers = append(o.observers, add)
	if c, ok := add.(PreflightObserver); ok {
		o.preflight = append(o.preflight, c)
	}
	if c, ok := add.(PostflightObserver); ok {
		o.postflight = append(o.postflight, c)
	}
	if c, ok := add.(ErrorObserver); ok {
		o.failure = append(o.failure, c)
	}
}

func (o *Observers) Len() int {
	if o == nil {
		return 0
	}
	return len(o.observers)
}

// WillSendRequest is invoked before a request is sent. An error from any
// observer prevents the request from being sent.
func (o *Observers) WillSendRequest(req *http.Request) error {
	if o == nil {
		return nil
	}
	for _, obs := range o.preflight {
		err := obs.WillSendRequest(req)
		if err != nil {
			return err
		}
	}
	return nil
}

// DidReceiveResponse is invoked after a successful response has been received
// but before its entity is consumed.
func (o *Observers) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	if o == nil {
		return nil
	}
	for _, obs := range o.postflight {
		err := obs.DidReceiveResponse(req, rsp)
		if err != nil {
			return err
		}
	}
	return nil
}

// RequestFailedWithError is invoked when a request fails. The response is nil
// when the failure occurred in transport.
func (o *Observers) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	if o == nil {
		return nil
	}
	for _, obs := range o.failure {
		err := obs.RequestFailedWithError(req, rsp, err)
		if err != nil {
			return err
		}
	}
	return nil
}
