package multiplex

import (
	"net/http"

	api "github.com/bww/go-rfqclient/v1"
)

// An ErrorHandler is given the chance to recover from a failed request. It may
// return a replacement response, a nil response to drop the request from the
// result set, or an error to abort the set.
type ErrorHandler interface {
	Handle(*http.Response, error) (*http.Response, error)
}

type ErrorHandlerFunc func(*http.Response, error) (*http.Response, error)

func (f ErrorHandlerFunc) Handle(rsp *http.Response, err error) (*http.Response, error) {
	return f(rsp, err)
}

// IgnoreNotFound drops requests that fail because the resource does not exist
var IgnoreNotFound = ErrorHandlerFunc(func(rsp *http.Response, err error) (*http.Response, error) {
	if api.IsNotFound(err) {
		return nil, nil
	}
	return rsp, err
})
