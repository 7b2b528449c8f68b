package events

import (
	"net/http"
)

// Observes requests before they are sent
type PreflightObserver interface {
	WillSendRequest(req *http.Request) error
}

type PreflightObserverFunc func(req *http.Request) error

func (o PreflightObserverFunc) WillSendRequest(req *http.Request) error {
	return o(req)
}

// Observes successful responses
type PostflightObserver interface {
	DidReceiveResponse(req *http.Request, rsp *http.Response) error
}

type PostflightObserverFunc func(req *http.Request, rsp *http.Response) error

func (o PostflightObserverFunc) DidReceiveResponse(req *http.Request, rsp *http.Response) error {
	return o(req, rsp)
}

// Observes failures, both in transport and those produced by a response status
type ErrorObserver interface {
	RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error
}

type ErrorObserverFunc func(req *http.Request, rsp *http.Response, err error) error

func (o ErrorObserverFunc) RequestFailedWithError(req *http.Request, rsp *http.Response, err error) error {
	return o(req, rsp, err)
}
