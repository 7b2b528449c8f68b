package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrUnsupportedMimetype       = errors.New("Unsupported content type")
	ErrUnexpectedStatusCode      = errors.New("Unexpected status code")
	ErrCouldNotUnmarshalResponse = errors.New("Could not unmarshal response")
	ErrInvalidEntity             = errors.New("Invalid entity")
)

// the most of an error response body we will retain for diagnostics
const maxErrorEntity = 1 << 16

func wrapErr(err, base error) error {
	return wrappedErr{
		Err:  err,
		Base: base,
	}
}

type wrappedErr struct {
	Err, Base error
}

func (e wrappedErr) Error() string {
	return e.Err.Error()
}

func (e wrappedErr) Unwrap() []error {
	return []error{e.Base, e.Err}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func checkErr(reqid int64, req *http.Request, rsp *http.Response) error {
	if !isSuccess(rsp.StatusCode) {
		return Errorf(rsp.StatusCode, "Unexpected status code: %d %s", rsp.StatusCode, http.StatusText(rsp.StatusCode)).SetId(reqid).SetRequest(req).SetEntityFromResponse(rsp)
	}
	return nil
}

// An application-level error. Any response outside of 2XX produces one of
// these, as does a 2XX response whose entity cannot be decoded; in the latter
// case Cause wraps ErrCouldNotUnmarshalResponse.
type Error struct {
	ReqId   int64
	Status  int
	Method  string
	URL     string
	Entity  *Entity
	Message string
	Cause   error
}

func Errorf(s int, f string, a ...interface{}) *Error {
	return &Error{
		Status:  s,
		Message: fmt.Sprintf(f, a...),
	}
}

func (e *Error) SetId(id int64) *Error {
	e.ReqId = id
	return e
}

func (e *Error) SetRequest(req *http.Request) *Error {
	e.Method = req.Method
	e.URL = req.URL.String()
	return e
}

func (e *Error) SetEntity(ent *Entity) *Error {
	e.Entity = ent
	return e
}

// The body is kept verbatim; it is never interpreted.
func (e *Error) SetEntityFromResponse(rsp *http.Response) *Error {
	data, err := io.ReadAll(io.LimitReader(rsp.Body, maxErrorEntity))
	if err == nil && len(data) > 0 {
		e.SetEntity(&Entity{
			ContentType: rsp.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return e
}

func (e *Error) SetCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches ErrUnexpectedStatusCode for any error produced by a non-2XX status.
func (e *Error) Is(target error) bool {
	return target == ErrUnexpectedStatusCode && !isSuccess(e.Status)
}

func (e *Error) Error() string {
	b := fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	if c := e.Cause; c != nil {
		b += fmt.Sprintf("; because: %s", c.Error())
	}
	if x := e.Entity; x != nil {
		b += "\n" + x.String()
	}
	return b
}

// EntityError reports a response entity that decoded but failed validation.
// It is treated like any other entity that could not be unmarshaled.
func EntityError(rsp *http.Response, cause error) *Error {
	e := Errorf(rsp.StatusCode, "Invalid response entity").SetCause(wrapErr(fmt.Errorf("%w: %w", ErrInvalidEntity, cause), ErrCouldNotUnmarshalResponse))
	if req := rsp.Request; req != nil {
		e.SetRequest(req)
	}
	return e
}

// StatusCode returns the HTTP status of an application error produced by a
// non-2XX response, or zero for any other error.
func StatusCode(err error) int {
	var apierr *Error
	if errors.As(err, &apierr) && !isSuccess(apierr.Status) {
		return apierr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
