// Package fakeservice is an in-memory stand-in for the quotation service.
// It implements the resource endpoints over HTTP and records every request
// it receives so that tests can inspect exactly what a client sent.
package fakeservice

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

var Resources = []string{"customers", "items", "program", "rfq"}

// A request as received by the service
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   map[string]any
}

type fault struct {
	status    int
	malformed bool
}

type Service struct {
	*httptest.Server

	mu      sync.Mutex
	serial  int
	records map[string]map[string]map[string]any
	order   map[string][]string
	reqs    []Request
	fault   *fault
}

func New() *Service {
	s := &Service{
		records: make(map[string]map[string]map[string]any),
		order:   make(map[string][]string),
	}
	for _, r := range Resources {
		s.records[r] = make(map[string]map[string]any)
	}

	r := chi.NewRouter()
	r.Use(s.capture, s.inject)
	r.Route("/api/{resource}", func(r chi.Router) {
		r.Use(s.known)
		r.Get("/list", s.handleList)
		r.Get("/get/{id}", s.handleGet)
		r.Post("/add", s.handleAdd)
		r.Put("/update/{id}", s.handleUpdate)
		r.Delete("/delete/{id}", s.handleDelete)
		r.Put("/summary/{id}", s.handleSummary)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Seed stores a record verbatim and returns its identifier. A record without
// an id is assigned one.
func (s *Service) Seed(resource string, rec map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(resource, rec)
}

// Record returns a copy of a stored record, or nil if none exists
func (s *Service) Record(resource, id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[resource][id]
	if !ok {
		return nil
	}
	return copyRecord(rec)
}

// Strip removes fields from a stored record, leaving it addressable by its
// original identifier
func (s *Service) Strip(resource, id string, fields ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[resource][id]; ok {
		for _, f := range fields {
			delete(rec, f)
		}
	}
}

// Fail causes every subsequent request to be answered with the status
func (s *Service) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = &fault{status: status}
}

// Malform causes every subsequent request to be answered with a body that
// is not valid JSON, with a success status
func (s *Service) Malform() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = &fault{status: http.StatusOK, malformed: true}
}

func (s *Service) Recover() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = nil
}

// Requests returns every request received so far
func (s *Service) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.reqs...)
}

// LastRequest returns the most recent request, if any
func (s *Service) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reqs) == 0 {
		return Request{}, false
	}
	return s.reqs[len(s.reqs)-1], true
}

func (s *Service) insert(resource string, rec map[string]any) string {
	id, _ := rec["id"].(string)
	if id == "" {
		s.serial++
		id = fmt.Sprintf("%s-%d", resource, s.serial)
		rec["id"] = id
	}
	if _, ok := s.records[resource][id]; !ok {
		s.order[resource] = append(s.order[resource], id)
	}
	s.records[resource][id] = rec
	return id
}

func (s *Service) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			if err == nil && len(data) > 0 {
				_ = json.Unmarshal(data, &body)
			}
		}
		s.mu.Lock()
		s.reqs = append(s.reqs, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		if body != nil {
			r = r.WithContext(withBody(r.Context(), body))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f := s.fault
		s.mu.Unlock()
		switch {
		case f == nil:
			next.ServeHTTP(w, r)
		case f.malformed:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			io.WriteString(w, `{"id": "broken", "name": `)
		default:
			writeJSON(w, f.status, map[string]any{"detail": http.StatusText(f.status)})
		}
	})
}

func (s *Service) known(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.records[chi.URLParam(r, "resource")]; !ok {
			notFound(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	s.mu.Lock()
	res := make([]map[string]any, 0, len(s.order[resource]))
	for _, id := range s.order[resource] {
		res = append(res, copyRecord(s.records[resource][id]))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	rec := s.Record(chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if rec == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Service) handleAdd(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	if body == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "missing body"})
		return
	}
	rec := copyRecord(body)
	delete(rec, "id")
	rec["user_id"] = "user-1"
	if _, ok := rec["status"]; !ok {
		rec["status"] = "active"
	}

	resource := chi.URLParam(r, "resource")
	s.mu.Lock()
	s.insert(resource, rec)
	res := copyRecord(rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	body := bodyFrom(r.Context())

	s.mu.Lock()
	rec, ok := s.records[resource][id]
	if ok {
		for k, v := range body {
			if k != "id" {
				rec[k] = v
			}
		}
	}
	res := copyRecord(rec)
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.records[resource][id]
	if ok {
		delete(s.records[resource], id)
		ids := s.order[resource][:0]
		for _, e := range s.order[resource] {
			if e != id {
				ids = append(ids, e)
			}
		}
		s.order[resource] = ids
	}
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted"})
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	resource, id := chi.URLParam(r, "resource"), chi.URLParam(r, "id")
	body := bodyFrom(r.Context())

	s.mu.Lock()
	rec, ok := s.records[resource][id]
	if ok {
		rec["summary_format"] = body["summary_format"]
	}
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "updated"})
}
