package fakeservice

import (
	"context"
	"encoding/json"
	"net/http"
)

type bodyKey struct{}

func withBody(cxt context.Context, body map[string]any) context.Context {
	return context.WithValue(cxt, bodyKey{}, body)
}

func bodyFrom(cxt context.Context) map[string]any {
	v, _ := cxt.Value(bodyKey{}).(map[string]any)
	return v
}

func copyRecord(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	d := make(map[string]any, len(rec))
	for k, v := range rec {
		d[k] = v
	}
	return d
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "We could not find what you're looking for :/"})
}
