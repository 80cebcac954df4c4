// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// NPMRegistry is an in-process stand-in for the npm registry metadata API.
type NPMRegistry struct {
	*httptest.Server

	requests atomic.Int64
}

// NewNPMRegistry serves {"dist-tags":{"latest":v}} for every package in
// latest and 404 for anything else. Keys are package names as published,
// e.g. "@openai/codex". The server is closed by t.Cleanup.
func NewNPMRegistry(t testing.TB, latest map[string]string) *NPMRegistry {
	t.Helper()

	reg := &NPMRegistry{}
	reg.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.requests.Add(1)

		// r.URL.Path is already unescaped, so "@scope%2Fname" arrives as "@scope/name".
		pkg := strings.TrimPrefix(r.URL.Path, "/")
		v, ok := latest[pkg]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		doc := map[string]any{"name": pkg, "dist-tags": map[string]string{"latest": v}}
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encoding registry response: %v", err)
		}
	}))
	t.Cleanup(reg.Close)

	return reg
}

// Requests returns how many requests the registry has served.
func (r *NPMRegistry) Requests() int64 {
	return r.requests.Load()
}
