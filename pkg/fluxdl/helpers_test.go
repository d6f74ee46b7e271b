// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// newInstall creates <tmp>/ComfyUI/models/checkpoints and returns settings
// pointing at it.
func newInstall(t *testing.T) Settings {
	t.Helper()
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "ComfyUI", "models", "checkpoints"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultSettings()
	cfg.BaseDir = base
	return cfg
}

// payload returns n deterministic bytes.
func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// blobServer serves fixed bodies by path and counts requests per path.
type blobServer struct {
	*httptest.Server
	mu    sync.Mutex
	blobs map[string][]byte
	hits  map[string]*atomic.Int64
}

func newBlobServer(t *testing.T, blobs map[string][]byte) *blobServer {
	t.Helper()
	bs := &blobServer{blobs: blobs, hits: map[string]*atomic.Int64{}}
	for p := range blobs {
		bs.hits[p] = &atomic.Int64{}
	}
	bs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs.mu.Lock()
		body, ok := bs.blobs[r.URL.Path]
		counter := bs.hits[r.URL.Path]
		bs.mu.Unlock()
		if counter != nil {
			counter.Add(1)
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}))
	t.Cleanup(bs.Close)
	return bs
}

func (bs *blobServer) Hits(path string) int64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if c := bs.hits[path]; c != nil {
		return c.Load()
	}
	return 0
}

// testArtifacts returns dev/schnell artifacts served by srvURL.
func testArtifacts(srvURL string) []Artifact {
	return []Artifact{
		{ID: "dev", Name: "Flux Dev", URL: srvURL + "/dev", Filename: "flux1-dev-fp8.safetensors", SizeHint: "17.2G"},
		{ID: "schnell", Name: "Flux Schnell", URL: srvURL + "/schnell", Filename: "flux1-schnell-fp8.safetensors", SizeHint: "17.2G"},
	}
}

// eventLog records progress events from concurrent goroutines.
type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) Handler() ProgressFunc {
	return func(ev ProgressEvent) {
		l.mu.Lock()
		l.events = append(l.events, ev)
		l.mu.Unlock()
	}
}

func (l *eventLog) ByPath(path, event string) []ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ProgressEvent
	for _, ev := range l.events {
		if ev.Path == path && ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func mustNewFetcher(t *testing.T, cfg Settings, progress ProgressFunc) *Fetcher {
	t.Helper()
	f, err := NewFetcher(cfg, nil, progress)
	if err != nil {
		t.Fatalf("NewFetcher failed: %v", err)
	}
	return f
}

func mustResolve(t *testing.T, cat *Catalog, id string) Target {
	t.Helper()
	a, ok := cat.Lookup(id)
	if !ok {
		t.Fatalf("artifact %q not in catalog", id)
	}
	tg, err := cat.Resolve(a)
	if err != nil {
		t.Fatalf("Resolve(%s) failed: %v", id, err)
	}
	return tg
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

// dirEntries lists names in dir, failing the test on error.
func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		names = append(names, e.Name())
	}
	return names
}

func sameBytes(a, b []byte) bool { return bytes.Equal(a, b) }
