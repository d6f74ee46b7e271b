// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// lockedBuffer is written by the mpb render goroutine and read by the test.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func TestLiveRenderer_Lifecycle(t *testing.T) {
	var out lockedBuffer
	lr := NewLiveRenderer(&out)
	h := lr.Handler()

	h(fluxdl.ProgressEvent{Event: "file_start", Path: "a.safetensors", Total: 100})
	h(fluxdl.ProgressEvent{Event: "file_start", Path: "b.safetensors", Total: 0})
	h(fluxdl.ProgressEvent{Event: "file_progress", Path: "a.safetensors", Downloaded: 50, Total: 100})
	h(fluxdl.ProgressEvent{Event: "file_progress", Path: "b.safetensors", Downloaded: 70})
	h(fluxdl.ProgressEvent{Event: "file_done", Path: "a.safetensors", Downloaded: 100, Total: 100})
	h(fluxdl.ProgressEvent{Event: "error", Path: "b.safetensors", Message: "connection reset"})
	h(fluxdl.ProgressEvent{Event: "file_done", Path: "c.safetensors", Message: "skip (exists)"})

	lr.mu.Lock()
	if n := len(lr.files); n != 2 {
		t.Errorf("Expected 2 bars (skips get no bar), got %d", n)
	}
	if st := lr.files["a.safetensors"].status; st != "done" {
		t.Errorf("Expected a done, got %s", st)
	}
	if st := lr.files["b.safetensors"].status; st != "error" {
		t.Errorf("Expected b error, got %s", st)
	}
	lr.mu.Unlock()

	lr.Close()
	lr.Close() // idempotent

	text := out.String()
	for _, want := range []string{"a.safetensors", "c.safetensors already downloaded", "b.safetensors: connection reset"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, text)
		}
	}

	// Events after Close are ignored.
	h(fluxdl.ProgressEvent{Event: "file_start", Path: "late", Total: 1})
	if _, ok := lr.files["late"]; ok {
		t.Error("Renderer accepted an event after Close")
	}
}

func TestLiveRenderer_CloseAbortsUnfinished(t *testing.T) {
	var out lockedBuffer
	lr := NewLiveRenderer(&out)
	lr.Handler()(fluxdl.ProgressEvent{Event: "file_progress", Path: "stuck", Downloaded: 1, Total: 10})

	done := make(chan struct{})
	go func() {
		lr.Close()
		close(done)
	}()
	<-done
	if !lr.files["stuck"].bar.Aborted() {
		t.Error("Expected unfinished bar to be aborted on Close")
	}
}

func TestPrintSummary(t *testing.T) {
	arts := fluxdl.DefaultArtifacts()
	r := &fluxdl.Report{Outcomes: []fluxdl.Outcome{
		{Artifact: arts[0], Status: fluxdl.StatusDownloaded, Bytes: 2048, Reinstalled: true},
		{Artifact: arts[1], Status: fluxdl.StatusFailed, Err: errors.New("status 500")},
	}}
	var out bytes.Buffer
	PrintSummary(&out, r)
	text := out.String()
	for _, want := range []string{"Flux Dev", "reinstalled (2.0 KiB)", "Flux Schnell", "failed: status 500", "Downloaded 1, skipped 0, failed 1."} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, text)
		}
	}
}

func TestBarWidth(t *testing.T) {
	for in, want := range map[int]int{30: 20, 120: 40, 400: 60} {
		if got := barWidth(in); got != want {
			t.Errorf("barWidth(%d) = %d, want %d", in, got, want)
		}
	}
}
