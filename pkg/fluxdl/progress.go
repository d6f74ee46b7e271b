// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import "time"

// ProgressState is the byte counter of a single download. Only the
// goroutine running that download mutates it.
type ProgressState struct {
	Received uint64
	Total    uint64 // 0 when unknown
}

// Fraction returns Received/Total in [0,1], or -1 when Total is unknown.
func (p ProgressState) Fraction() float64 {
	if p.Total == 0 {
		return -1
	}
	f := float64(p.Received) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// progressTracker turns chunk-level updates into throttled file_progress events.
type progressTracker struct {
	state    ProgressState
	artifact string
	path     string
	emit     func(ProgressEvent)
	lastEmit time.Time
	interval time.Duration
	sent     uint64
}

func newProgressTracker(artifact, path string, total uint64, interval time.Duration, emit func(ProgressEvent)) *progressTracker {
	return &progressTracker{
		state:    ProgressState{Total: total},
		artifact: artifact,
		path:     path,
		emit:     emit,
		lastEmit: time.Now(),
		interval: interval,
	}
}

// add records n more bytes and emits at most once per interval.
func (pt *progressTracker) add(n int) {
	if n <= 0 {
		return
	}
	pt.state.Received += uint64(n)
	if time.Since(pt.lastEmit) >= pt.interval {
		pt.send()
	}
}

// flush emits the final count unless it was already sent.
func (pt *progressTracker) flush() {
	if pt.sent != pt.state.Received || pt.state.Received == 0 {
		pt.send()
	}
}

func (pt *progressTracker) send() {
	pt.emit(ProgressEvent{
		Event:      "file_progress",
		Artifact:   pt.artifact,
		Path:       pt.path,
		Downloaded: int64(pt.state.Received),
		Total:      int64(pt.state.Total),
	})
	pt.sent = pt.state.Received
	pt.lastEmit = time.Now()
}
