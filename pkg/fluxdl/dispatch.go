// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Status is the final state of one artifact in a run.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
)

// Outcome is the per-artifact result of a run.
type Outcome struct {
	Artifact    Artifact `json:"artifact"`
	Path        string   `json:"path"`
	Status      Status   `json:"status"`
	Reinstalled bool     `json:"reinstalled,omitempty"`
	Bytes       int64    `json:"bytes,omitempty"`
	Err         error    `json:"-"`
}

// Report lists outcomes in dispatch order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes whose download did not succeed.
func (r *Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Counts returns the number of downloaded, skipped, and failed artifacts.
func (r *Report) Counts() (downloaded, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusDownloaded:
			downloaded++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return downloaded, skipped, failed
}

// Err joins the errors of every failed outcome, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// Dispatch fetches every target concurrently and returns once all of them
// finished. A failed download never cancels its siblings. maxActive caps
// how many run at once; 0 means no cap.
func Dispatch(ctx context.Context, f *Fetcher, targets []Target, reinstall bool, maxActive int) *Report {
	if ctx == nil {
		ctx = context.Background()
	}
	report := &Report{Outcomes: make([]Outcome, len(targets))}

	// Plain Group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	if maxActive > 0 {
		g.SetLimit(maxActive)
	}
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			// Each goroutine owns exactly one slot of Outcomes.
			report.Outcomes[i], _ = f.Fetch(ctx, t, reinstall)
			return nil
		})
	}
	_ = g.Wait()

	d, s, failed := report.Counts()
	f.emit(ProgressEvent{
		Event:   "done",
		Message: fmt.Sprintf("downloaded %d, skipped %d, failed %d", d, s, failed),
	})
	return report
}
