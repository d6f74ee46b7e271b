// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// LiveRenderer draws one progress bar per file, keyed by file name.
// Log output written through it appears above the bars, so concurrent
// downloads and log lines never tear each other's lines.
type LiveRenderer struct {
	p *mpb.Progress

	mu     sync.Mutex
	files  map[string]*fileState
	closed bool
}

type fileState struct {
	bar    *mpb.Bar
	total  int64
	status string // "downloading","done","error"
}

// NewLiveRenderer creates a renderer writing to out.
func NewLiveRenderer(out io.Writer) *LiveRenderer {
	w, _ := termSize()
	return &LiveRenderer{
		p: mpb.New(
			mpb.WithOutput(out),
			mpb.WithAutoRefresh(),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(barWidth(w)),
		),
		files: map[string]*fileState{},
	}
}

// Write prints p above the bars.
func (lr *LiveRenderer) Write(p []byte) (int, error) {
	return lr.p.Write(p)
}

// Handler returns a ProgressFunc that feeds events to the renderer.
func (lr *LiveRenderer) Handler() fluxdl.ProgressFunc {
	return lr.apply
}

// Close aborts bars that never finished and waits for the final redraw.
func (lr *LiveRenderer) Close() {
	lr.mu.Lock()
	if lr.closed {
		lr.mu.Unlock()
		return
	}
	lr.closed = true
	for _, fs := range lr.files {
		if !fs.bar.Completed() && !fs.bar.Aborted() {
			fs.bar.Abort(false)
		}
	}
	lr.mu.Unlock()
	lr.p.Wait()
}

func (lr *LiveRenderer) apply(ev fluxdl.ProgressEvent) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.closed {
		return
	}

	switch ev.Event {
	case "file_start":
		lr.ensure(ev.Path, ev.Total)
	case "file_progress":
		fs := lr.ensure(ev.Path, ev.Total)
		fs.bar.SetCurrent(ev.Downloaded)
	case "file_done":
		if strings.HasPrefix(strings.ToLower(ev.Message), "skip") {
			fmt.Fprintf(lr.p, "%s %s already downloaded\n", color.BlueString("•"), ev.Path)
			return
		}
		fs := lr.ensure(ev.Path, ev.Total)
		fs.status = "done"
		if fs.total > 0 {
			fs.bar.SetCurrent(fs.total)
		} else {
			fs.bar.SetCurrent(ev.Downloaded)
			fs.bar.SetTotal(-1, true)
		}
	case "error":
		if fs, ok := lr.files[ev.Path]; ok {
			fs.status = "error"
			fs.bar.Abort(false)
		}
		fmt.Fprintf(lr.p, "%s %s: %s\n", color.RedString("×"), ev.Path, ev.Message)
	}
}

// ensure returns the bar for path, creating it on first sight.
func (lr *LiveRenderer) ensure(path string, total int64) *fileState {
	if fs, ok := lr.files[path]; ok {
		return fs
	}
	fs := &fileState{total: total, status: "downloading"}
	fs.bar = lr.p.AddBar(total, barOptions(path, total)...)
	lr.files[path] = fs
	return fs
}

func barOptions(name string, total int64) []mpb.BarOption {
	label := decor.Name(name, decor.WC{C: decor.DindentRight | decor.DextraSpace})
	speed := decor.AverageSpeed(decor.SizeB1024(0), "% .1f", decor.WCSyncSpace)

	if total <= 0 {
		// Unknown size: a running byte counter instead of a percentage.
		return []mpb.BarOption{
			mpb.PrependDecorators(
				label,
				decor.OnAbort(decor.OnComplete(decor.CurrentKibiByte("% .1f", decor.WCSyncWidth), "done"), "failed"),
			),
			mpb.AppendDecorators(speed),
		}
	}
	return []mpb.BarOption{
		mpb.PrependDecorators(
			label,
			decor.OnAbort(decor.OnComplete(decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth), "done"), "failed"),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			speed,
		),
	}
}

func barWidth(termWidth int) int {
	w := termWidth / 3
	if w < 20 {
		return 20
	}
	if w > 60 {
		return 60
	}
	return w
}

func termSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 100, 30
	}
	return w, h
}

// Supported reports whether stdout can host the live renderer.
func Supported() bool {
	return isInteractive() && ansiOkay()
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func ansiOkay() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	return termEnv != "dumb"
}
