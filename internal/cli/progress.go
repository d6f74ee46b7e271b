// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bodaay/FluxModelDownloader/internal/tui"
	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// renderer pairs a progress handler with the logger whose output must
// share the terminal with it.
type renderer struct {
	progress fluxdl.ProgressFunc
	logger   *slog.Logger
	close    func()
}

// newRenderer picks JSON events, live bars or plain lines, in that order.
func newRenderer(cmd *cobra.Command, ro *RootOpts, logs *logSetup) renderer {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	switch {
	case ro.JSONOut:
		return renderer{progress: jsonProgress(out, logs.run), logger: logs.logger(errOut), close: func() {}}
	case !ro.Quiet && out == os.Stdout && tui.Supported():
		lr := tui.NewLiveRenderer(out)
		return renderer{progress: lr.Handler(), logger: logs.logger(lr), close: lr.Close}
	default:
		return renderer{progress: cliProgress(out, ro.Quiet), logger: logs.logger(errOut), close: func() {}}
	}
}

// cliProgress returns a simple text-based progress handler. Progress
// lines are printed every 10%; quiet mode prints results only.
func cliProgress(w io.Writer, quiet bool) fluxdl.ProgressFunc {
	var mu sync.Mutex
	lastStep := map[string]int64{}
	return func(ev fluxdl.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Event {
		case "file_start":
			if quiet {
				return
			}
			size := "unknown size"
			if ev.Total > 0 {
				size = fluxdl.HumanBytes(ev.Total)
			}
			fmt.Fprintf(w, "downloading: %s (%s)\n", ev.Path, size)
		case "file_progress":
			if quiet || ev.Total <= 0 {
				return
			}
			step := ev.Downloaded * 10 / ev.Total
			if step <= lastStep[ev.Path] || step >= 10 {
				return
			}
			lastStep[ev.Path] = step
			fmt.Fprintf(w, "  %s: %d%% (%s / %s)\n", ev.Path, step*10, fluxdl.HumanBytes(ev.Downloaded), fluxdl.HumanBytes(ev.Total))
		case "file_done":
			delete(lastStep, ev.Path)
			if strings.HasPrefix(ev.Message, "skip") {
				fmt.Fprintf(w, "skip: %s (already downloaded)\n", ev.Path)
			} else {
				fmt.Fprintf(w, "done: %s (%s)\n", ev.Path, fluxdl.HumanBytes(ev.Downloaded))
			}
		case "error":
			delete(lastStep, ev.Path)
			fmt.Fprintf(w, "error: %s: %s\n", ev.Path, ev.Message)
		}
	}
}

// jsonEvent is one line of --json output.
type jsonEvent struct {
	Run string `json:"run"`
	fluxdl.ProgressEvent
}

// jsonProgress returns a JSON-lines progress handler.
func jsonProgress(w io.Writer, run string) fluxdl.ProgressFunc {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	var mu sync.Mutex
	return func(ev fluxdl.ProgressEvent) {
		mu.Lock()
		_ = enc.Encode(jsonEvent{Run: run, ProgressEvent: ev})
		mu.Unlock()
	}
}
