// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// PrintSummary writes one line per outcome followed by a totals line.
func PrintSummary(w io.Writer, r *fluxdl.Report) {
	green := color.New(color.FgGreen).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, o := range r.Outcomes {
		switch o.Status {
		case fluxdl.StatusDownloaded:
			verb := "downloaded"
			if o.Reinstalled {
				verb = "reinstalled"
			}
			fmt.Fprintf(w, "%s %-14s %s (%s)\n", green("✓"), o.Artifact.Name, verb, fluxdl.HumanBytes(o.Bytes))
		case fluxdl.StatusSkipped:
			fmt.Fprintf(w, "%s %-14s already downloaded\n", blue("•"), o.Artifact.Name)
		case fluxdl.StatusFailed:
			fmt.Fprintf(w, "%s %-14s failed: %v\n", red("×"), o.Artifact.Name, o.Err)
		}
	}

	d, s, f := r.Counts()
	line := fmt.Sprintf("Downloaded %d, skipped %d, failed %d.", d, s, f)
	if f > 0 {
		fmt.Fprintln(w, red(line))
		return
	}
	fmt.Fprintln(w, green(line))
}
