// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package menu renders the numbered artifact menu and reads a choice.
package menu

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// Option is one numbered menu entry.
type Option struct {
	Key       string   // "1", "2", ...
	Label     string   // "Flux Dev (17.2G)"
	IDs       []string // artifacts selected by this entry
	Reinstall bool
}

// Build returns the menu for targets: one entry per artifact, then "All",
// then "Reinstall existing" when at least one target is already present.
func Build(targets []fluxdl.Target) []Option {
	opts := make([]Option, 0, len(targets)+2)
	all := make([]string, 0, len(targets))
	var existing []string
	var hints []string
	for _, t := range targets {
		a := t.Artifact
		opts = append(opts, Option{
			Key:   strconv.Itoa(len(opts) + 1),
			Label: withHint(a.Name, a.SizeHint),
			IDs:   []string{a.ID},
		})
		all = append(all, a.ID)
		hints = append(hints, a.SizeHint)
		if t.Exists {
			existing = append(existing, a.ID)
		}
	}
	if len(targets) > 1 {
		opts = append(opts, Option{
			Key:   strconv.Itoa(len(opts) + 1),
			Label: withHint("All", sumHints(hints)),
			IDs:   all,
		})
	}
	if len(existing) > 0 {
		opts = append(opts, Option{
			Key:       strconv.Itoa(len(opts) + 1),
			Label:     "Reinstall existing (" + strings.Join(existing, ", ") + ")",
			IDs:       existing,
			Reinstall: true,
		})
	}
	return opts
}

// Prompt prints opts to w and reads lines from r until one names a valid
// option. Invalid input is answered with the list of valid keys and the
// menu is shown again; there is no retry limit. Running out of input
// returns an error wrapping io.EOF.
func Prompt(r io.Reader, w io.Writer, opts []Option) (Option, error) {
	if len(opts) == 0 {
		return Option{}, fmt.Errorf("menu: no options")
	}
	keys := make([]string, len(opts))
	for i, o := range opts {
		keys[i] = o.Key
	}
	bold := color.New(color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	sc := bufio.NewScanner(r)
	for {
		fmt.Fprintln(w, bold("Select models to download:"))
		for _, o := range opts {
			fmt.Fprintf(w, "%s. %s\n", o.Key, o.Label)
		}
		fmt.Fprintf(w, "Enter your choice (%s): ", strings.Join(keys, "/"))

		if !sc.Scan() {
			fmt.Fprintln(w)
			if err := sc.Err(); err != nil {
				return Option{}, fmt.Errorf("menu: read choice: %w", err)
			}
			return Option{}, fmt.Errorf("menu: no choice made: %w", io.EOF)
		}
		choice := strings.TrimSpace(sc.Text())
		for _, o := range opts {
			if o.Key == choice {
				return o, nil
			}
		}
		fmt.Fprintln(w, warn("Invalid choice. Please enter "+enumerate(keys)+"."))
	}
}

func withHint(name, hint string) string {
	if hint == "" {
		return name
	}
	return name + " (" + hint + ")"
}

// sumHints adds size hints such as "17.2G"; it returns "" when any hint
// is missing or uses a different unit.
func sumHints(hints []string) string {
	var total float64
	unit := ""
	for _, h := range hints {
		if h == "" {
			return ""
		}
		i := strings.IndexFunc(h, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
		if i <= 0 {
			return ""
		}
		n, err := strconv.ParseFloat(h[:i], 64)
		if err != nil {
			return ""
		}
		if unit != "" && unit != h[i:] {
			return ""
		}
		unit = h[i:]
		total += n
	}
	return strconv.FormatFloat(total, 'f', 1, 64) + unit
}

// enumerate joins keys as "1, 2, or 3".
func enumerate(keys []string) string {
	switch len(keys) {
	case 1:
		return keys[0]
	case 2:
		return keys[0] + " or " + keys[1]
	default:
		return strings.Join(keys[:len(keys)-1], ", ") + ", or " + keys[len(keys)-1]
	}
}
