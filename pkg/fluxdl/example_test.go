// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

func ExampleDispatch() {
	cfg := fluxdl.DefaultSettings()
	cfg.BaseDir = "/opt" // expects /opt/ComfyUI/models/checkpoints
	cfg.Timeout = "2h"

	cat, err := fluxdl.NewCatalog(cfg, fluxdl.DefaultArtifacts())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	targets, err := cat.ResolveAll()
	if errors.Is(err, fluxdl.ErrConfiguration) {
		fmt.Printf("Install ComfyUI first: %v\n", err)
		return
	}

	progress := func(e fluxdl.ProgressEvent) {
		switch e.Event {
		case "file_start":
			fmt.Printf("Downloading %s (%s)\n", e.Path, fluxdl.HumanBytes(e.Total))
		case "file_done":
			fmt.Printf("Done: %s %s\n", e.Path, e.Message)
		}
	}

	f, err := fluxdl.NewFetcher(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)), progress)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	report := fluxdl.Dispatch(context.Background(), f, targets, false, 0)
	for _, o := range report.Outcomes {
		fmt.Printf("%s: %s\n", o.Artifact.ID, o.Status)
	}
}

func ExampleCatalog_Lookup() {
	cat, err := fluxdl.NewCatalog(fluxdl.DefaultSettings(), fluxdl.DefaultArtifacts())
	if err != nil {
		fmt.Println(err)
		return
	}
	a, ok := cat.Lookup("schnell")
	fmt.Println(ok, a.Filename)

	_, ok = cat.Lookup("pro")
	fmt.Println(ok)

	// Output:
	// true flux1-schnell-fp8.safetensors
	// false
}

func ExampleSettings_mirror() {
	cfg := fluxdl.DefaultSettings()
	cfg.Endpoint = "https://hf-mirror.com"

	cat, _ := fluxdl.NewCatalog(cfg, fluxdl.DefaultArtifacts())
	dev, _ := cat.Lookup("dev")
	fmt.Println(dev.URL)

	// Output:
	// https://hf-mirror.com/Comfy-Org/flux1-dev/resolve/main/flux1-dev-fp8.safetensors
}
