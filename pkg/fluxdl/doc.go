// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package fluxdl downloads the FLUX.1 fp8 checkpoints into a ComfyUI
installation.

# Quick Start

	cfg := fluxdl.DefaultSettings()
	cfg.BaseDir = "/opt" // expects /opt/ComfyUI/models/checkpoints

	cat, err := fluxdl.NewCatalog(cfg, fluxdl.DefaultArtifacts())
	if err != nil {
		log.Fatal(err)
	}
	targets, err := cat.ResolveAll()
	if err != nil {
		log.Fatal(err) // *ConfigurationError when a directory is missing
	}

	f, err := fluxdl.NewFetcher(cfg, slog.Default(), nil)
	if err != nil {
		log.Fatal(err)
	}
	report := fluxdl.Dispatch(ctx, f, targets, false, 0)
	if err := report.Err(); err != nil {
		log.Fatal(err)
	}

# Presence

A file at the destination path means the artifact is installed. Downloads
are written to a hidden ".<filename>.*.part" file in the checkpoints
directory and renamed on success, so an interrupted run never leaves a
truncated file under the final name.

# Progress Events

The ProgressFunc callback receives:

  - file_start: headers received, Total is the Content-Length (0 if unknown)
  - file_progress: at most every 200ms, plus once at the end
  - file_done: finished, or skipped (Message starts with "skip")
  - error: the download failed
  - done: Dispatch finished every target

# Errors

Fetch returns *DownloadError; match its kind with errors.Is against
ErrBadStatus, ErrNetwork, ErrTimeout, ErrRemove, ErrCanceled or
ErrFilesystem. Catalog methods return *ConfigurationError (ErrConfiguration)
when the application or checkpoints directory is missing; directories are
never created.

# TLS

Settings.Insecure defaults to true and disables certificate verification.
Proxies come from HTTPS_PROXY, HTTP_PROXY and NO_PROXY.
*/
package fluxdl
