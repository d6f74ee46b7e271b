// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import "time"

// Artifact is one downloadable model-weight file.
//
// Artifacts come from a fixed table (see DefaultArtifacts). ID and
// Filename must be unique within a catalog.
type Artifact struct {
	// ID is the short identifier used on the command line and in logs,
	// e.g. "dev" or "schnell".
	ID string `json:"id" yaml:"id" validate:"required,alphanum"`

	// Name is the human-readable label shown in the menu.
	Name string `json:"name" yaml:"name" validate:"required"`

	// URL is the absolute source URL.
	URL string `json:"url" yaml:"url" validate:"required,http_url"`

	// Filename is the bare file name written under the checkpoints
	// directory. It must not contain path separators.
	Filename string `json:"filename" yaml:"filename" validate:"required,excludesall=/\\"`

	// SizeHint is a display-only size such as "17.2G".
	SizeHint string `json:"sizeHint,omitempty" yaml:"sizeHint,omitempty"`
}

// Target is an Artifact resolved against the local filesystem.
//
// Targets are cheap to rebuild; Exists reflects the filesystem at the
// time Catalog.Resolve ran.
type Target struct {
	Artifact Artifact `json:"artifact"`
	Path     string   `json:"path"`
	Exists   bool     `json:"exists"`
}

// Settings configures where artifacts live and how they are fetched.
//
// Example:
//
//	cfg := fluxdl.DefaultSettings()
//	cfg.BaseDir = "/opt"
//	cfg.Timeout = "2h"
type Settings struct {
	// BaseDir holds the application directory. Artifacts are stored in
	// <BaseDir>/<AppDir>/models/checkpoints.
	// If empty, the current working directory is used.
	BaseDir string `json:"base-dir" yaml:"base-dir"`

	// AppDir is the application directory name under BaseDir.
	// Defaults to "ComfyUI".
	AppDir string `json:"app-dir" yaml:"app-dir" validate:"required,excludesall=/\\"`

	// Insecure disables TLS certificate verification for downloads.
	// Proxy settings from the environment are honored either way.
	Insecure bool `json:"insecure" yaml:"insecure"`

	// Timeout bounds each download. Accepts duration strings ("30m").
	// Empty or "0" means no timeout.
	Timeout string `json:"timeout" yaml:"timeout"`

	// ChunkSize is the read size for the response body.
	// Accepts human-readable sizes: "1KiB", "64KiB", "1MiB".
	// Defaults to "1KiB".
	ChunkSize string `json:"chunk-size" yaml:"chunk-size"`

	// MaxActiveDownloads caps concurrent downloads. 0 runs every
	// selected artifact at once.
	MaxActiveDownloads int `json:"max-active" yaml:"max-active" validate:"gte=0"`

	// RateLimit caps the transfer rate of each download, per second.
	// Accepts human-readable sizes ("50MiB"). Empty means unlimited.
	RateLimit string `json:"rate-limit" yaml:"rate-limit"`

	// Endpoint rebases every artifact URL onto another scheme and host,
	// for mirrors. Empty keeps the catalog URLs.
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"omitempty,http_url"`
}

// ProgressEvent represents a progress update during a download run.
//
// The Event field indicates the type of event:
//   - "file_start": download of a file has started
//   - "file_progress": periodic progress update during download
//   - "file_done": file download complete (Message starts with "skip" if skipped)
//   - "error": a download failed
//   - "done": all dispatched downloads finished
type ProgressEvent struct {
	Time  time.Time `json:"time"`
	Level string    `json:"level,omitempty"`
	Event string    `json:"event"`

	// Artifact is the artifact ID.
	Artifact string `json:"artifact,omitempty"`

	// Path is the destination file name; renderers key lines by it.
	Path string `json:"path,omitempty"`

	// Downloaded is the cumulative number of bytes received.
	Downloaded int64 `json:"downloaded,omitempty"`

	// Total is the declared size, 0 when the server did not send one.
	Total int64 `json:"total,omitempty"`

	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. It is called from multiple
// goroutines and must be safe for concurrent use.
type ProgressFunc func(ProgressEvent)

// DefaultSettings returns Settings with defaults filled in.
func DefaultSettings() Settings {
	return Settings{
		AppDir:    "ComfyUI",
		Insecure:  true,
		ChunkSize: "1KiB",
	}
}
