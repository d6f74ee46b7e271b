// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"errors"
	"fmt"
)

// Common errors returned by the library.
var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrBadStatus is returned when the server answers with a status other than 200.
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrNetwork is returned for connection, DNS, TLS, and mid-body transport failures.
	ErrNetwork = errors.New("network error")

	// ErrTimeout is returned when a download exceeds Settings.Timeout.
	ErrTimeout = errors.New("download timed out")

	// ErrRemove is returned when a reinstall cannot delete the existing file.
	ErrRemove = errors.New("remove existing file")

	// ErrCanceled is returned when the caller's context is canceled.
	ErrCanceled = errors.New("download canceled")

	// ErrFilesystem is returned when the temp file cannot be created, written, or renamed.
	ErrFilesystem = errors.New("filesystem error")

	// ErrShortBody is wrapped when the body ends before Content-Length bytes.
	ErrShortBody = errors.New("body shorter than content length")

	// ErrUnknownArtifact is returned by lookups for an ID not in the catalog.
	ErrUnknownArtifact = errors.New("unknown artifact")
)

// ConfigurationError reports a missing or unusable local directory.
// It is fatal: nothing is downloaded after one is returned.
type ConfigurationError struct {
	Path   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Reason, e.Path)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ErrorKind classifies a DownloadError.
type ErrorKind string

const (
	KindBadStatus ErrorKind = "bad_status"
	KindNetwork   ErrorKind = "network"
	KindTimeout   ErrorKind = "timeout"
	KindRemove    ErrorKind = "remove"
	KindCanceled  ErrorKind = "canceled"
	KindFS        ErrorKind = "filesystem"
)

// DownloadError wraps an error with artifact context.
type DownloadError struct {
	Artifact   string
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Kind == KindBadStatus {
		return fmt.Sprintf("download %s: status %d from %s", e.Artifact, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("download %s: %s: %v", e.Artifact, e.Kind, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is against the kind sentinels.
func (e *DownloadError) Is(target error) bool {
	switch e.Kind {
	case KindBadStatus:
		return target == ErrBadStatus
	case KindNetwork:
		return target == ErrNetwork
	case KindTimeout:
		return target == ErrTimeout
	case KindRemove:
		return target == ErrRemove
	case KindCanceled:
		return target == ErrCanceled
	case KindFS:
		return target == ErrFilesystem
	default:
		return false
	}
}
