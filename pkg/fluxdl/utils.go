// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks the settings and reports every invalid field.
func (s Settings) Validate() error {
	if err := check(s); err != nil {
		return err
	}
	var fields FieldErrors
	if _, err := parseDuration(s.Timeout); err != nil {
		fields = append(fields, FieldError{Field: "timeout", Err: err.Error()})
	}
	if n, err := parseSizeString(s.ChunkSize, defaultChunkSize); err != nil {
		fields = append(fields, FieldError{Field: "chunk-size", Err: err.Error()})
	} else if n <= 0 {
		fields = append(fields, FieldError{Field: "chunk-size", Err: "must be greater than zero"})
	}
	if n, err := parseSizeString(s.RateLimit, 0); err != nil {
		fields = append(fields, FieldError{Field: "rate-limit", Err: err.Error()})
	} else if n < 0 {
		fields = append(fields, FieldError{Field: "rate-limit", Err: "must not be negative"})
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// parseDuration parses a duration; empty and "0" mean no limit.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// parseSizeString parses a human-readable size string (e.g., "32MiB") to bytes.
func parseSizeString(s string, def int64) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	var n float64
	var unit string
	_, err := fmt.Sscanf(strings.ToUpper(strings.TrimSpace(s)), "%f%s", &n, &unit)
	if err != nil {
		var nn int64
		if _, e2 := fmt.Sscanf(s, "%d", &nn); e2 == nil {
			return nn, nil
		}
		return 0, err
	}
	switch unit {
	case "B", "":
		return int64(n), nil
	case "KB":
		return int64(n * 1000), nil
	case "MB":
		return int64(n * 1000 * 1000), nil
	case "GB":
		return int64(n * 1000 * 1000 * 1000), nil
	case "KIB":
		return int64(n * 1024), nil
	case "MIB":
		return int64(n * 1024 * 1024), nil
	case "GIB":
		return int64(n * 1024 * 1024 * 1024), nil
	default:
		return 0, fmt.Errorf("unknown unit %q", unit)
	}
}

// defaultString returns s if non-empty, otherwise def.
func defaultString(s string, def string) string {
	if s == "" {
		return def
	}
	return s
}

// HumanBytes formats n with binary units ("17.2 GiB").
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n/div >= unit && exp < 6 {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
