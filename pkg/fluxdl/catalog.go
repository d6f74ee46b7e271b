// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultArtifacts returns the FLUX.1 fp8 checkpoints packaged for ComfyUI.
// Credits: https://comfyanonymous.github.io/ComfyUI_examples/flux/
func DefaultArtifacts() []Artifact {
	return []Artifact{
		{
			ID:       "dev",
			Name:     "Flux Dev",
			URL:      "https://huggingface.co/Comfy-Org/flux1-dev/resolve/main/flux1-dev-fp8.safetensors",
			Filename: "flux1-dev-fp8.safetensors",
			SizeHint: "17.2G",
		},
		{
			ID:       "schnell",
			Name:     "Flux Schnell",
			URL:      "https://huggingface.co/Comfy-Org/flux1-schnell/resolve/main/flux1-schnell-fp8.safetensors",
			Filename: "flux1-schnell-fp8.safetensors",
			SizeHint: "17.2G",
		},
	}
}

// Catalog is the fixed artifact table plus the directory it installs into.
type Catalog struct {
	baseDir   string
	appDir    string
	artifacts []Artifact
}

// NewCatalog validates artifacts and binds them to the directories in cfg.
// Artifact URLs are rebased onto cfg.Endpoint when it is set.
func NewCatalog(cfg Settings, artifacts []Artifact) (*Catalog, error) {
	if len(artifacts) == 0 {
		return nil, errors.New("catalog: no artifacts")
	}
	ids := make(map[string]struct{}, len(artifacts))
	names := make(map[string]struct{}, len(artifacts))
	out := make([]Artifact, 0, len(artifacts))
	for i, a := range artifacts {
		if err := check(a); err != nil {
			return nil, fmt.Errorf("catalog: artifact %d: %w", i, err)
		}
		if _, dup := ids[a.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate artifact id %q", a.ID)
		}
		if _, dup := names[a.Filename]; dup {
			return nil, fmt.Errorf("catalog: duplicate filename %q", a.Filename)
		}
		ids[a.ID] = struct{}{}
		names[a.Filename] = struct{}{}

		u, err := rebaseURL(a.URL, cfg.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("catalog: artifact %q: %w", a.ID, err)
		}
		a.URL = u
		out = append(out, a)
	}

	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("catalog: resolve base dir: %w", err)
		}
		base = wd
	}
	return &Catalog{
		baseDir:   base,
		appDir:    defaultString(cfg.AppDir, "ComfyUI"),
		artifacts: out,
	}, nil
}

// Artifacts returns the table in its fixed order.
func (c *Catalog) Artifacts() []Artifact {
	out := make([]Artifact, len(c.artifacts))
	copy(out, c.artifacts)
	return out
}

// Lookup finds an artifact by ID.
func (c *Catalog) Lookup(id string) (Artifact, bool) {
	for _, a := range c.artifacts {
		if a.ID == id {
			return a, true
		}
	}
	return Artifact{}, false
}

// AppDir returns <base>/<app>.
func (c *Catalog) AppDir() string {
	return filepath.Join(c.baseDir, c.appDir)
}

// CheckpointsDir returns <base>/<app>/models/checkpoints.
func (c *Catalog) CheckpointsDir() string {
	return filepath.Join(c.AppDir(), "models", "checkpoints")
}

// Check verifies that the application and checkpoints directories exist.
// It never creates them.
func (c *Catalog) Check() error {
	if err := requireDir(c.AppDir(), c.appDir+" directory not found"); err != nil {
		return err
	}
	return requireDir(c.CheckpointsDir(), "model checkpoints directory not found")
}

// Resolve computes the destination of a and whether it is already present.
func (c *Catalog) Resolve(a Artifact) (Target, error) {
	if err := c.Check(); err != nil {
		return Target{}, err
	}
	dst := filepath.Join(c.CheckpointsDir(), a.Filename)
	t := Target{Artifact: a, Path: dst}
	fi, err := os.Stat(dst)
	switch {
	case err == nil:
		t.Exists = !fi.IsDir()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Target{}, fmt.Errorf("stat %s: %w", dst, err)
	}
	return t, nil
}

// ResolveAll resolves every artifact in table order.
func (c *Catalog) ResolveAll() ([]Target, error) {
	targets := make([]Target, 0, len(c.artifacts))
	for _, a := range c.artifacts {
		t, err := c.Resolve(a)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// ResolveIDs resolves the named artifacts in the given order.
func (c *Catalog) ResolveIDs(ids ...string) ([]Target, error) {
	targets := make([]Target, 0, len(ids))
	for _, id := range ids {
		a, ok := c.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownArtifact, id)
		}
		t, err := c.Resolve(a)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func requireDir(path, reason string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ConfigurationError{Path: path, Reason: reason}
		}
		return &ConfigurationError{Path: path, Reason: err.Error()}
	}
	if !fi.IsDir() {
		return &ConfigurationError{Path: path, Reason: "not a directory"}
	}
	return nil
}
