// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

func targets(existing ...string) []fluxdl.Target {
	have := map[string]bool{}
	for _, id := range existing {
		have[id] = true
	}
	var out []fluxdl.Target
	for _, a := range fluxdl.DefaultArtifacts() {
		out = append(out, fluxdl.Target{Artifact: a, Path: "/x/" + a.Filename, Exists: have[a.ID]})
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Run("nothing installed", func(t *testing.T) {
		opts := Build(targets())
		if len(opts) != 3 {
			t.Fatalf("Expected 3 options, got %d", len(opts))
		}
		want := []string{"Flux Dev (17.2G)", "Flux Schnell (17.2G)", "All (34.4G)"}
		for i, o := range opts {
			if o.Label != want[i] {
				t.Errorf("Option %d: expected %q, got %q", i+1, want[i], o.Label)
			}
			if o.Reinstall {
				t.Errorf("Option %d must not reinstall", i+1)
			}
		}
		if len(opts[2].IDs) != 2 {
			t.Errorf("All should select both artifacts, got %v", opts[2].IDs)
		}
	})

	t.Run("one installed adds reinstall", func(t *testing.T) {
		opts := Build(targets("schnell"))
		if len(opts) != 4 {
			t.Fatalf("Expected 4 options, got %d", len(opts))
		}
		re := opts[3]
		if re.Key != "4" || !re.Reinstall {
			t.Errorf("Expected reinstall option 4, got %+v", re)
		}
		if len(re.IDs) != 1 || re.IDs[0] != "schnell" {
			t.Errorf("Reinstall should only cover existing artifacts, got %v", re.IDs)
		}
	})
}

func TestPrompt_RejectsThenAccepts(t *testing.T) {
	var out bytes.Buffer
	opt, err := Prompt(strings.NewReader("9\n2\n"), &out, Build(targets()))
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if opt.Key != "2" || len(opt.IDs) != 1 || opt.IDs[0] != "schnell" {
		t.Errorf("Expected schnell only, got %+v", opt)
	}
	text := out.String()
	if !strings.Contains(text, "Invalid choice. Please enter 1, 2, or 3.") {
		t.Errorf("Expected rejection listing 1/2/3, got:\n%s", text)
	}
	if n := strings.Count(text, "Enter your choice (1/2/3): "); n != 2 {
		t.Errorf("Expected the prompt twice, got %d", n)
	}
}

func TestPrompt_ReinstallOnlyValidWhenOffered(t *testing.T) {
	var out bytes.Buffer
	_, err := Prompt(strings.NewReader("4\n"), &out, Build(targets()))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Expected EOF after rejecting 4, got %v", err)
	}
	if !strings.Contains(out.String(), "Invalid choice") {
		t.Error("Expected 4 to be rejected when nothing is installed")
	}

	out.Reset()
	opt, err := Prompt(strings.NewReader("4\n"), &out, Build(targets("dev")))
	if err != nil {
		t.Fatal(err)
	}
	if !opt.Reinstall {
		t.Errorf("Expected reinstall option, got %+v", opt)
	}
	if !strings.Contains(out.String(), "Enter your choice (1/2/3/4): ") {
		t.Errorf("Expected four keys in prompt, got:\n%s", out.String())
	}
}

func TestPrompt_TrimsInput(t *testing.T) {
	opt, err := Prompt(strings.NewReader("  3 \r\n"), io.Discard, Build(targets()))
	if err != nil {
		t.Fatal(err)
	}
	if opt.Key != "3" {
		t.Errorf("Expected option 3, got %s", opt.Key)
	}
}

func TestPrompt_EmptyInputReprompts(t *testing.T) {
	var out bytes.Buffer
	opt, err := Prompt(strings.NewReader("\n\n1\n"), &out, Build(targets()))
	if err != nil {
		t.Fatal(err)
	}
	if opt.Key != "1" {
		t.Errorf("Expected option 1, got %s", opt.Key)
	}
	if n := strings.Count(out.String(), "Invalid choice"); n != 2 {
		t.Errorf("Expected 2 rejections, got %d", n)
	}
}

func TestSumHints(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{[]string{"17.2G", "17.2G"}, "34.4G"},
		{[]string{"1G", "500M"}, ""},
		{[]string{"1G", ""}, ""},
		{[]string{"G"}, ""},
	}
	for _, tt := range tests {
		if got := sumHints(tt.in); got != tt.want {
			t.Errorf("sumHints(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEnumerate(t *testing.T) {
	if got := enumerate([]string{"1"}); got != "1" {
		t.Errorf("got %q", got)
	}
	if got := enumerate([]string{"1", "2"}); got != "1 or 2" {
		t.Errorf("got %q", got)
	}
	if got := enumerate([]string{"1", "2", "3", "4"}); got != "1, 2, 3, or 4" {
		t.Errorf("got %q", got)
	}
}
