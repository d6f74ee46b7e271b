// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultChunkSize = 1024

	// progressInterval bounds file_progress events to 5 per second per file.
	progressInterval = 200 * time.Millisecond
)

// Fetcher downloads single targets. One Fetcher is shared by every
// concurrent download of a run.
type Fetcher struct {
	httpc     *http.Client
	chunkSize int
	timeout   time.Duration
	rateLimit int64
	interval  time.Duration
	logger    *slog.Logger
	progress  ProgressFunc
}

// NewFetcher builds a Fetcher from validated settings. A nil logger
// discards logs; a nil progress func discards events.
func NewFetcher(cfg Settings, logger *slog.Logger, progress ProgressFunc) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	chunk, _ := parseSizeString(cfg.ChunkSize, defaultChunkSize)
	limit, _ := parseSizeString(cfg.RateLimit, 0)
	timeout, _ := parseDuration(cfg.Timeout)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		httpc:     buildHTTPClient(cfg),
		chunkSize: int(chunk),
		timeout:   timeout,
		rateLimit: limit,
		interval:  progressInterval,
		logger:    logger,
		progress:  progress,
	}, nil
}

func (f *Fetcher) emit(ev ProgressEvent) {
	if f.progress == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	f.progress(ev)
}

// Fetch downloads t unless it already exists.
//
// With reinstall set, an existing file is removed first; if removal fails
// nothing is downloaded. The body is written to a temp file next to the
// destination and renamed into place only after the whole body arrived,
// so a present destination file is always complete.
func (f *Fetcher) Fetch(ctx context.Context, t Target, reinstall bool) (Outcome, error) {
	out := Outcome{Artifact: t.Artifact, Path: t.Path}
	log := f.logger.With("artifact", t.Artifact.ID, "url", t.Artifact.URL)

	if t.Exists && !reinstall {
		log.Info(t.Artifact.Name+" already downloaded", "path", t.Path)
		f.emit(ProgressEvent{Event: "file_done", Artifact: t.Artifact.ID, Path: t.Artifact.Filename, Message: "skip (exists)"})
		out.Status = StatusSkipped
		return out, nil
	}

	if t.Exists {
		if err := os.Remove(t.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return f.fail(out, log, &DownloadError{Artifact: t.Artifact.ID, URL: t.Artifact.URL, Kind: KindRemove, Err: err})
		}
		log.Info("removed existing file", "path", t.Path)
		out.Reinstalled = true
	}

	log.Info("downloading "+t.Artifact.Name, "path", t.Path)
	start := time.Now()
	n, err := f.download(ctx, t)
	out.Bytes = n
	if err != nil {
		return f.fail(out, log, err)
	}
	out.Status = StatusDownloaded
	log.Info("download complete", "bytes", n, "elapsed", time.Since(start).Round(time.Millisecond))
	f.emit(ProgressEvent{Event: "file_done", Artifact: t.Artifact.ID, Path: t.Artifact.Filename, Downloaded: n, Total: n})
	return out, nil
}

func (f *Fetcher) fail(out Outcome, log *slog.Logger, err error) (Outcome, error) {
	out.Status = StatusFailed
	out.Err = err
	log.Error("download failed", "error", err)
	f.emit(ProgressEvent{Level: "error", Event: "error", Artifact: out.Artifact.ID, Path: out.Artifact.Filename, Message: err.Error()})
	return out, err
}

// download streams the body of t's URL into a temp file and renames it to t.Path.
func (f *Fetcher) download(ctx context.Context, t Target) (int64, error) {
	a := t.Artifact
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return 0, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindNetwork, Err: err}
	}
	addHeaders(req)

	resp, err := f.httpc.Do(req)
	if err != nil {
		return 0, f.classify(ctx, a, err)
	}
	defer resp.Body.Close()

	// Nothing touches the disk before the status is known.
	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindBadStatus, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	f.emit(ProgressEvent{Event: "file_start", Artifact: a.ID, Path: a.Filename, Total: total})

	tmp, err := os.CreateTemp(filepath.Dir(t.Path), "."+a.Filename+".*.part")
	if err != nil {
		return 0, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: err}
	}
	var successful bool
	defer func() {
		if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			f.logger.Error("closing temp file", "path", tmp.Name(), "error", err)
		}
		if !successful {
			if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				f.logger.Error("removing temp file", "path", tmp.Name(), "error", err)
			}
		}
	}()

	tracker := newProgressTracker(a.ID, a.Filename, uint64(total), f.interval, f.emit)
	w := newThrottledWriter(ctx, tmp, f.rateLimit, f.chunkSize)
	n, err := f.copyChunks(ctx, a, w, resp.Body, tracker)
	tracker.flush()
	if err != nil {
		return n, err
	}
	if total > 0 && n != total {
		return n, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindNetwork,
			Err: fmt.Errorf("%w: expected %d bytes, got %d", ErrShortBody, total, n)}
	}

	if err := tmp.Sync(); err != nil {
		return n, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return n, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: err}
	}
	if err := os.Rename(tmp.Name(), t.Path); err != nil {
		return n, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: err}
	}
	successful = true
	return n, nil
}

// copyChunks reads body in chunkSize pieces, writing each one to w and
// counting it on tracker.
func (f *Fetcher) copyChunks(ctx context.Context, a Artifact, w io.Writer, body io.Reader, tracker *progressTracker) (int64, error) {
	buf := make([]byte, f.chunkSize)
	var written int64
	for {
		nr, rerr := body.Read(buf)
		if nr > 0 {
			nw, werr := w.Write(buf[:nr])
			written += int64(nw)
			tracker.add(nw)
			if werr != nil {
				if ctx.Err() != nil {
					return written, f.classify(ctx, a, werr)
				}
				return written, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: werr}
			}
			if nw != nr {
				return written, &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindFS, Err: io.ErrShortWrite}
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, f.classify(ctx, a, rerr)
		}
	}
}

// classify maps a transport error onto the DownloadError taxonomy.
func (f *Fetcher) classify(ctx context.Context, a Artifact, err error) error {
	de := &DownloadError{Artifact: a.ID, URL: a.URL, Kind: KindNetwork, Err: err}
	var nerr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		de.Kind = KindTimeout
	case errors.Is(err, context.Canceled), errors.Is(ctx.Err(), context.Canceled):
		de.Kind = KindCanceled
	case errors.As(err, &nerr) && nerr.Timeout():
		de.Kind = KindTimeout
	}
	return de
}
