// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fluxdl

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// throttledWriter is an io.Writer that waits on a token bucket of bytes
// per second before each write. Writes must not exceed the burst size.
type throttledWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

// newThrottledWriter wraps w. A non-positive bytesPerSec returns w as is.
func newThrottledWriter(ctx context.Context, w io.Writer, bytesPerSec int64, maxWrite int) io.Writer {
	if bytesPerSec <= 0 {
		return w
	}
	burst := maxWrite
	if int64(burst) < bytesPerSec {
		burst = int(bytesPerSec)
	}
	return &throttledWriter{
		ctx:     ctx,
		w:       w,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (tw *throttledWriter) Write(p []byte) (int, error) {
	if err := tw.limiter.WaitN(tw.ctx, len(p)); err != nil {
		return 0, err
	}
	return tw.w.Write(p)
}
