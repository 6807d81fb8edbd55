// Package iox holds cleanup helpers for closers and flushers whose errors
// the caller cannot act on.
package iox

import "io"

// DiscardClose closes c, dropping the error. Used for response bodies and
// files once their contents are read:
//
//	defer iox.DiscardClose(out.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc adapts c for t.Cleanup:
//
//	t.Cleanup(iox.CloseFunc(adapter))
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// DiscardErr runs fn, dropping the error. Used for logger flushes on exit,
// where stderr may already be gone:
//
//	defer iox.DiscardErr(logger.Sync)
func DiscardErr(fn func() error) { _ = fn() }
