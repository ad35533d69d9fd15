// Package follow - follow.go defines the line source contract.
//
// DESIGN: A Follower owns exactly one log stream and hands out complete
// lines, one at a time:
//   - Next blocks until a newline-terminated line is available
//   - Cancellation is surfaced as ctx.Err(), promptly
//   - Stream failures after attachment are returned, never swallowed
//
// Two implementations exist: FileFollower re-opens the path itself and
// TailFollower delegates rotation handling to an external tail process.
package follow

import (
	"context"
	"time"
)

// DefaultPollInterval is the pause between empty polls of the stream.
const DefaultPollInterval = 50 * time.Millisecond

// Follower delivers complete lines from a log stream.
type Follower interface {
	// Next blocks until the next complete line is available, stripped of
	// its trailing newline. It returns ctx.Err() on cancellation and any
	// other error when the stream has failed.
	Next(ctx context.Context) (string, error)

	// Close releases the underlying stream.
	Close() error
}

// sleepCtx pauses for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
