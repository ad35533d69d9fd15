package follow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluegreenops/logwatcher/internal/follow"
)

const testPoll = 5 * time.Millisecond

// appendFile appends s to the file at path, creating it if needed.
func appendFile(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(s)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// waitLine reads the next line with a generous timeout.
func waitLine(t *testing.T, f follow.Follower) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	line, err := f.Next(ctx)
	require.NoError(t, err)
	return line
}

// expectNoLine asserts that Next stays blocked until the deadline.
func expectNoLine(t *testing.T, f follow.Follower) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err := f.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// =============================================================================
// FILE FOLLOWER TESTS
// =============================================================================

func TestFileFollower_DeliversOnlyNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte("pre-existing line\n"), 0644))

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()

	// The first call attaches at end-of-file and finds nothing
	expectNoLine(t, f)

	appendFile(t, path, "first\nsecond\n")
	assert.Equal(t, "first", waitLine(t, f))
	assert.Equal(t, "second", waitLine(t, f))
}

func TestFileFollower_WaitsForFileToAppear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.log")

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()

	// No file yet: Next parks instead of failing
	expectNoLine(t, f)

	require.NoError(t, os.WriteFile(path, []byte(""), 0644))
	expectNoLine(t, f) // attached now, still nothing to read

	appendFile(t, path, "hello\n")
	assert.Equal(t, "hello", waitLine(t, f))
}

func TestFileFollower_ReattachesAfterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(path, []byte("seed\n"), 0644))

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()
	expectNoLine(t, f)

	appendFile(t, path, "before rotation\n")
	assert.Equal(t, "before rotation", waitLine(t, f))

	// Rotate: move the file aside and start a fresh one. The
	// replacement is read from its beginning.
	require.NoError(t, os.Rename(path, filepath.Join(dir, "access.log.1")))
	require.NoError(t, os.WriteFile(path, []byte("after rotation\n"), 0644))

	assert.Equal(t, "after rotation", waitLine(t, f))
}

func TestFileFollower_ReattachesAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte("seed\n"), 0644))

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()
	expectNoLine(t, f)

	appendFile(t, path, "a reasonably long line before truncate\n")
	assert.Equal(t, "a reasonably long line before truncate", waitLine(t, f))

	require.NoError(t, os.Truncate(path, 0))
	appendFile(t, path, "fresh\n")

	assert.Equal(t, "fresh", waitLine(t, f))
}

func TestFileFollower_PartialLineHeldUntilNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()
	expectNoLine(t, f)

	appendFile(t, path, "half")
	expectNoLine(t, f) // no newline yet

	appendFile(t, path, "-rest\n")
	assert.Equal(t, "half-rest", waitLine(t, f))
}

func TestFileFollower_CancelReturnsContextError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	f := follow.NewFileFollower(path, testPoll)
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
