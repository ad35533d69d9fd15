// Package follow - file.go tails a log file by re-opening its path.
//
// DESIGN: FileFollower polls rather than using inotify so it behaves
// the same on bind mounts and network filesystems:
//   - The first attach waits for the file to exist, then seeks to end
//   - On EOF it compares the path against the open file: a different
//     inode or a size below the consumed offset means the file was
//     rotated or truncated, and the path is re-opened from the start
//   - A partial line pending at rotation is discarded with the old file
package follow

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FileFollower tails a single file by path, surviving rotation and
// truncation.
type FileFollower struct {
	path string
	poll time.Duration

	file    *os.File
	reader  *bufio.Reader
	partial []byte
	opened  bool // an attach has happened at least once
}

// NewFileFollower creates a follower for path. poll is the pause
// between empty reads; 0 selects DefaultPollInterval.
func NewFileFollower(path string, poll time.Duration) *FileFollower {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &FileFollower{path: path, poll: poll}
}

// Next returns the next complete line appended to the file.
func (f *FileFollower) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if f.file == nil {
			if err := f.attach(ctx); err != nil {
				return "", err
			}
		}

		line, ok, err := f.readLine()
		if ok {
			return line, nil
		}
		if err != io.EOF {
			return "", fmt.Errorf("read %s: %w", f.path, err)
		}

		// EOF: nothing new yet. Check whether the path still points at
		// the file we have open before parking.
		rotated, err := f.rotated()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", f.path, err)
		}
		if rotated {
			f.detach()
			continue
		}
		if err := sleepCtx(ctx, f.poll); err != nil {
			return "", err
		}
	}
}

// attach opens the path, waiting for it to exist. The first attach
// seeks to end-of-file so pre-existing content is never delivered;
// re-attaches after rotation read the replacement from the start.
func (f *FileFollower) attach(ctx context.Context) error {
	waiting := false
	for {
		file, err := os.Open(f.path)
		if err == nil {
			if !f.opened {
				if _, err := file.Seek(0, io.SeekEnd); err != nil {
					file.Close()
					return fmt.Errorf("seek %s: %w", f.path, err)
				}
			}
			f.opened = true
			f.file = file
			f.reader = bufio.NewReader(file)
			f.partial = f.partial[:0]
			return nil
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("open %s: %w", f.path, err)
		}
		if !waiting {
			waiting = true
			log.Info().Str("path", f.path).Msg("waiting for log file to appear")
		}
		if err := sleepCtx(ctx, f.poll); err != nil {
			return err
		}
	}
}

// readLine consumes buffered data up to the next newline. ok is false
// when no complete line is available yet; the partial tail is kept for
// the next call.
func (f *FileFollower) readLine() (string, bool, error) {
	chunk, err := f.reader.ReadString('\n')
	if chunk != "" {
		f.partial = append(f.partial, chunk...)
	}
	if err == nil {
		line := strings.TrimRight(string(f.partial), "\r\n")
		f.partial = f.partial[:0]
		return line, true, nil
	}
	return "", false, err
}

// rotated reports whether the path no longer refers to the open file,
// or the file shrank below what was already consumed.
func (f *FileFollower) rotated() (bool, error) {
	pathInfo, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Moved away; wait for the replacement
			return true, nil
		}
		return false, err
	}
	openInfo, err := f.file.Stat()
	if err != nil {
		return false, err
	}
	if !os.SameFile(pathInfo, openInfo) {
		return true, nil
	}

	pos, err := f.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	consumed := pos - int64(f.reader.Buffered())
	return pathInfo.Size() < consumed, nil
}

// detach closes the current file and drops any partial line.
func (f *FileFollower) detach() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
		f.reader = nil
	}
	f.partial = f.partial[:0]
}

// Close releases the open file, if any.
func (f *FileFollower) Close() error {
	f.detach()
	return nil
}

var _ Follower = (*FileFollower)(nil)
