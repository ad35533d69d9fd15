// Package follow - tail.go delegates log following to an external tail.
//
// DESIGN: TailFollower runs `tail -F -n 0 <path>` and reads its stdout.
// tail owns the hard parts (waiting for the file, rotation, remounted
// volumes); this side only needs a reader goroutine so Next can honor
// context cancellation:
//   - Lines flow over a buffered channel
//   - tail exiting for any reason is a stream failure
//   - Close kills the process and reaps it
package follow

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// TailFollower follows a file through an external tail process.
type TailFollower struct {
	path string
	cmd  *exec.Cmd

	lines chan string
	fail  chan error
	stop  chan struct{}
	once  sync.Once
}

// NewTailFollower spawns tail -F on path. It fails when the tail binary
// cannot be started; a missing log file is fine, tail waits for it.
func NewTailFollower(path string) (*TailFollower, error) {
	cmd := exec.Command("tail", "-F", "-n", "0", path)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("tail stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start tail: %w", err)
	}

	t := &TailFollower{
		path:  path,
		cmd:   cmd,
		lines: make(chan string, 256),
		fail:  make(chan error, 1),
		stop:  make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case t.lines <- scanner.Text():
			case <-t.stop:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			t.fail <- fmt.Errorf("tail of %s: %w", path, err)
			return
		}
		t.fail <- fmt.Errorf("tail of %s exited", path)
	}()

	return t, nil
}

// Next returns the next line tail produced.
func (t *TailFollower) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-t.lines:
		return line, nil
	case err := <-t.fail:
		return "", err
	}
}

// Close terminates the tail process.
func (t *TailFollower) Close() error {
	t.once.Do(func() {
		close(t.stop)
		if t.cmd.Process != nil {
			_ = t.cmd.Process.Kill()
		}
	})
	return t.cmd.Wait()
}

var _ Follower = (*TailFollower)(nil)
