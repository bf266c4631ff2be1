package supervisor

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"

	"github.com/aiprep/devlaunch/proc"
	"github.com/aiprep/devlaunch/proc/basic"
)

// Child is a long-running process owned by the supervisor.
// Termination is requested at most once per Child, no matter how many times Terminate is called.
type Child struct {
	Name    string
	Command []string
	Dir     string

	process  *basic.Process
	startErr error

	terminateOnce sync.Once
	terminateErr  error
	killOnce      sync.Once
	killErr       error

	mut    sync.Mutex
	result *proc.ProcessResult
}

// Started reports whether the child's process was started.
func (c *Child) Started() bool { return c.process != nil }

// Wait waits for the child to exit.
// A child that failed to start is reported as exited with code -1 and the start error.
func (c *Child) Wait(ctx context.Context) (*proc.ProcessResult, error) {
	if c.process == nil {
		res := &proc.ProcessResult{ExitCode: -1}
		c.setResult(res)
		return res, c.startErr
	}
	res, err := c.process.Context(ctx).Wait()
	if res != nil {
		c.setResult(res)
	}
	return res, err
}

func (c *Child) setResult(res *proc.ProcessResult) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.result = res
}

// ExitStatus returns the exit code, and false if the child has not been observed to exit yet.
func (c *Child) ExitStatus() (int, bool) {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.result == nil {
		return 0, false
	}
	return c.result.ExitCode, true
}

// Terminate sends SIGTERM to the child. It does not wait for the child to exit.
func (c *Child) Terminate(ctx context.Context) error {
	c.terminateOnce.Do(func() {
		c.terminateErr = c.signal(ctx, syscall.SIGTERM)
	})
	return c.terminateErr
}

// Kill sends SIGKILL to the child.
func (c *Child) Kill(ctx context.Context) error {
	c.killOnce.Do(func() {
		c.killErr = c.signal(ctx, syscall.SIGKILL)
	})
	return c.killErr
}

func (c *Child) signal(ctx context.Context, sig syscall.Signal) error {
	if c.process == nil {
		return nil
	}
	err := c.process.Context(ctx).Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
