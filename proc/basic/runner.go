package basic

import (
	"context"
	"fmt"

	"github.com/aiprep/devlaunch/proc"
	"go.uber.org/zap"
)

const loggerName = "basic_runner"

// ExitCodeError is returned by Runner.Run when the process exits with a non-zero exit code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("non-zero exit code %d", e.Code)
}

// Runner wraps a proc.Runner with convenience functionality.
type Runner struct {
	Runner proc.Runner
	Ctx    context.Context
	Log    *zap.SugaredLogger
}

func New(r proc.Runner) *Runner {
	return &Runner{
		Runner: r,
		Log:    zap.NewNop().Sugar(),
		Ctx:    context.Background(),
	}
}

func (r *Runner) WithLogger(l *zap.SugaredLogger) *Runner {
	r.Log = l.Named(loggerName)
	return r
}

func (r *Runner) Context(ctx context.Context) *Runner {
	newR := *r
	newR.Ctx = ctx
	return &newR
}

// StartProc starts the given command without waiting for it. The returned Process is bound to the runner's context.
func (r *Runner) StartProc(req proc.StartProcRequest) (*Process, error) {
	p, err := r.Runner.StartProc(r.Ctx, req)
	if err != nil {
		return nil, err
	}
	r.Log.Debugw("process started", "Command", req.Command, "WD", req.WD, "PID", p.PID())
	return &Process{Process: p, Ctx: r.Ctx}, nil
}

// Run starts the given command and waits for the process to exit.
// A non-zero exit code is returned as an *ExitCodeError along with the result.
func (r *Runner) Run(req proc.StartProcRequest) (*proc.ProcessResult, error) {
	p, err := r.Runner.StartProc(r.Ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := p.Wait(r.Ctx)
	if err != nil {
		return nil, fmt.Errorf("waiting for process to exit: %w", err)
	}
	r.Log.Debugw("process finished", "Command", req.Command, "WD", req.WD, "ExitCode", res.ExitCode, "TimeMS", res.TimeMS)
	if res.ExitCode != 0 {
		return res, &ExitCodeError{Code: res.ExitCode}
	}
	return res, nil
}
