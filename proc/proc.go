package proc

import (
	"context"
	"io"
	"syscall"
)

type StartProcRequest struct {
	Command string
	Args    []string
	Env     []string
	WD      string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

type ProcessResult struct {
	ExitCode int
	TimeMS   int64
}

// Process is a started process.
// Wait may be called more than once, every call returns the same result once the process has exited.
type Process interface {
	Wait(ctx context.Context) (*ProcessResult, error)
	Signal(ctx context.Context, sig syscall.Signal) error
	PID() int
}

// Runner starts processes.
// The implementation defines where and how they run.
type Runner interface {
	StartProc(ctx context.Context, req StartProcRequest) (Process, error)
}
