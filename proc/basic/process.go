package basic

import (
	"context"
	"syscall"

	"github.com/aiprep/devlaunch/proc"
)

// Process is a proc.Process bound to a context, which is used for Wait and Signal.
type Process struct {
	Ctx     context.Context
	Process proc.Process
}

func (p *Process) Context(ctx context.Context) *Process {
	newP := *p
	newP.Ctx = ctx
	return &newP
}

func (p *Process) PID() int {
	return p.Process.PID()
}

func (p *Process) Wait() (*proc.ProcessResult, error) {
	return p.Process.Wait(p.Ctx)
}

func (p *Process) Signal(sig syscall.Signal) error {
	return p.Process.Signal(p.Ctx, sig)
}
