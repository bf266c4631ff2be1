package local

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/aiprep/devlaunch/proc"
	"go.uber.org/zap"
)

// Runner runs processes directly on the underlying host.
// Each process is placed in its own process group where the platform supports it,
// so that signals reach the whole tree the command spawns (e.g. "npm run dev" and the dev server under it).
type Runner struct {
	Log *zap.SugaredLogger
}

type Option func(r *Runner)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Runner) {
		r.Log = l.Named("local_runner")
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{Log: zap.NewNop().Sugar()}
	for _, o := range opts {
		o(r)
	}
	return r
}

type result struct {
	code   int
	timeMS int64
	err    error
}

type process struct {
	cmd    *exec.Cmd
	log    *zap.SugaredLogger
	exited chan struct{}

	// res is written once before exited is closed
	res result

	signalMut sync.Mutex
}

func (p *process) PID() int { return p.cmd.Process.Pid }

func (p *process) Wait(ctx context.Context) (*proc.ProcessResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.exited:
		return &proc.ProcessResult{ExitCode: p.res.code, TimeMS: p.res.timeMS}, p.res.err
	}
}

// Signal signals the process, or its whole process group where supported.
// The group is signaled even after the leader has exited, since whatever the leader spawned may still be running.
// os.ErrProcessDone is returned once nothing is left to signal.
func (p *process) Signal(ctx context.Context, sig syscall.Signal) error {
	p.signalMut.Lock()
	defer p.signalMut.Unlock()
	p.log.Debugw("signaling process", "PID", p.cmd.Process.Pid, "Signal", sig)
	return signalProcess(p.cmd.Process, sig)
}

func (r *Runner) StartProc(ctx context.Context, req proc.StartProcRequest) (proc.Process, error) {
	cmd := exec.Command(req.Command, req.Args...)
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	cmd.Dir = req.WD
	// don't hang on output copying if a grandchild outlives the process and keeps the pipes open
	cmd.WaitDelay = time.Second
	setSysProcAttr(cmd)

	start := time.Now()
	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("running command: %w", err)
	}
	r.Log.Debugw("started process", "Command", req.Command, "Args", req.Args, "WD", req.WD, "PID", cmd.Process.Pid)

	p := &process{
		cmd:    cmd,
		log:    r.Log,
		exited: make(chan struct{}),
	}

	// wait on the process to finish and record the result
	go func() {
		exitCode := 0
		var resultErr error

		err := cmd.Wait()
		timeMS := time.Since(start).Milliseconds()
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				resultErr = err
				exitCode = -1
			}
		}
		r.Log.Debugw("process exited", "PID", cmd.Process.Pid, "ExitCode", exitCode, "TimeMS", timeMS)

		p.signalMut.Lock()
		p.res = result{code: exitCode, timeMS: timeMS, err: resultErr}
		close(p.exited)
		p.signalMut.Unlock()
	}()

	// kill the process if the context is canceled
	go func() {
		select {
		case <-ctx.Done():
			p.signalMut.Lock()
			defer p.signalMut.Unlock()
			_ = signalProcess(cmd.Process, syscall.SIGKILL)
		case <-p.exited:
		}
	}()

	return p, nil
}
