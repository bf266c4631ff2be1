package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	internalnet "github.com/aiprep/devlaunch/internal/net"
	"github.com/aiprep/devlaunch/proc"
	"github.com/aiprep/devlaunch/proc/basic"
	"github.com/aiprep/devlaunch/proc/local"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	BackendDirName  = "server"
	FrontendDirName = "client"
)

var (
	DefaultInstallCommand = []string{"npm", "install"}
	DefaultRunCommand     = []string{"npm", "run", "dev"}
)

// Config is the fixed configuration of a supervisor run.
type Config struct {
	BackendDir  string
	FrontendDir string

	// InstallCommand is run once in each dir before launching, if Install is set.
	InstallCommand []string
	// RunCommand is launched in both dirs.
	RunCommand []string

	Install bool

	// StopOnExit terminates the other child as soon as one exits.
	StopOnExit bool
	// StopTimeout is how long to wait for children to exit after terminating them before killing them.
	// Zero means don't wait.
	StopTimeout time.Duration
}

// DefaultConfig returns the configuration for the project rooted at root.
func DefaultConfig(root string) Config {
	return Config{
		BackendDir:     filepath.Join(root, BackendDirName),
		FrontendDir:    filepath.Join(root, FrontendDirName),
		InstallCommand: DefaultInstallCommand,
		RunCommand:     DefaultRunCommand,
		Install:        true,
	}
}

// Supervisor installs dependencies for the backend and frontend, launches both, and stops them on interrupt.
type Supervisor struct {
	config Config
	log    *zap.SugaredLogger
	runner proc.Runner

	stdout io.Writer
	stderr io.Writer
}

type Option func(s *Supervisor)

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Supervisor) {
		s.log = l.Named("supervisor")
	}
}

// WithRunner sets the runner used to start install commands and children.
func WithRunner(r proc.Runner) Option {
	return func(s *Supervisor) {
		s.runner = r
	}
}

// WithOutput sets where operator text is printed and where child output is passed through.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(s *Supervisor) {
		s.stdout = stdout
		s.stderr = stderr
	}
}

func New(config Config, opts ...Option) (*Supervisor, error) {
	if config.BackendDir == "" || config.FrontendDir == "" {
		return nil, errors.New("backend and frontend dirs are required")
	}
	if len(config.RunCommand) == 0 {
		return nil, errors.New("run command is required")
	}
	if config.StopTimeout < 0 {
		return nil, fmt.Errorf("invalid stop timeout %s", config.StopTimeout)
	}
	s := &Supervisor{
		config: config,
		log:    zap.NewNop().Sugar(),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = local.NewRunner(local.WithLogger(s.log))
	}
	return s, nil
}

// Run runs the install phase (if configured), launches both children, and waits for them.
// Canceling ctx is the interrupt: both children are asked to terminate and Run returns nil.
// An install failure is returned as an *InstallError.
func (s *Supervisor) Run(ctx context.Context) error {
	log := s.log.With("Run", uuid.NewString())

	installed := false
	if s.config.Install && len(s.config.InstallCommand) > 0 {
		err := s.install(ctx, log)
		if err != nil {
			if ctx.Err() != nil {
				log.Infow("interrupted during install", "Error", err)
				return nil
			}
			return err
		}
		installed = true
	}

	// children outlive an interrupt so that they get a chance to shut down on SIGTERM
	childCtx := context.WithoutCancel(ctx)

	if installed {
		fmt.Fprintln(s.stdout)
	}
	fmt.Fprintln(s.stdout, "Starting AiPrep backend (server)...")
	backend := s.launch(childCtx, log, "backend", s.config.BackendDir, backendListenAddr)
	printBackendBanner(s.stdout)

	fmt.Fprintln(s.stdout, "\nStarting AiPrep frontend (client)...")
	frontend := s.launch(childCtx, log, "frontend", s.config.FrontendDir, frontendListenAddr)
	printFrontendBanner(s.stdout)

	fmt.Fprintln(s.stdout, "\nPress Ctrl+C to stop both servers.")
	return s.join(ctx, log, backend, frontend)
}

// Install runs only the install phase. Like Run, canceling ctx stops the install command and returns nil.
func (s *Supervisor) Install(ctx context.Context) error {
	if len(s.config.InstallCommand) == 0 {
		return errors.New("no install command configured")
	}
	log := s.log.With("Run", uuid.NewString())
	err := s.install(ctx, log)
	if err != nil && ctx.Err() != nil {
		log.Infow("interrupted during install", "Error", err)
		return nil
	}
	return err
}

// install runs the install command in the backend dir and then the frontend dir, stopping at the first failure.
func (s *Supervisor) install(ctx context.Context, log *zap.SugaredLogger) error {
	runner := basic.New(s.runner).WithLogger(log).Context(ctx)
	dirs := []struct {
		name string
		dir  string
	}{
		{name: "backend", dir: s.config.BackendDir},
		{name: "frontend", dir: s.config.FrontendDir},
	}
	cmd := s.config.InstallCommand
	for _, d := range dirs {
		fmt.Fprintf(s.stdout, "Installing %s dependencies...\n", d.name)
		fmt.Fprintf(s.stdout, "\nRunning: %s in %s\n", strings.Join(cmd, " "), d.dir)

		_, err := runner.Run(proc.StartProcRequest{
			Command: cmd[0],
			Args:    cmd[1:],
			WD:      d.dir,
			Stdout:  s.stdout,
			Stderr:  s.stderr,
		})
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return fmt.Errorf("installing %s dependencies: %w", d.name, ctx.Err())
		}

		installErr := &InstallError{Command: cmd, Dir: d.dir, Code: 1, Err: err}
		var exitErr *basic.ExitCodeError
		if errors.As(err, &exitErr) {
			installErr.Code = exitErr.Code
		}
		log.Debugw("install failed", "Dir", d.dir, "ExitCode", installErr.Code, "Error", err)
		fmt.Fprintln(s.stdout, installErr.Error())
		return installErr
	}
	return nil
}

// launch starts the run command in dir. A start failure is logged and the returned child reports it as its exit.
func (s *Supervisor) launch(ctx context.Context, log *zap.SugaredLogger, name, dir, listenAddr string) *Child {
	if err := internalnet.CheckListenAddr(listenAddr); err != nil {
		log.Warnw("listen address appears to be in use", "Name", name, "Addr", listenAddr, "Error", err)
	}

	cmd := s.config.RunCommand
	c := &Child{Name: name, Command: cmd, Dir: dir}
	p, err := basic.New(s.runner).WithLogger(log).Context(ctx).StartProc(proc.StartProcRequest{
		Command: cmd[0],
		Args:    cmd[1:],
		WD:      dir,
		Stdout:  s.stdout,
		Stderr:  s.stderr,
	})
	if err != nil {
		log.Errorw("unable to start child", "Name", name, "Dir", dir, "Error", err)
		c.startErr = fmt.Errorf("starting %s: %w", name, err)
		return c
	}
	c.process = p
	log.Debugw("started child", "Name", name, "Dir", dir, "PID", p.PID())
	return c
}

// join waits for all children to exit, in whatever order they finish, or for ctx to be canceled.
func (s *Supervisor) join(ctx context.Context, log *zap.SugaredLogger, children ...*Child) error {
	waitCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(waitCtx)
	defer func() {
		cancel()
		_ = group.Wait()
	}()

	exits := make(chan *Child, len(children))
	for _, c := range children {
		c := c
		group.Go(func() error {
			_, err := c.Wait(groupCtx)
			if groupCtx.Err() != nil {
				return nil
			}
			if err != nil {
				log.Debugw("child wait error", "Name", c.Name, "Error", err)
			}
			exits <- c
			return nil
		})
	}

	remaining := len(children)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.stdout, "\nStopping servers...")
			s.stop(log, children)
			return nil
		case c := <-exits:
			remaining--
			code, _ := c.ExitStatus()
			log.Infow("child exited", "Name", c.Name, "ExitCode", code)
			if s.config.StopOnExit && remaining > 0 {
				log.Infow("stopping remaining children", "ExitedChild", c.Name)
				s.stop(log, children)
			}
		}
	}
	return nil
}

// stop requests termination of every child, and kills stragglers if a stop timeout is configured.
func (s *Supervisor) stop(log *zap.SugaredLogger, children []*Child) {
	ctx := context.Background()
	for _, c := range children {
		err := c.Terminate(ctx)
		if err != nil {
			log.Warnw("error terminating child", "Name", c.Name, "Error", err)
		}
	}
	if s.config.StopTimeout == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.StopTimeout)
	defer cancel()
	for _, c := range children {
		_, err := c.Wait(ctx)
		if err != nil && ctx.Err() != nil {
			log.Warnw("child did not exit in time, killing it", "Name", c.Name, "Timeout", s.config.StopTimeout)
			if err := c.Kill(context.Background()); err != nil {
				log.Warnw("error killing child", "Name", c.Name, "Error", err)
			}
		}
	}
}
