package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aiprep/devlaunch/internal/files"
	"github.com/aiprep/devlaunch/proc/local"
	"github.com/aiprep/devlaunch/supervisor"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "devlaunch",
		Usage: "install dependencies for the server and client, then run both dev servers",
		UsageText: "devlaunch [global options] [command]\n\n" +
			"Global options apply to every command and must come before it, e.g. devlaunch --root ../app run",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Project root containing the server and client dirs. Defaults to the nearest parent of the executable (or working dir) that has a server dir.",
				EnvVars: []string{"DEVLAUNCH_ROOT"},
			},
			&cli.StringFlag{
				Name:    "install-cmd",
				Usage:   "Command used to install dependencies in each dir.",
				Value:   strings.Join(supervisor.DefaultInstallCommand, " "),
				EnvVars: []string{"DEVLAUNCH_INSTALL_CMD"},
			},
			&cli.StringFlag{
				Name:    "run-cmd",
				Usage:   "Command used to run the dev server in each dir.",
				Value:   strings.Join(supervisor.DefaultRunCommand, " "),
				EnvVars: []string{"DEVLAUNCH_RUN_CMD"},
			},
			&cli.BoolFlag{
				Name:  "stop-on-exit",
				Usage: "Stop the other server as soon as one of them exits.",
			},
			&cli.DurationFlag{
				Name:  "stop-timeout",
				Usage: "How long to wait for the servers to exit after an interrupt before killing them. 0 means don't wait.",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "One of [debug,info,warn,error].",
				Value:   "info",
				EnvVars: []string{"DEVLAUNCH_LOG_LEVEL"},
			},
		},
		Action: func(ctx *cli.Context) error {
			return run(ctx, true)
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run both dev servers without installing dependencies",
				UsageText: "devlaunch [global options] run",
				Action: func(ctx *cli.Context) error {
					return run(ctx, false)
				},
			},
			{
				Name:      "install",
				Usage:     "install dependencies in both dirs and exit",
				UsageText: "devlaunch [global options] install",
				Action: func(ctx *cli.Context) error {
					s, err := buildSupervisor(ctx, true)
					if err != nil {
						return err
					}
					sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return exitErr(s.Install(sigCtx))
				},
			},
		},
	}
}

func run(ctx *cli.Context, install bool) error {
	s, err := buildSupervisor(ctx, install)
	if err != nil {
		return err
	}
	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return exitErr(s.Run(sigCtx))
}

// exitErr converts an install failure into an exit with the install command's exit code.
// The failure has already been printed by the supervisor.
func exitErr(err error) error {
	var installErr *supervisor.InstallError
	if errors.As(err, &installErr) {
		return cli.Exit("", installErr.ExitCode())
	}
	return err
}

func buildSupervisor(ctx *cli.Context, install bool) (*supervisor.Supervisor, error) {
	logger, err := buildLogger(ctx.String("log-level"))
	if err != nil {
		return nil, err
	}

	root := ctx.String("root")
	if root == "" {
		root, err = defaultRoot()
		if err != nil {
			return nil, err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root dir: %w", err)
	}
	logger.Debugw("resolved project root", "Root", root)

	config := supervisor.DefaultConfig(root)
	config.Install = install
	config.InstallCommand = strings.Fields(ctx.String("install-cmd"))
	config.RunCommand = strings.Fields(ctx.String("run-cmd"))
	config.StopOnExit = ctx.Bool("stop-on-exit")
	config.StopTimeout = ctx.Duration("stop-timeout")

	return supervisor.New(
		config,
		supervisor.WithLogger(logger),
		supervisor.WithRunner(local.NewRunner(local.WithLogger(logger))),
		supervisor.WithOutput(ctx.App.Writer, ctx.App.ErrWriter),
	)
}

func buildLogger(level string) (*zap.SugaredLogger, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(l)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named("devlaunch").Sugar(), nil
}

// defaultRoot finds the project root relative to where the launcher lives.
func defaultRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting wd: %w", err)
	}
	var exeDir string
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		exeDir = filepath.Dir(exe)
	}
	return files.FindRoot(supervisor.BackendDirName, wd, exeDir, wd), nil
}
