package supervisor

import (
	"fmt"
	"strings"
)

// InstallError is returned when a dependency install command fails.
// It satisfies urfave/cli's ExitCoder, carrying the install command's exit code.
type InstallError struct {
	Command []string
	Dir     string
	Code    int
	Err     error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("Error running %s in %s", strings.Join(e.Command, " "), e.Dir)
}

func (e *InstallError) ExitCode() int { return e.Code }

func (e *InstallError) Unwrap() error { return e.Err }
