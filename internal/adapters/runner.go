package adapters

import (
	"context"
	"os/exec"
)

// CommandRunner is the narrow capability for invoking external binaries:
// argument list in, combined output and exit status out. Adapters take it
// injected so tests never spawn real processes.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}
