package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"ton-staking-manager/lib/logger"
)

// runner executes one external tool with a fixed wall-clock limit. The
// process is killed outright on expiry; a killed or failed invocation
// surfaces as ToolchainError.
type runner struct {
	conf ToolsConfig
	log  logger.Logger
}

func NewRunner(conf ToolsConfig, log logger.Logger) *runner {
	return &runner{conf: conf, log: log}
}

func (r *runner) run(ctx context.Context, name string, args ...string) (string, string, error) {
	timeout := time.Duration(r.conf.Get().ExecTimeoutSec) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug("exec:", name, args)

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("killed after %s", timeout)
		}
		return stdout.String(), stderr.String(), &ToolchainError{Tool: name, Err: err}
	}
	return stdout.String(), stderr.String(), nil
}
