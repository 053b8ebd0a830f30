package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type Runner interface {
	Run(ctx context.Context, cmd string, args ...string) (stdout, stderr string, err error)
}

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// ShellRunner executes commands via sudo and uses PATH to resolve scripts.
// It returns stdout, stderr, and an error if the command exits non-zero.
type ShellRunner struct {
	Logger logger
}

func (r ShellRunner) Run(ctx context.Context, cmd string, args ...string) (string, string, error) {
	fullArgs := append([]string{cmd}, args...)
	c := exec.CommandContext(ctx, "sudo", fullArgs...)
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	if r.Logger != nil {
		r.Logger.Infof("exec", "%s %s", cmd, redact(cmd, args))
	}
	err := c.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = fmt.Errorf("exit %d: %w", exitErr.ExitCode(), err)
		}
		if r.Logger != nil {
			r.Logger.Errorf("exec", "%s: %v", cmd, err)
		}
		return outBuf.String(), errBuf.String(), err
	}
	return outBuf.String(), errBuf.String(), nil
}

// ExitCode returns the exit status carried by err, or 0 if there is none.
func ExitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		if code := coded.ExitCode(); code > 0 {
			return code
		}
	}
	return 0
}

// redact hides the credential argument of wifi.sh join in logs.
func redact(cmd string, args []string) string {
	if cmd != wifiScript || len(args) < 3 || args[0] != "join" {
		return strings.Join(args, " ")
	}
	out := append([]string(nil), args...)
	out[2] = "***"
	return strings.Join(out, " ")
}
