package basicexecutor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/exechelper"
)

const (
	defaultExecTimeout = 30

	exitCodeTimeout    = 124
	exitCodeErrDefault = 1
	exitCodeSuccess    = 0
)

var whitespace = regexp.MustCompile("[\t\n\r]+")

type basicExecutor struct {
	logger *log.Entry
}

// New creates an exechelper.Executor running programs on the host
func New() exechelper.Executor {
	return &basicExecutor{logger: log.WithField("Module", "Executor")}
}

// RunCommand runs the program and waits for it, killing it on timeout
func (e *basicExecutor) RunCommand(params exechelper.ExecParams) exechelper.ExecResult {
	if params.Timeout == 0 {
		params.Timeout = defaultExecTimeout
	}
	e.logger.WithFields(log.Fields{"command": params.CmdName, "args": params.CmdArgs}).Debug("Running command")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*time.Duration(params.Timeout))
	defer cancel()

	outbuf, errbuf := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, params.CmdName, params.CmdArgs...)
	cmd.Stdout = outbuf
	cmd.Stderr = errbuf
	if params.Stdin != nil {
		cmd.Stdin = params.Stdin
	}
	if len(params.Env) > 0 {
		cmd.Env = append(os.Environ(), params.Env...)
	}
	err := cmd.Run()

	result := exechelper.ExecResult{
		OutBuf:   bytes.NewBufferString(strings.TrimSuffix(outbuf.String(), "\n")),
		ErrBuf:   bytes.NewBufferString(strings.TrimSuffix(errbuf.String(), "\n")),
		ExitCode: exitCodeSuccess,
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = exitCodeTimeout
		result.Error = fmt.Errorf("command %s %s timed out after %d seconds", params.CmdName, params.CmdArgs, params.Timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = exitCodeErrDefault
		}
		result.Error = errors.New(whitespace.ReplaceAllString(err.Error(), " "))
	}

	e.logger.WithFields(log.Fields{
		"command":  params.CmdName,
		"exitCode": result.ExitCode,
		"stderr":   result.ErrBuf.String(),
		"error":    result.Error,
	}).Debug("Finished running command")

	return result
}
