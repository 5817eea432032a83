package exechelper

import (
	"bytes"
	"io"
)

//go:generate mockgen -source=types.go -destination=mock_executor.go -package=exechelper

// Executor runs external programs: the device scanner and the alert
// notifiers go through it so both can be faked in tests.
type Executor interface {
	RunCommand(params ExecParams) ExecResult
}

// ExecParams parameters to execute a command
type ExecParams struct {
	CmdName string
	CmdArgs []string
	// Env entries in KEY=VALUE form, appended to the daemon's environment
	Env []string
	// Stdin is fed to the program when set
	Stdin io.Reader
	// Timeout in seconds, 0 means the executor default
	Timeout int
}

// ExecResult result of executing a command
type ExecResult struct {
	OutBuf   *bytes.Buffer
	ErrBuf   *bytes.Buffer
	ExitCode int
	Error    error
}

// Succeeded reports a zero exit code without error
func (r ExecResult) Succeeded() bool {
	return r.Error == nil && r.ExitCode == 0
}
