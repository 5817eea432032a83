package alerter

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/exechelper"
)

const notifierTimeout = 60

// ExecNotifier runs a program with the alert in DISKHEALTH_* variables and
// the full message on stdin
type ExecNotifier struct {
	Executor exechelper.Executor
	Program  string
}

// Name implements Notifier
func (n *ExecNotifier) Name() string { return "exec" }

// Notify implements Notifier
func (n *ExecNotifier) Notify(a *Alert) error {
	res := n.Executor.RunCommand(exechelper.ExecParams{
		CmdName: n.Program,
		Env:     environment(a),
		Stdin:   strings.NewReader(a.Full),
		Timeout: notifierTimeout,
	})
	if !res.Succeeded() {
		return fmt.Errorf("%s exited with %d: %v %s", n.Program, res.ExitCode, res.Error, res.ErrBuf.String())
	}
	return nil
}

// MailNotifier pipes the message to "mailer -s subject address..."
type MailNotifier struct {
	Executor exechelper.Executor
	Mailer   string
}

// Name implements Notifier
func (n *MailNotifier) Name() string { return "mail" }

// Notify implements Notifier
func (n *MailNotifier) Notify(a *Alert) error {
	if len(a.Addresses) == 0 {
		return nil
	}
	args := append([]string{"-s", a.Subject}, a.Addresses...)
	res := n.Executor.RunCommand(exechelper.ExecParams{
		CmdName: n.Mailer,
		CmdArgs: args,
		Stdin:   strings.NewReader(a.Full),
		Timeout: notifierTimeout,
	})
	if !res.Succeeded() {
		return fmt.Errorf("%s exited with %d: %v %s", n.Mailer, res.ExitCode, res.Error, res.ErrBuf.String())
	}
	return nil
}

// LogNotifier writes the alert to the daemon log
type LogNotifier struct {
	Logger *log.Entry
}

// Name implements Notifier
func (n *LogNotifier) Name() string { return "log" }

// Notify implements Notifier
func (n *LogNotifier) Notify(a *Alert) error {
	entry := n.Logger.WithFields(log.Fields{
		"alert":    a.ID,
		"device":   a.Device.Name,
		"class":    a.Class.String(),
		"severity": a.Severity,
		"previous": a.PrevCount,
	})
	switch a.Severity {
	case SeverityCritical:
		entry.Error(a.Message)
	case SeverityWarning:
		entry.Warning(a.Message)
	default:
		entry.Info(a.Message)
	}
	return nil
}
