package main

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/cmdparser"
	"github.com/hwameistor/diskhealth/pkg/cmdparser/definitions"
)

var BUILDVERSION, BUILDTIME, GOVERSION string

func printVersion() {
	log.Info(fmt.Sprintf("GitCommit:%q, BuildDate:%q, GoVersion:%q", BUILDVERSION, BUILDTIME, GOVERSION))
}

func setupLogging(enableDebug bool, format string) {
	if enableDebug {
		log.SetLevel(log.DebugLevel)
	}

	// log with funcname, file fileds. eg: func=processNode file="node_task_worker.go:43"
	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		s := strings.Split(f.Function, ".")
		funcname := s[len(s)-1]
		filename := path.Base(f.File)
		return funcname, fmt.Sprintf("%s:%d", filename, f.Line)
	}
	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{CallerPrettyfier: callerPrettyfier})
	} else {
		log.SetFormatter(&log.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			CallerPrettyfier: callerPrettyfier,
		})
	}
	log.SetReportCaller(true)
}

func main() {
	definitions.BuildVersion, definitions.BuildTime, definitions.GoVersion = BUILDVERSION, BUILDTIME, GOVERSION

	cmdparser.Diskhealth.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		setupLogging(definitions.Debug, definitions.LogFormat)
		if cmd.Name() == "daemon" {
			printVersion()
		}
	}

	if err := cmdparser.Diskhealth.Execute(); err != nil {
		os.Exit(1)
	}
}
