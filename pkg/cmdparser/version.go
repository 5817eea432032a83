package cmdparser

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/cmdparser/definitions"
)

var version = &cobra.Command{
	Use:   "version",
	Args:  cobra.ExactArgs(0),
	Short: "Print the version.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "GitCommit:%q, BuildDate:%q, GoVersion:%q\n",
			definitions.BuildVersion, definitions.BuildTime, definitions.GoVersion)
		return err
	},
}
