package cmdparser

import (
	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/cmdparser/daemon"
	"github.com/hwameistor/diskhealth/pkg/cmdparser/definitions"
	"github.com/hwameistor/diskhealth/pkg/cmdparser/database"
)

var Diskhealth = &cobra.Command{
	Use:   "diskhealth",
	Args:  cobra.ExactArgs(0),
	Short: "Diskhealth monitors the SMART health of ATA disks.",
	Long: "Diskhealth polls the SMART telemetry of ATA disks, schedules self-tests\n" +
		"and alerts when a disk reports failing or degrading health.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Root cmd will show help only
		return cmd.Help()
	},
}

func init() {
	// Diskhealth flags
	Diskhealth.PersistentFlags().BoolVar(&definitions.Debug, "debug", false, "Enable debug mode")
	Diskhealth.PersistentFlags().StringVar(&definitions.LogFormat, "log-format", "text", "Log format, text or json")

	// Sub commands
	Diskhealth.AddCommand(daemon.Daemon, database.DriveDB, version)
}
