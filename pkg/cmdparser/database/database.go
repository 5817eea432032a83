package database

import (
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/drivedb"
)

var databasePath string

var DriveDB = &cobra.Command{
	Use:   "drivedb",
	Args:  cobra.ExactArgs(0),
	Short: "Inspect the drive database.",
	Long:  "Inspect the drive database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Root cmd will show help only
		return cmd.Help()
	},
}

func init() {
	DriveDB.PersistentFlags().StringVar(&databasePath, "drivedb", "", "Path of an external drive database to load before the built-in one")

	// DriveDB sub commands
	DriveDB.AddCommand(drivedbLookup, drivedbCheck)
}

func openDatabase() (*drivedb.Database, error) {
	db, err := drivedb.New()
	if err != nil {
		return nil, err
	}
	if databasePath != "" {
		var perrs drivedb.ParseErrors
		if err := db.LoadFile(databasePath); errors.As(err, &perrs) {
			log.WithField("drivedb", databasePath).Warningf("Skipped %d malformed records", len(perrs))
		} else if err != nil {
			return nil, err
		}
	}
	return db, nil
}
