package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/formatter"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

var drivedbCheck = &cobra.Command{
	Use:     "check FILE",
	Args:    cobra.ExactArgs(1),
	Short:   "Validate an external drive database file.",
	Long:    checkLongHelp(),
	Example: "diskhealth drivedb check /etc/diskhealth/drivedb.h",
	RunE:    drivedbCheckRunE,
}

func checkLongHelp() string {
	return "Parses FILE the way the daemon does and lists every malformed record.\n\n" +
		"Presets accept \"-v ID,FORMAT[:BYTEORDER][,NAME[,HDD|SSD]]\", \"-F FIX\" and\n" +
		"these legacy -v arguments:\n  " + strings.Join(attrdef.LegacyOptions(), "\n  ")
}

func drivedbCheckRunE(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	db, err := drivedb.NewFromRecords(nil)
	if err != nil {
		return err
	}
	err = db.LoadExternal(f, args[0])

	out := cmd.OutOrStdout()
	var perrs drivedb.ParseErrors
	if !errors.As(err, &perrs) {
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d records, no errors\n", args[0], db.Len())
		return nil
	}

	header := table.Row{"#", "Position", "Error"}
	rows := make([]table.Row, 0, len(perrs))
	for i, perr := range perrs {
		rows = append(rows, table.Row{i + 1, perr.Pos.String(), perr.Msg})
	}
	formatter.PrintTable(out, fmt.Sprintf("%s: %d records", args[0], db.Len()), header, rows)
	return fmt.Errorf("%d malformed records in %s", len(perrs), args[0])
}
