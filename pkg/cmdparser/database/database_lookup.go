package database

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hwameistor/diskhealth/pkg/formatter"
	"github.com/hwameistor/diskhealth/pkg/presets"
	"github.com/hwameistor/diskhealth/pkg/smart/attrdef"
)

var drivedbLookup = &cobra.Command{
	Use:   "lookup MODEL [FIRMWARE]",
	Args:  cobra.RangeArgs(1, 2),
	Short: "Show the drive database entry of a model.",
	Long: "You can use 'diskhealth drivedb lookup' to find the record matching a drive\n" +
		"and the attribute definitions the monitor would apply to it.",
	Example: "diskhealth drivedb lookup \"Samsung SSD 860 EVO 500GB\"\n" +
		"diskhealth drivedb lookup --drivedb ./drivedb.h \"ST4000DM000-1F2168\" CC54",
	RunE: drivedbLookupRunE,
}

func drivedbLookupRunE(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	model, firmware := args[0], ""
	if len(args) > 1 {
		firmware = args[1]
	}

	res := presets.Apply(db, model, firmware, presets.Options{})
	out := cmd.OutOrStdout()
	if res.Record == nil {
		fmt.Fprintf(out, "No drive database entry for %q, default settings apply\n", model)
	} else {
		formatter.PrintParameters(out, "Drive", []formatter.Parameter{
			{Key: "Family", Value: res.Record.Family},
			{Key: "Source", Value: res.Record.Source},
			{Key: "Model", Value: res.Record.ModelPattern},
			{Key: "Firmware", Value: res.Record.FirmwarePattern},
			{Key: "Warning", Value: res.Record.Warning},
			{Key: "Firmware fix", Value: res.Fix.String()},
		})
	}

	header := table.Row{"ID", "Name", "Format", "Priority", "Option"}
	var rows []table.Row
	for id := 1; id < len(res.Defs); id++ {
		def := res.Defs[id]
		if !def.IsSet() {
			continue
		}
		rows = append(rows, table.Row{id, def.Name, def.Format.String(), def.Priority.String(), attrdef.Format(uint8(id), def)})
	}
	formatter.PrintTable(out, "Attribute definitions", header, rows)
	return nil
}
