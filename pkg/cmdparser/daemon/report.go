package daemon

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hwameistor/diskhealth/pkg/formatter"
	"github.com/hwameistor/diskhealth/pkg/monitor"
)

// printReport renders the state of every device after a single check
func printReport(out io.Writer, summaries []monitor.DeviceSummary) {
	for _, s := range summaries {
		health := "UNKNOWN"
		if s.HealthChecked {
			health = "PASSED"
			if !s.HealthPassed {
				health = "FAILED"
			}
		}
		prefail := "-"
		if s.PrefailBelowThreshold != 0 {
			prefail = fmt.Sprintf("Attribute %d", s.PrefailBelowThreshold)
		}
		formatter.PrintParameters(out, s.Name, []formatter.Parameter{
			{Key: "Model", Value: s.Model},
			{Key: "Serial", Value: s.Serial},
			{Key: "Firmware", Value: s.Firmware},
			{Key: "Family", Value: s.Family},
			{Key: "Health", Value: health},
			{Key: "Failing prefailure", Value: prefail},
			{Key: "Temperature", Value: s.Temperature},
			{Key: "Self-test errors", Value: s.SelfTestErrors},
			{Key: "ATA errors", Value: s.ErrorCount},
		})

		if len(s.Attributes) == 0 {
			continue
		}
		header := table.Row{"ID", "Attribute", "Flags", "Value", "Worst", "Thresh", "Type", "Updated", "State", "Raw"}
		rows := make([]table.Row, 0, len(s.Attributes))
		for _, a := range s.Attributes {
			kind, updated := "Old_age", "Offline"
			if a.Prefailure {
				kind = "Pre-fail"
			}
			if a.Online {
				updated = "Always"
			}
			rows = append(rows, table.Row{a.ID, a.Name, a.Flags, a.Current, a.Worst, a.Threshold, kind, updated, a.State, a.RawString})
		}
		formatter.PrintTable(out, "SMART Attributes", header, rows)
	}
}
