package formatter

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ParameterTableLineLength the length for each line about parameter table
const ParameterTableLineLength = 2

type Parameter struct {
	Key   interface{}
	Value interface{}
}

func buildDefaultTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)

	// Set the header's format
	t.Style().Format.Header = text.FormatDefault
	return t
}

// PrintParameters renders key/value pairs, ParameterTableLineLength per row
func PrintParameters(out io.Writer, title string, parameters []Parameter) {
	t := buildDefaultTable(out)

	if title != "" {
		t.SetTitle(title)
	}

	// Get the length of the rows
	length := len(parameters) / ParameterTableLineLength
	if len(parameters)%ParameterTableLineLength != 0 {
		length++
	}
	rows := make([]table.Row, length)

	for i, parameter := range parameters {
		row := i / ParameterTableLineLength
		rows[row] = append(rows[row], parameter.Key, parameter.Value)
	}
	t.AppendRows(rows)
	t.Render()
}

func PrintTable(out io.Writer, title string, header table.Row, rows []table.Row) {
	t := buildDefaultTable(out)
	// Set the table's title
	if title != "" {
		t.SetTitle(title)
	}
	// Set the table's header and rows
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}
