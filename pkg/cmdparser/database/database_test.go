package database

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	var out bytes.Buffer
	drivedbLookup.SetOut(&out)
	databasePath = ""

	require.NoError(t, drivedbLookupRunE(drivedbLookup, []string{"M4-CT128M4SSD2", "0009"}))
	assert.Contains(t, out.String(), "Crucial/Micron RealSSD m4/C400/P400")
	assert.Contains(t, out.String(), "Wear_Leveling_Count")
	// defaults fill the remaining ids
	assert.Contains(t, out.String(), "Temperature_Celsius")

	out.Reset()
	require.NoError(t, drivedbLookupRunE(drivedbLookup, []string{"UNKNOWN MODEL"}))
	assert.Contains(t, out.String(), `No drive database entry for "UNKNOWN MODEL"`)
}

func TestLookupExternal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drivedb.h")
	require.NoError(t, os.WriteFile(path, []byte(`{ "Example drive", "EXAMPLE DISK", "", "", "-v 9,minutes" }`), 0o644))

	var out bytes.Buffer
	drivedbLookup.SetOut(&out)
	databasePath = path
	defer func() { databasePath = "" }()

	require.NoError(t, drivedbLookupRunE(drivedbLookup, []string{"EXAMPLE DISK"}))
	assert.Contains(t, out.String(), "Example drive")
	assert.Contains(t, out.String(), "9,min2hour")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.h")
	require.NoError(t, os.WriteFile(good, []byte(`{ "a", "A", "", "", "" }, { "b", "B", "", "", "-v 9,minutes" }`), 0o644))
	bad := filepath.Join(dir, "bad.h")
	require.NoError(t, os.WriteFile(bad, []byte(`{ "a", "MODEL(", "", "", "" }, { "b", "B", "", "", "" }`), 0o644))

	var out bytes.Buffer
	drivedbCheck.SetOut(&out)
	require.NoError(t, drivedbCheckRunE(drivedbCheck, []string{good}))
	assert.Contains(t, out.String(), "2 records, no errors")

	out.Reset()
	assert.Error(t, drivedbCheckRunE(drivedbCheck, []string{bad}))
	assert.Contains(t, out.String(), "1 records")
	assert.Contains(t, out.String(), "bad.h:1")

	assert.Error(t, drivedbCheckRunE(drivedbCheck, []string{filepath.Join(dir, "missing.h")}))
}

func TestCheckHelpListsLegacyOptions(t *testing.T) {
	assert.Contains(t, drivedbCheck.Long, "\n  9,minutes\n")
	assert.Contains(t, drivedbCheck.Long, "194,10xCelsius")
}
