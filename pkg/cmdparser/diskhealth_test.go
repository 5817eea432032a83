package cmdparser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwameistor/diskhealth/pkg/cmdparser/definitions"
)

func TestCommandTree(t *testing.T) {
	names := []string{}
	for _, c := range Diskhealth.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"daemon", "drivedb", "version"})

	daemon, _, err := Diskhealth.Find([]string{"daemon"})
	require.NoError(t, err)
	for _, flag := range []string{"config", "drivedb", "interval", "onecheck", "metrics-address"} {
		assert.NotNil(t, daemon.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, Diskhealth.PersistentFlags().Lookup("log-format"))
}

func TestVersion(t *testing.T) {
	definitions.BuildVersion = "v0.1.0"
	var out bytes.Buffer
	Diskhealth.SetOut(&out)
	Diskhealth.SetArgs([]string{"version"})
	require.NoError(t, Diskhealth.Execute())
	assert.Contains(t, out.String(), `GitCommit:"v0.1.0"`)
}
