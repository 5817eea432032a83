//go:build !linux

package sgio

import (
	"fmt"
	"runtime"

	"github.com/hwameistor/diskhealth/pkg/transport"
)

// Open is only implemented on Linux
func Open(name, devType string) (transport.Transport, error) {
	return nil, fmt.Errorf("ATA pass-through is not supported on %s", runtime.GOOS)
}

// Opener opens devices through SG_IO
var Opener = transport.OpenerFunc(Open)
