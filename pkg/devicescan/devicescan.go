// Package devicescan expands scan directives into the ATA devices found on
// the host.
package devicescan

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/exechelper"
)

const defaultCmdName = "smartctl"

// DeviceInfo is one device reported by the scan
type DeviceInfo struct {
	Name     string
	InfoName string
	Type     string
	Protocol string
}

// Scanner lists the devices attached to the host
type Scanner interface {
	Scan() ([]DeviceInfo, error)
}

type smartCtlScanner struct {
	logger  *log.Entry
	cmdExec exechelper.Executor
	cmdName string
}

// NewSmartCtl creates a scanner running "smartctl --scan-open --json"
func NewSmartCtl(executor exechelper.Executor) Scanner {
	return &smartCtlScanner{
		logger:  log.WithField("Module", "DeviceScan"),
		cmdExec: executor,
		cmdName: defaultCmdName,
	}
}

// Scan returns the ATA devices, RAID members and other protocols are left out
func (sc *smartCtlScanner) Scan() ([]DeviceInfo, error) {
	result := sc.cmdExec.RunCommand(exechelper.ExecParams{
		CmdName: sc.cmdName,
		CmdArgs: []string{"--scan-open", "--json"},
	})
	// smartctl sets bits of its exit status for devices it failed to open
	if result.OutBuf == nil || result.OutBuf.Len() == 0 {
		if result.Error != nil {
			return nil, fmt.Errorf("failed to scan devices: %w", result.Error)
		}
		return nil, fmt.Errorf("failed to scan devices: empty output, exit code %d", result.ExitCode)
	}
	return sc.parse(result.OutBuf.String())
}

func (sc *smartCtlScanner) parse(out string) ([]DeviceInfo, error) {
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("failed to scan devices: invalid JSON output")
	}

	devices := []DeviceInfo{}
	gjson.Get(out, "devices").ForEach(func(_, dev gjson.Result) bool {
		info := DeviceInfo{
			Name:     dev.Get("name").String(),
			InfoName: dev.Get("info_name").String(),
			Type:     dev.Get("type").String(),
			Protocol: dev.Get("protocol").String(),
		}
		devType, ok := ataType(info.Type, info.Protocol)
		if !ok || info.Name == "" {
			sc.logger.WithFields(log.Fields{"device": info.Name, "type": info.Type, "protocol": info.Protocol}).Debug("Skipping device not reachable through ATA pass-through")
			return true
		}
		info.Type = devType
		devices = append(devices, info)
		return true
	})
	return devices, nil
}

// ataType maps a smartctl device type to a monitored type
func ataType(devType, protocol string) (string, bool) {
	if protocol != "" && !strings.EqualFold(protocol, "ATA") {
		return "", false
	}
	base := devType
	if i := strings.Index(devType, ","); i >= 0 {
		// RAID members carry their slot, e.g. "megaraid,0"
		base = devType[:i]
		if base != "sat" {
			return "", false
		}
	}
	switch base {
	case "ata", "sat":
		return base, true
	}
	return "", false
}

// Expand replaces scan directives with one device per scan result. Devices
// listed explicitly, and names matching an exclude pattern, are not added
// again. The order of the configuration is kept.
func Expand(devices []*config.Device, scanner Scanner) ([]*config.Device, error) {
	listed := map[string]bool{}
	hasScan := false
	for _, dev := range devices {
		if dev.Scan {
			hasScan = true
			continue
		}
		listed[dev.Name] = true
	}
	if !hasScan {
		return devices, nil
	}

	found, err := scanner.Scan()
	if err != nil {
		return nil, err
	}

	out := make([]*config.Device, 0, len(devices)+len(found))
	for _, dev := range devices {
		if !dev.Scan {
			out = append(out, dev)
			continue
		}
		excludes, err := compileExcludes(dev.Exclude)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if listed[f.Name] || excluded(excludes, f.Name) {
				continue
			}
			listed[f.Name] = true
			out = append(out, dev.WithName(f.Name, f.Type))
		}
	}
	log.WithFields(log.Fields{"found": len(found), "devices": len(out)}).Info("Expanded device scan")
	return out, nil
}

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func excluded(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// ValidateExcludes checks the exclude patterns of every scan directive
func ValidateExcludes(devices []*config.Device) error {
	for _, dev := range devices {
		if _, err := compileExcludes(dev.Exclude); err != nil {
			return err
		}
	}
	return nil
}
