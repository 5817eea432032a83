package daemon

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/devicescan"
	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/monitor"
)

var _ monitor.Loader = &FileLoader{}

// FileLoader reads the configuration file and the drive database and expands
// scan directives, on every start and reload
type FileLoader struct {
	ConfigPath  string
	DrivedbPath string
	Interval    time.Duration
	Scanner     devicescan.Scanner
}

// Load implements monitor.Loader
func (l *FileLoader) Load() (*config.Config, *drivedb.Database, error) {
	logger := log.WithFields(log.Fields{"Module": "Loader", "config": l.ConfigPath})

	cfg, err := config.Load(l.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if l.Interval > 0 {
		if l.Interval < config.MinInterval {
			return nil, nil, fmt.Errorf("interval %s is below the minimum of %s", l.Interval, config.MinInterval)
		}
		cfg.Interval = l.Interval
	}
	if l.DrivedbPath != "" {
		cfg.DriveDatabase = l.DrivedbPath
	}

	db, err := drivedb.New()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DriveDatabase != "" {
		// malformed records are dropped, the others stay usable
		var perrs drivedb.ParseErrors
		if err := db.LoadFile(cfg.DriveDatabase); errors.As(err, &perrs) {
			for _, perr := range perrs {
				logger.WithField("drivedb", cfg.DriveDatabase).Warning(perr.Error())
			}
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to load drive database: %w", err)
		}
	}

	if err := devicescan.ValidateExcludes(cfg.Devices); err != nil {
		return nil, nil, err
	}
	if cfg.Devices, err = devicescan.Expand(cfg.Devices, l.Scanner); err != nil {
		return nil, nil, err
	}
	logger.WithFields(log.Fields{"devices": len(cfg.Devices), "interval": cfg.Interval, "drivedb": db.Version()}).Info("Loaded configuration")
	return cfg, db, nil
}

// WatchedFiles returns the files whose changes trigger a reload
func (l *FileLoader) WatchedFiles() []string {
	files := []string{l.ConfigPath}
	if l.DrivedbPath != "" {
		return append(files, l.DrivedbPath)
	}
	// the database named by the configuration is only known after loading
	if cfg, err := config.Load(l.ConfigPath); err == nil && cfg.DriveDatabase != "" {
		files = append(files, cfg.DriveDatabase)
	}
	return files
}
