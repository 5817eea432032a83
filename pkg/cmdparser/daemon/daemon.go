package daemon

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/devicescan"
	"github.com/hwameistor/diskhealth/pkg/exechelper/basicexecutor"
	"github.com/hwameistor/diskhealth/pkg/metrics"
	"github.com/hwameistor/diskhealth/pkg/monitor"
	"github.com/hwameistor/diskhealth/pkg/transport/sgio"
)

var (
	configPath     string
	drivedbPath    string
	interval       time.Duration
	onecheck       bool
	metricsAddress string
)

var Daemon = &cobra.Command{
	Use:   "daemon",
	Args:  cobra.ExactArgs(0),
	Short: "Monitor the configured disks.",
	Long: "Registers the disks of the configuration file and checks them every interval.\n" +
		"SIGUSR1 starts a check immediately, SIGHUP reloads the configuration and\n" +
		"the drive database. Both files are also reloaded when they change.",
	Example: "diskhealth daemon --config /etc/diskhealth/diskhealth.yaml\n" +
		"diskhealth daemon --onecheck --debug",
	RunE: daemonRunE,
}

func init() {
	Daemon.Flags().AddFlagSet(daemonFlags())
}

func daemonFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("daemon", pflag.ExitOnError)
	fs.StringVar(&configPath, "config", config.DefaultConfigPath, "Path of the configuration file")
	fs.StringVar(&drivedbPath, "drivedb", "", "Path of an external drive database, overrides the configuration")
	fs.DurationVar(&interval, "interval", 0, "Check interval, overrides the configuration")
	fs.BoolVar(&onecheck, "onecheck", false, "Check every disk once and exit")
	fs.StringVar(&metricsAddress, "metrics-address", "", "Serve Prometheus metrics on this address, e.g. :9633")
	return fs
}

func daemonRunE(cmd *cobra.Command, _ []string) error {
	logger := log.WithField("Module", "Daemon")
	executor := basicexecutor.New()
	loader := &FileLoader{
		ConfigPath:  configPath,
		DrivedbPath: drivedbPath,
		Interval:    interval,
		Scanner:     devicescan.NewSmartCtl(executor),
	}
	clk := clock.RealClock{}
	mon := monitor.New(loader, sgio.Opener, alerter.NewManager(executor, clk), clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// config errors and a host without monitorable disks are fatal at startup
	if err := mon.Load(ctx); err != nil {
		logger.WithError(err).Error("Failed to start monitoring")
		return err
	}

	if onecheck {
		logger.Info("Checking every device once")
		mon.CheckAll(ctx)
		mon.Close()
		printReport(cmd.OutOrStdout(), mon.Summaries())
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handleSignals(ctx, mon, cancel)
	})
	g.Go(func() error {
		defer cancel()
		return mon.Run(ctx)
	})
	g.Go(func() error {
		if err := mon.WatchFiles(ctx, loader.WatchedFiles()...); err != nil {
			logger.WithError(err).Warning("Configuration changes will need SIGHUP to be applied")
		}
		return nil
	})
	if metricsAddress != "" {
		g.Go(func() error {
			return metrics.NewCollectorManager(mon).Serve(ctx, metricsAddress)
		})
	}

	err := g.Wait()
	logger.Info("Completely stopped")
	return err
}
