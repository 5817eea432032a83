package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/hwameistor/diskhealth/pkg/monitor"
)

// waker is the part of the monitor the signal handler drives
type waker interface {
	Wake(reason monitor.WakeReason)
}

// handleSignals turns SIGUSR1 into a check and SIGHUP into a reload. SIGINT
// and SIGTERM stop the daemon.
func handleSignals(ctx context.Context, w waker, stop context.CancelFunc) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return dispatchSignals(ctx, sigCh, w, stop)
}

func dispatchSignals(ctx context.Context, sigCh <-chan os.Signal, w waker, stop context.CancelFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Info("Received signal")
			switch sig {
			case syscall.SIGUSR1:
				w.Wake(monitor.WakeCheckNow)
			case syscall.SIGHUP:
				w.Wake(monitor.WakeReload)
			default:
				stop()
				return nil
			}
		}
	}
}
