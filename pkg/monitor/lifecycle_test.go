package monitor_test

import (
	"context"
	"strings"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/hwameistor/diskhealth/pkg/alerter"
	"github.com/hwameistor/diskhealth/pkg/config"
	"github.com/hwameistor/diskhealth/pkg/drivedb"
	"github.com/hwameistor/diskhealth/pkg/exechelper"
	"github.com/hwameistor/diskhealth/pkg/monitor"
	"github.com/hwameistor/diskhealth/pkg/smart/ata"
	"github.com/hwameistor/diskhealth/pkg/transport"
	"github.com/hwameistor/diskhealth/pkg/transport/simdisk"
)

const lifecycleConfig = `
interval: 10m
devices:
  - name: /dev/sim0
    alert:
      exec: /usr/local/bin/notify
      frequency: once
`

var _ = ginkgo.Describe("device monitoring lifecycle", ginkgo.Label("lifecycle"), func() {
	var (
		ctrl     *gomock.Controller
		executor *exechelper.MockExecutor
		clk      *clocktesting.FakeClock
		disk     *simdisk.Disk
		mon      *monitor.Monitor
		alerts   []string
	)

	ginkgo.BeforeEach(func() {
		ctrl = gomock.NewController(ginkgo.GinkgoT())
		executor = exechelper.NewMockExecutor(ctrl)
		clk = clocktesting.NewFakeClock(time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC))
		alerts = nil

		disk = simdisk.New("SIMULATED DISK 2000", "SIM2000", "FW02")
		disk.SetAttribute(0, ata.Attribute{ID: 5, Flags: ata.FlagPrefailure | ata.FlagOnline, Current: 10, Worst: 10}, 20)

		executor.EXPECT().RunCommand(gomock.Any()).DoAndReturn(func(params exechelper.ExecParams) exechelper.ExecResult {
			for _, env := range params.Env {
				if strings.HasPrefix(env, "DISKHEALTH_FAILTYPE=") {
					alerts = append(alerts, strings.TrimPrefix(env, "DISKHEALTH_FAILTYPE="))
				}
			}
			return exechelper.ExecResult{}
		}).AnyTimes()

		loader := monitor.LoaderFunc(func() (*config.Config, *drivedb.Database, error) {
			cfg, err := config.Parse(strings.NewReader(lifecycleConfig))
			if err != nil {
				return nil, nil, err
			}
			db, err := drivedb.New()
			return cfg, db, err
		})
		opener := transport.OpenerFunc(func(name, devType string) (transport.Transport, error) {
			return disk, nil
		})
		mon = monitor.New(loader, opener, alerter.NewManager(executor, clk), clk)
	})

	ginkgo.AfterEach(func() {
		mon.Close()
		ctrl.Finish()
	})

	ginkgo.Context("a prefailure attribute below its threshold", func() {
		ginkgo.It("alerts exactly once with frequency once", func() {
			gomega.Expect(mon.Load(context.Background())).To(gomega.Succeed())

			mon.CheckAll(context.Background())
			gomega.Expect(alerts).To(gomega.Equal([]string{"Usage"}))

			for i := 0; i < 3; i++ {
				clk.Step(10 * time.Minute)
				mon.CheckAll(context.Background())
			}
			logrus.Infof("alerts sent: %v", alerts)
			gomega.Expect(alerts).To(gomega.HaveLen(1))

			summaries := mon.Summaries()
			gomega.Expect(summaries).To(gomega.HaveLen(1))
			gomega.Expect(summaries[0].AlertCounts).To(gomega.HaveKeyWithValue("Usage", 1))
			gomega.Expect(summaries[0].Attributes).To(gomega.ContainElement(gomega.And(
				gomega.HaveField("ID", uint8(5)),
				gomega.HaveField("State", ata.AttrStateFailedNow.String()),
			)))
		})
	})

	ginkgo.Context("the daemon loop", func() {
		ginkgo.It("stops when its context is cancelled and releases the device", func() {
			gomega.Expect(mon.Load(context.Background())).To(gomega.Succeed())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- mon.Run(ctx) }()

			gomega.Eventually(clk.HasWaiters).Should(gomega.BeTrue())
			cancel()
			gomega.Eventually(done).Should(gomega.Receive(gomega.BeNil()))
			gomega.Expect(disk.Closed()).To(gomega.BeTrue())
		})
	})
})
