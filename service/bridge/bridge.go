// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cirello.io/oversight/v2"
	"github.com/arunsworld/nursery"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/assetsvc"
	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
	"github.com/u-bmc/nut-bridge/pkg/ipc"
	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/pkg/process"
	"github.com/u-bmc/nut-bridge/pkg/unitmgr"
	"github.com/u-bmc/nut-bridge/service"
	"github.com/u-bmc/nut-bridge/service/alertscan"
	"github.com/u-bmc/nut-bridge/service/cmdtracker"
	"github.com/u-bmc/nut-bridge/service/confresolver"
	"github.com/u-bmc/nut-bridge/service/devicepoll"
	"github.com/u-bmc/nut-bridge/service/drivermgr"
	"github.com/u-bmc/nut-bridge/service/sensormon"
)

const defaultLogo = `
 _   _ _   _ _____        _               _
| \ | | | | |_   _|______| |__  _ __(_) __| | __ _  ___
|  \| | | | | | | |______| '_ \| '__| |/ _` + "`" + ` |/ _` + "`" + ` |/ _ \
| |\  | |_| | | |      | |_) | |  | | (_| | (_| |  __/
|_| \_|\___/  |_|      |_.__/|_|  |_|\__,_|\__, |\___|
                                            |___/
`

// Compile-time assertion that Bridge implements service.Service.
var _ service.Service = (*Bridge)(nil)

// Bridge is the C10 event ingress and scheduler. It owns the asset
// catalog's single Manager, supervises C4-C9, and runs the per-asset
// configuration scheduler.
type Bridge struct {
	config *config

	catalogMgr    *catalog.Manager
	catalogWriter *catalog.Writer
	catalogReader *catalog.Reader

	credsClient *credstore.Client
	assetClient *assetsvc.Client
	unitClient  *unitmgr.Client

	sched  *scheduler
	health *healthState

	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs a Bridge with the given options.
func New(opts ...Option) *Bridge {
	return &Bridge{
		config: newConfig(opts...),
		health: newHealthState(),
	}
}

// Name implements service.Service.
func (b *Bridge) Name() string {
	return b.config.name
}

// Run implements service.Service. It connects to the in-process bus,
// constructs and supervises C4-C9 under an oversight tree, and drives the
// event-ingress/scheduler loop (C10) until ctx is canceled.
func (b *Bridge) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) (err error) {
	if b.config.name == "" {
		return ErrNameEmpty
	}
	if ipcConn == nil {
		return ErrIPCConnRequired
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %w: %v", b.Name(), ErrPanicked, r)
		}
	}()

	// Several services rely on the telemetry setup being done first because
	// of the custom logger it installs.
	b.config.otelSetup()
	b.logger = log.GetGlobalLogger().With("service", b.config.name)
	b.tracer = otel.Tracer(b.config.name)

	if !b.config.disableLogo {
		if b.config.customLogo != "" {
			b.logger.Info(b.config.customLogo)
		} else {
			b.logger.Info(defaultLogo)
		}
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	defer nc.Drain() //nolint:errcheck

	b.catalogMgr = catalog.NewManager()
	b.catalogWriter = b.catalogMgr.Writer()
	b.catalogReader = b.catalogMgr.Reader()

	b.credsClient = credstore.New(nc, b.config.busTimeout)
	b.assetClient = assetsvc.New(nc, b.config.busTimeout)
	b.unitClient = unitmgr.New(b.config.systemctlPath)
	b.sched = newScheduler(nc, b.config.busTimeout, b.logger, b.tracer)

	children := b.buildChildren()

	supervisionTree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
		oversight.WithLogger(log.NewOversightLogger(b.logger)),
	)

	for _, svc := range children {
		tracked := &trackedService{inner: svc, health: b.health}
		if err := supervisionTree.Add(
			process.New(tracked, ipcConn),
			oversight.Transient(),
			oversight.Timeout(b.config.timeout),
			svc.Name(),
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, svc.Name(), err)
		}
	}
	for _, svc := range b.config.extraServices {
		tracked := &trackedService{inner: svc, health: b.health}
		if err := supervisionTree.Add(
			process.New(tracked, ipcConn),
			oversight.Transient(),
			oversight.Timeout(b.config.timeout),
			svc.Name(),
		); err != nil {
			return fmt.Errorf("%w %s to tree: %w", ErrAddProcess, svc.Name(), err)
		}
	}

	if err := b.registerHealth(nc); err != nil {
		return err
	}

	supervise := func(ctx context.Context, c chan error) {
		c <- supervisionTree.Start(ctx)
	}

	eventLoop := func(ctx context.Context, c chan error) {
		c <- b.runEventLoop(ctx, nc)
	}

	b.logger.InfoContext(ctx, "starting bridge", "service", b.config.name)
	return nursery.RunConcurrentlyWithContext(ctx, supervise, eventLoop)
}

// buildChildren returns the six C4-C9 services this bridge supervises,
// using any caller-supplied override in place of a locally built default.
func (b *Bridge) buildChildren() []service.Service {
	confResolver := b.config.confResolver
	if confResolver == nil {
		confResolver = confresolver.New(b.credsClient, nil,
			confresolver.WithScannerBinary(b.config.scannerBinary),
			confresolver.WithScanTimeout(b.config.scanTimeout),
		)
	}

	driverMgr := b.config.driverMgr
	if driverMgr == nil {
		driverMgr = drivermgr.New(b.unitClient, drivermgr.WithSystemctlPath(b.config.systemctlPath))
	}

	devicePoll := b.config.devicePoll
	if devicePoll == nil {
		devicePoll = devicepoll.New(b.catalogMgr.Reader())
	}

	alertScan := b.config.alertScan
	if alertScan == nil {
		alertScan = alertscan.New(b.catalogMgr.Reader())
	}

	sensorMon := b.config.sensorMon
	if sensorMon == nil {
		sensorMon = sensormon.New(b.catalogMgr.Reader())
	}

	cmdTracker := b.config.cmdTracker
	if cmdTracker == nil {
		cmdTracker = cmdtracker.New()
	}

	return []service.Service{confResolver, driverMgr, devicePoll, alertScan, sensorMon, cmdTracker}
}

func (b *Bridge) registerHealth(nc *nats.Conn) error {
	svc, err := micro.AddService(nc, micro.Config{
		Name:        b.config.name,
		Description: b.config.description,
		Version:     b.config.version,
	})
	if err != nil {
		return fmt.Errorf("failed to create bridge micro service: %w", err)
	}
	groups := make(map[string]micro.Group)
	return ipc.RegisterEndpointWithGroupCache(svc, b.config.healthSubject, b.handleHealth(), groups)
}

// runEventLoop hydrates the catalog, subscribes to ingress, and ticks the
// scheduler until ctx is canceled. On cancellation it stops every tracked
// per-asset state machine with a context that is detached from ctx and
// bounded by the configured timeout. It does not wait for in-flight C9
// command jobs.
func (b *Bridge) runEventLoop(ctx context.Context, nc *nats.Conn) error {
	if err := hydrate(ctx, b.assetClient, b.catalogWriter, b.logger); err != nil {
		b.logger.WarnContext(ctx, "catalog hydration failed, continuing with an empty catalog", "error", err)
	}
	b.sched.reconcile(ctx, b.catalogReader.State())

	if err := b.subscribeIngress(ctx, nc); err != nil {
		return err
	}

	ticker := time.NewTicker(b.config.schedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.config.timeout)
			defer cancel()
			_ = b.sched.mgr.StopAll(drainCtx)
			b.logger.InfoContext(context.WithoutCancel(ctx), "shutting down bridge event loop")
			return ctx.Err()
		case <-ticker.C:
			if !b.catalogReader.Refresh() {
				b.sched.tick(ctx, b.catalogReader.State())
				continue
			}
			snapshot := b.catalogReader.State()
			b.sched.reconcile(ctx, snapshot)
			b.sched.tick(ctx, snapshot)
		}
	}
}
