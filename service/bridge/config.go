// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"time"

	"github.com/u-bmc/nut-bridge/pkg/telemetry"
	"github.com/u-bmc/nut-bridge/service"
	"github.com/u-bmc/nut-bridge/service/alertscan"
	"github.com/u-bmc/nut-bridge/service/cmdtracker"
	"github.com/u-bmc/nut-bridge/service/confresolver"
	"github.com/u-bmc/nut-bridge/service/devicepoll"
	"github.com/u-bmc/nut-bridge/service/drivermgr"
	"github.com/u-bmc/nut-bridge/service/sensormon"
)

const (
	DefaultName                = "nut-bridge"
	DefaultServiceDescription  = "NUT bridge event ingress and scheduler"
	DefaultServiceVersion      = "1.0.0"
	DefaultTimeout             = 10 * time.Second
	DefaultBusTimeout          = 5 * time.Second
	DefaultSchedulerInterval   = 1 * time.Second
	DefaultAssetStreamSubject  = "bridge.asset_stream"
	DefaultMetricStreamSubject = "bridge.metric_stream"
	DefaultHealthSubject       = "bridge.health"
)

// config holds the bridge's own settings plus, for each of C4-C9, either a
// caller-supplied override instance or nil (built with defaults in Run,
// once a live bus connection exists to construct them with).
type config struct {
	name        string
	description string
	version     string
	disableLogo bool
	customLogo  string
	otelSetup   func()
	timeout     time.Duration

	busTimeout         time.Duration
	schedulerInterval  time.Duration
	assetStreamSubject string
	metricStreamSubject string
	healthSubject      string

	systemctlPath string
	scannerBinary string
	scanTimeout   time.Duration

	confResolver service.Service
	driverMgr    service.Service
	devicePoll   service.Service
	alertScan    service.Service
	sensorMon    service.Service
	cmdTracker   service.Service

	extraServices []service.Service
}

// Option configures the bridge.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithName sets the bridge's NATS micro service name.
func WithName(name string) Option {
	return optionFunc(func(c *config) { c.name = name })
}

// WithDescription overrides the NATS micro service description.
func WithDescription(description string) Option {
	return optionFunc(func(c *config) { c.description = description })
}

// WithVersion overrides the NATS micro service version.
func WithVersion(version string) Option {
	return optionFunc(func(c *config) { c.version = version })
}

// WithDisableLogo suppresses the startup logo.
func WithDisableLogo(disableLogo bool) Option {
	return optionFunc(func(c *config) { c.disableLogo = disableLogo })
}

// WithCustomLogo replaces the default startup logo.
func WithCustomLogo(customLogo string) Option {
	return optionFunc(func(c *config) { c.customLogo = customLogo })
}

// WithOtelSetup overrides the OpenTelemetry bootstrap called once at the
// start of Run (telemetry.DefaultSetup unless set).
func WithOtelSetup(otelSetup func()) Option {
	return optionFunc(func(c *config) { c.otelSetup = otelSetup })
}

// WithTimeout sets the oversight per-child start/stop timeout.
func WithTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *config) { c.timeout = timeout })
}

// WithBusTimeout bounds every request-reply call the scheduler makes to
// the resolver, driver manager, credential store, and asset inventory.
func WithBusTimeout(timeout time.Duration) Option {
	return optionFunc(func(c *config) { c.busTimeout = timeout })
}

// WithSchedulerInterval sets the scheduler's polling cadence for per-asset
// configuration-lifecycle deadlines (§4.9).
func WithSchedulerInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.schedulerInterval = d })
}

// WithAssetStreamSubject overrides the subject the bridge subscribes to
// for inbound asset-stream events (§6).
func WithAssetStreamSubject(subject string) Option {
	return optionFunc(func(c *config) { c.assetStreamSubject = subject })
}

// WithMetricStreamSubject overrides the subject the bridge subscribes to
// for the licensing/metric stream (§6, `monitoring.global@rackcontroller-0`).
func WithMetricStreamSubject(subject string) Option {
	return optionFunc(func(c *config) { c.metricStreamSubject = subject })
}

// WithHealthSubject overrides the NATS micro subject the bridge's health
// endpoint is registered on.
func WithHealthSubject(subject string) Option {
	return optionFunc(func(c *config) { c.healthSubject = subject })
}

// WithSystemctlPath overrides the systemctl binary used by the driver
// lifecycle manager's underlying pkg/unitmgr client.
func WithSystemctlPath(path string) Option {
	return optionFunc(func(c *config) { c.systemctlPath = path })
}

// WithScannerBinary overrides the nut-scanner(8) binary used by the
// configuration resolver's active-scan fallback.
func WithScannerBinary(path string) Option {
	return optionFunc(func(c *config) { c.scannerBinary = path })
}

// WithScanTimeout bounds each active-scan attempt.
func WithScanTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.scanTimeout = d })
}

// WithConfResolver overrides the C4 configuration resolver instance
// supervised by the bridge (built from the other options otherwise).
func WithConfResolver(s *confresolver.ConfResolver) Option {
	return optionFunc(func(c *config) { c.confResolver = s })
}

// WithDriverMgr overrides the C5 driver lifecycle manager instance
// supervised by the bridge.
func WithDriverMgr(s *drivermgr.DriverMgr) Option {
	return optionFunc(func(c *config) { c.driverMgr = s })
}

// WithDevicePoll overrides the C6 polling engine instance supervised by
// the bridge.
func WithDevicePoll(s *devicepoll.DevicePoll) Option {
	return optionFunc(func(c *config) { c.devicePoll = s })
}

// WithAlertScan overrides the C7 threshold alert scanner instance
// supervised by the bridge.
func WithAlertScan(s *alertscan.AlertScan) Option {
	return optionFunc(func(c *config) { c.alertScan = s })
}

// WithSensorMon overrides the C8 ambient sensor monitor instance
// supervised by the bridge.
func WithSensorMon(s *sensormon.SensorMon) Option {
	return optionFunc(func(c *config) { c.sensorMon = s })
}

// WithCmdTracker overrides the C9 command tracker instance supervised by
// the bridge.
func WithCmdTracker(s *cmdtracker.CmdTracker) Option {
	return optionFunc(func(c *config) { c.cmdTracker = s })
}

// WithExtraServices adds additional services to the supervision tree
// alongside C4-C9.
func WithExtraServices(services ...service.Service) Option {
	return optionFunc(func(c *config) { c.extraServices = services })
}

func newConfig(opts ...Option) *config {
	c := &config{
		name:                DefaultName,
		description:         DefaultServiceDescription,
		version:             DefaultServiceVersion,
		otelSetup:           telemetry.DefaultSetup,
		timeout:             DefaultTimeout,
		busTimeout:          DefaultBusTimeout,
		schedulerInterval:   DefaultSchedulerInterval,
		assetStreamSubject:  DefaultAssetStreamSubject,
		metricStreamSubject: DefaultMetricStreamSubject,
		healthSubject:       DefaultHealthSubject,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
