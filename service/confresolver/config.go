// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import "time"

const (
	DefaultServiceName        = "confresolver"
	DefaultServiceDescription = "NUT configuration candidate resolver"
	DefaultServiceVersion     = "1.0.0"
	DefaultScannerPoolSize    = 4
	DefaultPollingInterval    = 30 * time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	scannerPoolSize int
	scannerBinary   string
	scanTimeout     time.Duration

	automaticPrioritySort bool
	preferDmfForSNMP      bool
	scanDummyUPS          bool

	pollingInterval time.Duration
	configTypes     []*ConfigType
}

// Option configures the confresolver service (§6 process-level
// configuration options under `configuration/*` and `preferences/*`).
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithServiceName overrides the NATS micro service name.
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

// WithServiceDescription overrides the NATS micro service description.
func WithServiceDescription(description string) Option {
	return optionFunc(func(c *config) { c.serviceDescription = description })
}

// WithServiceVersion overrides the NATS micro service version.
func WithServiceVersion(version string) Option {
	return optionFunc(func(c *config) { c.serviceVersion = version })
}

// WithScannerPoolSize sets scan concurrency
// (`configuration/threadPoolScannerSize`).
func WithScannerPoolSize(n int) Option {
	return optionFunc(func(c *config) { c.scannerPoolSize = n })
}

// WithScannerBinary overrides the nut-scanner(8) binary path.
func WithScannerBinary(path string) Option {
	return optionFunc(func(c *config) { c.scannerBinary = path })
}

// WithScanTimeout bounds each individual scan attempt (§4.3 path 3).
func WithScanTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.scanTimeout = d })
}

// WithAutomaticPrioritySort toggles re-ranking DB candidates per §4.3
// after every scan (`preferences/automaticPrioritySort`).
func WithAutomaticPrioritySort(enable bool) Option {
	return optionFunc(func(c *config) { c.automaticPrioritySort = enable })
}

// WithPreferDmfForSNMP toggles snmp-ups-dmf in place of snmp-ups during
// scans (`preferences/preferDmfForSnmp`).
func WithPreferDmfForSNMP(enable bool) Option {
	return optionFunc(func(c *config) { c.preferDmfForSNMP = enable })
}

// WithScanDummyUPS toggles whether dummy-ups is included in scan drivers
// (`preferences/scanDummyUps`).
func WithScanDummyUPS(enable bool) Option {
	return optionFunc(func(c *config) { c.scanDummyUPS = enable })
}

// WithPollingInterval sets the base polling period used to complete
// chosen candidates (`nut/polling_interval`).
func WithPollingInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.pollingInterval = d })
}

// WithConfigTypes supplies the set of device configuration templates
// candidates are matched against (§3 Device Configuration Type).
func WithConfigTypes(types []*ConfigType) Option {
	return optionFunc(func(c *config) { c.configTypes = types })
}

func newConfig(opts ...Option) *config {
	c := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		scannerPoolSize:    DefaultScannerPoolSize,
		scanTimeout:        DefaultScanTimeout,
		pollingInterval:    DefaultPollingInterval,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
