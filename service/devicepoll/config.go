// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import "time"

const (
	DefaultServiceName        = "devicepoll"
	DefaultServiceDescription = "NUT device polling engine"
	DefaultServiceVersion     = "1.0.0"
	DefaultPollingInterval    = 30 * time.Second
	DefaultInventoryRepeat    = time.Hour
	DefaultNUTAddress         = "localhost:3493"
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	pollingInterval time.Duration
	inventoryRepeat time.Duration
	mappingPath     string
	nutAddress      string
}

// Option configures the devicepoll service.
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

// WithPollingInterval sets the per-device refresh cadence (`nut/polling_interval`).
func WithPollingInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.pollingInterval = d })
}

// WithInventoryRepeat sets the full-inventory republish cadence
// (NUT_INVENTORY_REPEAT, §4.5).
func WithInventoryRepeat(d time.Duration) Option {
	return optionFunc(func(c *config) { c.inventoryRepeat = d })
}

// WithMappingPath loads the physics/inventory mapping from path at Run
// time instead of using DefaultMapping.
func WithMappingPath(path string) Option {
	return optionFunc(func(c *config) { c.mappingPath = path })
}

// WithNUTAddress overrides the upsd address dialed for an asset that
// carries no IP of its own (default DefaultNUTAddress).
func WithNUTAddress(addr string) Option {
	return optionFunc(func(c *config) { c.nutAddress = addr })
}

func newConfig(opts ...Option) *config {
	c := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		pollingInterval:    DefaultPollingInterval,
		inventoryRepeat:    DefaultInventoryRepeat,
		nutAddress:         DefaultNUTAddress,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
