// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import "time"

const (
	DefaultServiceName        = "sensormon"
	DefaultServiceDescription = "NUT ambient sensor monitor"
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

// Option configures a SensorMon at construction time.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

func WithServiceName(name string) Option {
	return optionFunc(func(c *config) { c.serviceName = name })
}

func WithServiceDescription(description string) Option {
	return optionFunc(func(c *config) { c.serviceDescription = description })
}

func WithServiceVersion(version string) Option {
	return optionFunc(func(c *config) { c.serviceVersion = version })
}

func WithPollingInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.pollingInterval = d })
}

func WithInventoryRepeat(d time.Duration) Option {
	return optionFunc(func(c *config) { c.inventoryRepeat = d })
}

func WithMappingPath(path string) Option {
	return optionFunc(func(c *config) { c.mappingPath = path })
}

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
