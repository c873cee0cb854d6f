// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

import "time"

const (
	DefaultServiceName        = "cmdtracker"
	DefaultServiceDescription = "NUT instant command tracker"
	DefaultServiceVersion     = "1.0.0"
	DefaultNUTAddress         = "localhost:3493"
	DefaultPollInterval       = time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	nutAddress   string
	pollInterval time.Duration
}

// Option configures the cmdtracker service.
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

// WithNUTAddress overrides the NUT daemon address this service dials its
// single worker session against.
func WithNUTAddress(address string) Option {
	return optionFunc(func(c *config) { c.nutAddress = address })
}

// WithPollInterval overrides the bounded cadence the worker polls every
// pending tracking ID on (§4.8).
func WithPollInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.pollInterval = d })
}

func newConfig(opts ...Option) *config {
	c := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		nutAddress:         DefaultNUTAddress,
		pollInterval:       DefaultPollInterval,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
