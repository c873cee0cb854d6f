// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import "time"

const (
	DefaultServiceName        = "alertscan"
	DefaultServiceDescription = "NUT threshold alert scanner"
	DefaultServiceVersion     = "1.0.0"
	DefaultPollingInterval    = 30 * time.Second
	DefaultNUTAddress         = "localhost:3493"
	DefaultRuleSubject        = "alertscan.rfc-evaluator-rules"
	DefaultEventSubject       = "alertscan.events"
	DefaultRulePublishTimeout = 5 * time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	pollingInterval    time.Duration
	nutAddress         string
	ruleSubject        string
	eventSubject       string
	rulePublishTimeout time.Duration
}

// Option configures the alertscan service.
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

// WithPollingInterval sets the scan cadence (`nut/polling_interval`).
func WithPollingInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.pollingInterval = d })
}

// WithNUTAddress overrides the upsd address dialed per daisy-chain master.
func WithNUTAddress(addr string) Option {
	return optionFunc(func(c *config) { c.nutAddress = addr })
}

// WithRuleSubject overrides the request-reply subject rule descriptors are
// sent to (the rule engine mailbox).
func WithRuleSubject(subject string) Option {
	return optionFunc(func(c *config) { c.ruleSubject = subject })
}

// WithEventSubject overrides the subject alert events are published to.
func WithEventSubject(subject string) Option {
	return optionFunc(func(c *config) { c.eventSubject = subject })
}

// WithRulePublishTimeout bounds how long a rule publication request waits
// for the rule engine's reply before it is logged and retried next cycle.
func WithRulePublishTimeout(d time.Duration) Option {
	return optionFunc(func(c *config) { c.rulePublishTimeout = d })
}

func newConfig(opts ...Option) *config {
	c := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		pollingInterval:    DefaultPollingInterval,
		nutAddress:         DefaultNUTAddress,
		ruleSubject:        DefaultRuleSubject,
		eventSubject:       DefaultEventSubject,
		rulePublishTimeout: DefaultRulePublishTimeout,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
