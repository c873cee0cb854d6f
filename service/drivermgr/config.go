// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import "time"

const (
	DefaultServiceName        = "drivermgr"
	DefaultServiceDescription = "NUT driver lifecycle manager"
	DefaultServiceVersion     = "1.0.0"
	DefaultStoreDir           = "/var/lib/nut-bridge/conf.d"
	DefaultReconcileInterval  = 5 * time.Second
	DefaultUnitTemplate       = "nut-driver@%s.service"
	DefaultServerUnit         = "nut-server.service"
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	storeDir           string
	reconcileInterval  time.Duration
	unitTemplate       string
	serverUnit         string
	systemctlPath      string
}

// Option configures the drivermgr service.
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

// WithStoreDir sets the target directory for per-asset configuration files
// (`configuration/nutRepositoryDirectory`).
func WithStoreDir(dir string) Option {
	return optionFunc(func(c *config) { c.storeDir = dir })
}

// WithReconcileInterval sets the pending-set reconcile cadence (§4.4, ≈5s).
func WithReconcileInterval(d time.Duration) Option {
	return optionFunc(func(c *config) { c.reconcileInterval = d })
}

// WithUnitTemplate overrides the systemd template unit name used for a
// driver, formatted with the asset name (default "nut-driver@%s.service").
func WithUnitTemplate(tmpl string) Option {
	return optionFunc(func(c *config) { c.unitTemplate = tmpl })
}

// WithServerUnit overrides the NUT server unit reloaded whenever a
// reconcile pass touched either pending set.
func WithServerUnit(unit string) Option {
	return optionFunc(func(c *config) { c.serverUnit = unit })
}

// WithSystemctlPath overrides the systemctl binary used by the underlying
// pkg/unitmgr client.
func WithSystemctlPath(path string) Option {
	return optionFunc(func(c *config) { c.systemctlPath = path })
}

func newConfig(opts ...Option) *config {
	c := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		storeDir:           DefaultStoreDir,
		reconcileInterval:  DefaultReconcileInterval,
		unitTemplate:       DefaultUnitTemplate,
		serverUnit:         DefaultServerUnit,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}
