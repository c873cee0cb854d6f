// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	DefaultServiceName        = "ipc"
	DefaultServiceDescription = "Embedded message bus for nut-bridge components"
	DefaultServiceVersion     = "1.0.0"
	DefaultServerName         = "nut-bridge"
	DefaultStoreDir           = "/var/lib/nut-bridge/ipc"
	DefaultMaxMemory          = 64 * 1024 * 1024
	DefaultMaxStorage         = 256 * 1024 * 1024
	DefaultStartupTimeout     = 5 * time.Second
	DefaultShutdownTimeout    = 5 * time.Second
)

type config struct {
	serviceName                 string
	serviceDescription           string
	serviceVersion              string
	serverName                  string
	storeDir                    string
	enableJetStream             bool
	dontListen                  bool
	maxMemory                   int64
	maxStorage                  int64
	startupTimeout              time.Duration
	shutdownTimeout             time.Duration
	maxConnections              int
	maxControlLine              int32
	maxPayload                  int32
	writeDeadline               time.Duration
	pingInterval                time.Duration
	maxPingsOut                 int
	enableSlowConsumerDetection bool
	slowConsumerThreshold       time.Duration
}

// Validate checks the config for internally inconsistent values.
func (c *config) Validate() error {
	if c.serviceName == "" {
		return fmt.Errorf("%w: service name is empty", ErrInvalidConfiguration)
	}
	if c.startupTimeout <= 0 {
		return fmt.Errorf("%w: startup timeout must be positive", ErrInvalidConfiguration)
	}
	if c.maxPayload <= 0 {
		return fmt.Errorf("%w: max payload must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// ToServerOptions translates the config into NATS server options.
func (c *config) ToServerOptions() *server.Options {
	return &server.Options{
		ServerName:          c.serverName,
		DontListen:          c.dontListen,
		JetStream:           c.enableJetStream,
		JetStreamMaxMemory:  c.maxMemory,
		JetStreamMaxStore:   c.maxStorage,
		StoreDir:            c.storeDir,
		MaxConn:             c.maxConnections,
		MaxControlLine:      c.maxControlLine,
		MaxPayload:          c.maxPayload,
		WriteDeadline:       c.writeDeadline,
		PingInterval:        c.pingInterval,
		MaxPingsOut:         c.maxPingsOut,
	}
}

type Option interface {
	apply(*config)
}

type serviceNameOption struct{ name string }

func (o *serviceNameOption) apply(c *config) { c.serviceName = o.name }

// WithServiceName sets the service name used for the oversight tree and logging.
func WithServiceName(name string) Option { return &serviceNameOption{name: name} }

type serverNameOption struct{ name string }

func (o *serverNameOption) apply(c *config) { c.serverName = o.name }

// WithServerName sets the embedded NATS server's identity name.
func WithServerName(name string) Option { return &serverNameOption{name: name} }

type storeDirOption struct{ dir string }

func (o *storeDirOption) apply(c *config) { c.storeDir = o.dir }

// WithStoreDir sets the JetStream storage directory.
func WithStoreDir(dir string) Option { return &storeDirOption{dir: dir} }

type jetStreamOption struct{ enable bool }

func (o *jetStreamOption) apply(c *config) { c.enableJetStream = o.enable }

// WithJetStream toggles JetStream persistence for the embedded server.
func WithJetStream(enable bool) Option { return &jetStreamOption{enable: enable} }

type maxMemoryOption struct{ n int64 }

func (o *maxMemoryOption) apply(c *config) { c.maxMemory = o.n }

// WithMaxMemory sets the JetStream in-memory storage ceiling.
func WithMaxMemory(n int64) Option { return &maxMemoryOption{n: n} }

type maxStorageOption struct{ n int64 }

func (o *maxStorageOption) apply(c *config) { c.maxStorage = o.n }

// WithMaxStorage sets the JetStream on-disk storage ceiling.
func WithMaxStorage(n int64) Option { return &maxStorageOption{n: n} }

type startupTimeoutOption struct{ d time.Duration }

func (o *startupTimeoutOption) apply(c *config) { c.startupTimeout = o.d }

// WithStartupTimeout bounds how long Run waits for the server to become ready.
func WithStartupTimeout(d time.Duration) Option { return &startupTimeoutOption{d: d} }

type shutdownTimeoutOption struct{ d time.Duration }

func (o *shutdownTimeoutOption) apply(c *config) { c.shutdownTimeout = o.d }

// WithShutdownTimeout bounds how long Run waits for the server's Shutdown to
// return before giving up on it.
func WithShutdownTimeout(d time.Duration) Option { return &shutdownTimeoutOption{d: d} }

type maxConnectionsOption struct{ n int }

func (o *maxConnectionsOption) apply(c *config) { c.maxConnections = o.n }

// WithMaxConnections caps concurrent client connections; 0 means unlimited.
func WithMaxConnections(n int) Option { return &maxConnectionsOption{n: n} }
