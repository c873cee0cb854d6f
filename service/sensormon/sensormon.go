// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/pkg/nutclient"
	"github.com/u-bmc/nut-bridge/service"
)

var _ service.Service = (*SensorMon)(nil)

// SensorMon is the C8 ambient sensor monitor service.
type SensorMon struct {
	config *config

	reader    *catalog.Reader
	mapping   SensorMapping
	publisher Publisher

	mu                sync.Mutex
	sensors           map[string]*Sensor
	clients           map[string]*nutclient.Client
	stale             bool
	lastInventory     map[string]string
	lastFullInventory time.Time

	nc     *nats.Conn
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs a SensorMon. reader observes the catalog snapshot
// published by C2.
func New(reader *catalog.Reader, opts ...Option) *SensorMon {
	return &SensorMon{
		config:        newConfig(opts...),
		reader:        reader,
		mapping:       DefaultSensorMapping(),
		sensors:       make(map[string]*Sensor),
		clients:       make(map[string]*nutclient.Client),
		stale:         true,
		lastInventory: make(map[string]string),
	}
}

// Name implements service.Service.
func (s *SensorMon) Name() string {
	return s.config.serviceName
}

// Run implements service.Service.
func (s *SensorMon) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.config.serviceName)
	ctx, span := s.tracer.Start(ctx, "Run")
	defer span.End()

	s.logger = log.GetGlobalLogger().With("service", s.config.serviceName)
	s.logger.InfoContext(ctx, "Starting sensor monitor service",
		"polling_interval", s.config.pollingInterval, "inventory_repeat", s.config.inventoryRepeat)

	if s.config.mappingPath != "" {
		m, err := LoadSensorMapping(s.config.mappingPath)
		if err != nil {
			span.RecordError(err)
			return err
		}
		s.mapping = m
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck
	s.publisher = newNATSPublisher(nc)

	span.SetAttributes(attribute.String("service.name", s.config.serviceName))

	ticker := time.NewTicker(s.config.pollingInterval)
	defer ticker.Stop()
	defer s.closeClients()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down sensor monitor service")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle rebuilds the sensor set when the catalog changed or a previous
// rebuild failed to fully resolve, then polls every sensor's host once
// and publishes measurements and inventory (§4.7).
func (s *SensorMon) cycle(ctx context.Context) {
	changed := s.reader.Refresh()
	if changed || s.stale {
		sensors, errored := resolveSensors(ctx, s.reader.State(), s.queryVar, func(err error) {
			s.logger.WarnContext(ctx, "failed to resolve sensor", "error", err)
		})
		s.sensors = sensors
		s.stale = errored
	}

	hostVars := make(map[string]map[string][]string)
	for _, sensor := range s.sensors {
		vars, ok := hostVars[sensor.NUTMaster]
		if !ok {
			fetched, err := s.fetchHost(ctx, sensor.NUTMaster)
			if err != nil {
				s.logger.WarnContext(ctx, "failed to read data from NUT", "host", sensor.NUTMaster, "error", err)
				hostVars[sensor.NUTMaster] = nil
				continue
			}
			vars = fetched
			hostVars[sensor.NUTMaster] = vars
		}
		if vars == nil {
			continue
		}
		sensor.Update(vars, s.mapping)
	}

	s.publishAll(ctx)
}

func (s *SensorMon) fetchHost(ctx context.Context, host string) (map[string][]string, error) {
	client, err := s.clientFor(ctx, s.config.nutAddress)
	if err != nil {
		return nil, err
	}
	vars, err := client.GetAllVariables(ctx, host)
	if err != nil {
		s.dropClient(s.config.nutAddress)
		return nil, err
	}
	return vars, nil
}

func (s *SensorMon) queryVar(ctx context.Context, host, name string) ([]string, error) {
	client, err := s.clientFor(ctx, s.config.nutAddress)
	if err != nil {
		return nil, err
	}
	vals, err := client.GetVariable(ctx, host, name)
	if err != nil {
		s.dropClient(s.config.nutAddress)
		return nil, err
	}
	return vals, nil
}

// publishAll emits temperature, humidity and contact metrics for every
// resolved sensor, republishing EMP001 dry-contact children under their
// own GPI topic, then advertises inventory (§4.7).
func (s *SensorMon) publishAll(ctx context.Context) {
	metricTTL := int((s.config.pollingInterval * 2).Seconds())

	for name, sensor := range s.sensors {
		if sensor.Temperature != "" {
			s.publish(ctx, Metric{
				Element:    sensor.Location,
				Quantity:   "temperature." + itoa(sensor.Index),
				Value:      sensor.Temperature,
				Unit:       "C",
				TTLSeconds: metricTTL,
				SensorName: name,
			})
		}
		if sensor.Humidity != "" {
			s.publish(ctx, Metric{
				Element:    sensor.Location,
				Quantity:   "humidity." + itoa(sensor.Index),
				Value:      sensor.Humidity,
				Unit:       "%",
				TTLSeconds: metricTTL,
				SensorName: name,
			})
		}
		for i, contact := range sensor.Contacts {
			gpiPort := itoa(i + 1)
			child, ok := sensor.Children[gpiPort]
			if !ok {
				continue
			}
			s.publish(ctx, Metric{
				Element:    sensor.Location,
				Quantity:   "status.GPI" + gpiPort + "." + itoa(sensor.Index),
				Value:      contact,
				TTLSeconds: metricTTL,
				SensorName: child,
			})
		}
	}

	s.advertiseInventory(ctx)
}

// advertiseInventory republishes a sensor's inventory snapshot whenever
// its content changes or once per inventoryRepeat interval, matching the
// source's content-hash deduplication (§4.7).
func (s *SensorMon) advertiseInventory(ctx context.Context) {
	full := time.Since(s.lastFullInventory) >= s.config.inventoryRepeat
	if full {
		s.lastFullInventory = time.Now()
	}

	for name, sensor := range s.sensors {
		if len(sensor.Inventory) == 0 {
			continue
		}
		digest := inventoryDigest(sensor.Inventory)
		if !full && s.lastInventory[name] == digest {
			continue
		}
		s.lastInventory[name] = digest

		if err := s.publisher.PublishInventory(Inventory{Asset: name, Fields: sensor.Inventory}); err != nil {
			s.logger.WarnContext(ctx, "failed to publish sensor inventory", "asset", name, "error", err)
		}
	}
}

// inventoryDigest renders an inventory map into the same deterministic,
// order-independent string the source hashes to detect a change.
func inventoryDigest(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('(')
		b.WriteString(fields[k])
		b.WriteByte(')')
	}
	return b.String()
}

func (s *SensorMon) publish(ctx context.Context, m Metric) {
	if err := s.publisher.Publish(m); err != nil {
		s.logger.WarnContext(ctx, "failed to publish metric", "sensor", m.SensorName, "quantity", m.Quantity, "error", err)
	}
}

func (s *SensorMon) clientFor(ctx context.Context, address string) (*nutclient.Client, error) {
	s.mu.Lock()
	if c, ok := s.clients[address]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	c, err := nutclient.Dial(ctx, address)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.clients[address] = c
	s.mu.Unlock()
	return c, nil
}

func (s *SensorMon) dropClient(address string) {
	s.mu.Lock()
	c, ok := s.clients[address]
	delete(s.clients, address)
	s.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

func (s *SensorMon) closeClients() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*nutclient.Client)
	s.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
