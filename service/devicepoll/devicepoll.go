// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import (
	"context"
	"fmt"
	"log/slog"
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

var _ service.Service = (*DevicePoll)(nil)

// deviceState is the DevicePolledValues record for one device (§3): the
// last published value of every canonical quantity, so a poll cycle only
// emits a metric when the value actually changed.
type deviceState struct {
	physics           map[string]string
	inventory         map[string]string
	lastFullInventory time.Time
}

func newDeviceState() *deviceState {
	return &deviceState{
		physics:   make(map[string]string),
		inventory: make(map[string]string),
	}
}

// DevicePoll is the C6 polling engine service.
type DevicePoll struct {
	config *config

	reader    *catalog.Reader
	mapping   *Mapping
	publisher Publisher

	mu      sync.Mutex
	clients map[string]*nutclient.Client
	states  map[string]*deviceState

	nc     *nats.Conn
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs a DevicePoll. reader observes the catalog snapshot
// published by C2.
func New(reader *catalog.Reader, opts ...Option) *DevicePoll {
	return &DevicePoll{
		config:  newConfig(opts...),
		reader:  reader,
		mapping: DefaultMapping(),
		clients: make(map[string]*nutclient.Client),
		states:  make(map[string]*deviceState),
	}
}

// Name implements service.Service.
func (d *DevicePoll) Name() string {
	return d.config.serviceName
}

// Run implements service.Service. It loads the variable mapping, connects
// a Publisher to the in-process bus, and polls every allowed power device
// on a fixed cadence until ctx is canceled.
func (d *DevicePoll) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	d.tracer = otel.Tracer(d.config.serviceName)
	ctx, span := d.tracer.Start(ctx, "Run")
	defer span.End()

	d.logger = log.GetGlobalLogger().With("service", d.config.serviceName)
	d.logger.InfoContext(ctx, "Starting device polling engine service",
		"polling_interval", d.config.pollingInterval, "inventory_repeat", d.config.inventoryRepeat)

	if d.config.mappingPath != "" {
		m, err := LoadMapping(d.config.mappingPath)
		if err != nil {
			span.RecordError(err)
			return err
		}
		d.mapping = m
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	d.nc = nc
	defer nc.Drain() //nolint:errcheck
	d.publisher = newNATSPublisher(nc)

	span.SetAttributes(attribute.String("service.name", d.config.serviceName))

	ticker := time.NewTicker(d.config.pollingInterval)
	defer ticker.Stop()

	defer d.closeClients()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down device polling engine service")
			return ctx.Err()
		case <-ticker.C:
			d.pollAll(ctx)
		}
	}
}

// pollAll refreshes the catalog and polls every allowed power device
// (§4.5). A single device's failure is logged and does not abort the
// cycle for the rest.
func (d *DevicePoll) pollAll(ctx context.Context) {
	d.reader.Refresh()
	cat := d.reader.State()

	cat.RangeAllowed(func(a *catalog.Asset) bool {
		if err := d.pollAsset(ctx, a); err != nil {
			d.logger.WarnContext(ctx, "failed to poll device", "asset", a.Name, "error", err)
		}
		return true
	})
}

func (d *DevicePoll) pollAsset(ctx context.Context, a *catalog.Asset) error {
	address := nutAddressFor(a, d.config.nutAddress)
	client, err := d.clientFor(ctx, address)
	if err != nil {
		return err
	}

	raw, err := client.GetAllVariables(ctx, a.Name)
	if err != nil {
		d.dropClient(address)
		return err
	}

	d.processAsset(ctx, a, raw)
	return nil
}

// processAsset runs the mapping/derivation/publish pipeline (§4.5 steps
// 2-8) over one device's freshly fetched raw variables. Split out from
// pollAsset so it can be exercised without a live NUT session.
func (d *DevicePoll) processAsset(ctx context.Context, a *catalog.Asset, raw map[string][]string) {
	state := d.stateFor(a.Name)
	metricTTL := d.config.pollingInterval * 2
	statusTTL := metricTTL * 3 / 2
	powerStatusTTL := statusTTL * 3 / 2

	mapped := make(map[string]string, len(raw))
	for name, vals := range raw {
		canonical, ok := d.mapping.Canonical(name)
		if !ok {
			continue
		}
		mapped[canonical] = firstValue(vals)
	}

	// Step 4: derived load.default for ePDUs that don't publish one.
	if a.Subtype == catalog.SubtypeEPDU {
		if _, ok := mapped["load.default"]; !ok {
			if v, ok := LoadDefault(mapped, a.MaxCurrent); ok {
				mapped["load.default"] = v
			}
		}
	}

	// Step 3: publish every changed mapped quantity.
	for quantity, value := range mapped {
		if state.physics[quantity] == value {
			continue
		}
		state.physics[quantity] = value
		d.publish(ctx, Metric{
			Asset:      a.Name,
			Quantity:   quantity,
			Value:      value,
			Unit:       unitForQuantity(quantity),
			TTLSeconds: int(metricTTL.Seconds()),
		})
	}

	// Step 5: alarm bitfield.
	alarmBits, hasAlarm := DecodeAlarm(firstValue(raw["ups.alarm"]))
	if hasAlarm || state.physics["ups.alarm"] != "" {
		value := fmt.Sprintf("%d", alarmBits)
		if state.physics["ups.alarm"] != value {
			state.physics["ups.alarm"] = value
			d.publish(ctx, Metric{Asset: a.Name, Quantity: "ups.alarm", Value: value, TTLSeconds: int(metricTTL.Seconds())})
		}
	}

	// Step 6-7: status and power status bitfields.
	status := firstValue(raw["ups.status"])
	testResult := firstValue(raw["ups.test.result"])
	if ShouldPublishStatus(status, a.Subtype == catalog.SubtypeEPDU) {
		bits := DecodeStatus(status, testResult, hasAlarm)
		value := fmt.Sprintf("%d", bits)
		if state.physics["status.ups"] != value {
			state.physics["status.ups"] = value
			d.publish(ctx, Metric{Asset: a.Name, Quantity: "status.ups", Value: value, TTLSeconds: int(statusTTL.Seconds())})
		}

		power := PowerStatus(bits)
		if state.physics["power.status"] != power {
			state.physics["power.status"] = power
			d.publish(ctx, Metric{Asset: a.Name, Quantity: "power.status", Value: power, TTLSeconds: int(powerStatusTTL.Seconds())})
		}
	}

	// Step 8: outlet statuses.
	for i := 1; i <= 100; i++ {
		key := fmt.Sprintf("status.outlet.%d", i)
		vals, ok := raw[key]
		if !ok {
			break
		}
		value := fmt.Sprintf("%d", OutletStatus(firstValue(vals)))
		if state.physics[key] != value {
			state.physics[key] = value
			d.publish(ctx, Metric{Asset: a.Name, Quantity: key, Value: value, TTLSeconds: int(metricTTL.Seconds())})
		}
	}

	d.pollInventory(ctx, a, raw, state)
}

// pollInventory republishes every inventory entry every inventoryRepeat
// interval, and only changed entries otherwise. `status.ups` is excluded
// (§4.5).
func (d *DevicePoll) pollInventory(ctx context.Context, a *catalog.Asset, raw map[string][]string, state *deviceState) {
	full := time.Since(state.lastFullInventory) >= d.config.inventoryRepeat
	if full {
		state.lastFullInventory = time.Now()
	}

	for name := range d.mapping.Inventory {
		if name == "status.ups" {
			continue
		}
		vals, ok := raw[name]
		if !ok {
			continue
		}
		field := d.mapping.InventoryName(name)
		value := firstValue(vals)
		if !full && state.inventory[field] == value {
			continue
		}
		state.inventory[field] = value
		d.publish(ctx, Metric{Asset: a.Name, Quantity: field, Value: value, Inventory: true})
	}
}

func (d *DevicePoll) publish(ctx context.Context, m Metric) {
	if err := d.publisher.Publish(m); err != nil {
		d.logger.WarnContext(ctx, "failed to publish metric", "asset", m.Asset, "quantity", m.Quantity, "error", err)
	}
}

func (d *DevicePoll) stateFor(assetName string) *deviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[assetName]
	if !ok {
		s = newDeviceState()
		d.states[assetName] = s
	}
	return s
}

func (d *DevicePoll) clientFor(ctx context.Context, address string) (*nutclient.Client, error) {
	d.mu.Lock()
	if c, ok := d.clients[address]; ok {
		d.mu.Unlock()
		return c, nil
	}
	d.mu.Unlock()

	c, err := nutclient.Dial(ctx, address)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.clients[address] = c
	d.mu.Unlock()
	return c, nil
}

func (d *DevicePoll) dropClient(address string) {
	d.mu.Lock()
	c, ok := d.clients[address]
	delete(d.clients, address)
	d.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

func (d *DevicePoll) closeClients() {
	d.mu.Lock()
	clients := d.clients
	d.clients = make(map[string]*nutclient.Client)
	d.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}

// nutAddressFor resolves the upsd address to dial for an asset: its own
// IP (daisy-chain followers share their master's IP, so this already
// coalesces chained devices onto one connection), falling back to the
// service default when the asset carries none.
func nutAddressFor(a *catalog.Asset, fallback string) string {
	if a.IP == "" {
		return fallback
	}
	if a.HasPort {
		return fmt.Sprintf("%s:%d", a.IP, a.Port)
	}
	return fmt.Sprintf("%s:3493", a.IP)
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
