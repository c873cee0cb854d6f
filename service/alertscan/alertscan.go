// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import (
	"context"
	"encoding/json"
	"errors"
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

var _ service.Service = (*AlertScan)(nil)

// ruleReply is the rule engine's response to a rule publication request.
type ruleReply struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

// AlertScan is the C7 threshold alert scanner service.
type AlertScan struct {
	config *config

	reader *catalog.Reader

	mu      sync.Mutex
	devices map[string]*Device
	clients map[string]*nutclient.Client
	stale   bool

	nc     *nats.Conn
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs an AlertScan. reader observes the catalog snapshot
// published by C2.
func New(reader *catalog.Reader, opts ...Option) *AlertScan {
	return &AlertScan{
		config:  newConfig(opts...),
		reader:  reader,
		devices: make(map[string]*Device),
		clients: make(map[string]*nutclient.Client),
		stale:   true,
	}
}

// Name implements service.Service.
func (s *AlertScan) Name() string {
	return s.config.serviceName
}

// Run implements service.Service.
func (s *AlertScan) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.config.serviceName)
	ctx, span := s.tracer.Start(ctx, "Run")
	defer span.End()

	s.logger = log.GetGlobalLogger().With("service", s.config.serviceName)
	s.logger.InfoContext(ctx, "Starting alert scanner service", "polling_interval", s.config.pollingInterval)

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	span.SetAttributes(attribute.String("service.name", s.config.serviceName))

	ticker := time.NewTicker(s.config.pollingInterval)
	defer ticker.Stop()
	defer s.closeClients()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down alert scanner service")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one full scan: reconcile the device list against the
// catalog, scan capabilities for any device whose list is stale, refresh
// statuses, then publish rules and events (§4.6).
func (s *AlertScan) cycle(ctx context.Context) {
	if s.updateDeviceList() {
		s.stale = true
	}

	now := time.Now()
	allOK := true

	for _, d := range s.devices {
		vars, err := s.fetchVars(ctx, d)
		available := err == nil
		if err != nil {
			allOK = false
			s.logger.WarnContext(ctx, "failed to read data from NUT", "asset", d.AssetName, "error", err)
		}

		if s.stale {
			d.ScanCapabilities(vars, available, func(rejErr error) {
				s.logger.ErrorContext(ctx, "thresholds not fully present", "error", rejErr)
			})
		}
		if available {
			d.Update(vars, now)
		}
	}

	if s.stale {
		s.stale = !allOK
	}

	s.publishRules(ctx)
	s.publishEvents(ctx)
}

// updateDeviceList rebuilds the tracked device set from the current
// catalog snapshot, mirroring the source's addIfNotPresent/removal pass.
// It returns whether the set changed at all.
func (s *AlertScan) updateDeviceList() bool {
	s.reader.Refresh()
	cat := s.reader.State()

	changed := false
	seen := make(map[string]struct{})

	cat.RangeAllowed(func(a *catalog.Asset) bool {
		seen[a.Name] = struct{}{}

		var nutName string
		switch {
		case a.DaisyChain <= 1:
			nutName = a.Name
		default:
			master := cat.IPToMaster(a.IP)
			if master == "" {
				s.logger.Error("daisychain master not found", "asset", a.Name)
				return true
			}
			nutName = master
		}

		existing, ok := s.devices[a.Name]
		if !ok || existing.NUTName != nutName || existing.Chain != a.DaisyChain {
			s.devices[a.Name] = NewDevice(a.Name, a.FriendlyName, nutName, a.DaisyChain)
			changed = true
		}
		return true
	})

	for name := range s.devices {
		if _, ok := seen[name]; !ok {
			delete(s.devices, name)
			changed = true
		}
	}

	return changed
}

func (s *AlertScan) fetchVars(ctx context.Context, d *Device) (map[string][]string, error) {
	address := s.config.nutAddress
	client, err := s.clientFor(ctx, address)
	if err != nil {
		return nil, err
	}
	vars, err := client.GetAllVariables(ctx, d.NUTName)
	if err != nil {
		s.dropClient(address)
		return nil, err
	}
	return vars, nil
}

func (s *AlertScan) clientFor(ctx context.Context, address string) (*nutclient.Client, error) {
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

func (s *AlertScan) dropClient(address string) {
	s.mu.Lock()
	c, ok := s.clients[address]
	delete(s.clients, address)
	s.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

func (s *AlertScan) closeClients() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[string]*nutclient.Client)
	s.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}

// publishRules announces the current threshold definition of every alert
// not yet acknowledged by the rule engine. A missing or non-OK reply is
// logged and retried next cycle (§4.6).
func (s *AlertScan) publishRules(ctx context.Context) {
	for _, d := range s.devices {
		for _, a := range d.Alerts {
			if a.RulePublished {
				continue
			}

			descriptor := BuildRule(d, a)
			data, err := json.Marshal(descriptor)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to encode threshold rule", "rule", descriptor.Threshold.RuleName, "error", err)
				continue
			}

			msg, err := s.nc.Request(s.config.ruleSubject, data, s.config.rulePublishTimeout)
			if err != nil {
				if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, nats.ErrTimeout) {
					s.logger.DebugContext(ctx, "rule engine did not respond, retrying next cycle", "rule", descriptor.Threshold.RuleName)
					continue
				}
				s.logger.WarnContext(ctx, "failed to publish threshold rule", "rule", descriptor.Threshold.RuleName, "error", err)
				continue
			}

			var reply ruleReply
			if err := json.Unmarshal(msg.Data, &reply); err != nil {
				s.logger.WarnContext(ctx, "malformed rule engine reply", "rule", descriptor.Threshold.RuleName, "error", err)
				continue
			}
			if reply.Result == "OK" || reply.Reason == "ALREADY_EXISTS" {
				a.RulePublished = true
			} else {
				s.logger.ErrorContext(ctx, "rule engine rejected threshold rule",
					"rule", descriptor.Threshold.RuleName, "result", reply.Result, "reason", reply.Reason)
			}
		}
	}
}

// publishEvents republishes every alert with a non-empty status every
// cycle (§4.6).
func (s *AlertScan) publishEvents(ctx context.Context) {
	for _, d := range s.devices {
		for _, a := range d.Alerts {
			if a.Status == "" {
				continue
			}
			event, unknown := BuildEvent(d, a)
			if unknown {
				s.logger.ErrorContext(ctx, "alert has unknown severity value, reporting as WARNING",
					"rule", event.Rule, "status", a.Status)
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to encode alert event", "rule", event.Rule, "error", err)
				continue
			}
			if err := s.nc.Publish(s.config.eventSubject, data); err != nil {
				s.logger.WarnContext(ctx, "failed to publish alert event", "rule", event.Rule, "error", err)
			}
		}
	}
}
