// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/ipc"
	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/pkg/unitmgr"
	"github.com/u-bmc/nut-bridge/service"
	"github.com/u-bmc/nut-bridge/service/confresolver"
)

// sectionAsset builds the minimal asset value confresolver.Serialize needs
// to render a section header: only the name is used.
func sectionAsset(name string) *catalog.Asset {
	return &catalog.Asset{Name: name}
}

var _ service.Service = (*DriverMgr)(nil)

// SubjectApply is the request-reply endpoint used to persist and start a
// resolved candidate for an asset.
const SubjectApply = "drivermgr.apply"

// SubjectForget is the request-reply endpoint used to tear an asset's
// driver down.
const SubjectForget = "drivermgr.forget"

// DriverMgr is the C5 driver lifecycle manager service.
type DriverMgr struct {
	config *config

	unit  *unitmgr.Client
	store *store

	pendingStart *pendingSet
	pendingStop  *pendingSet

	nc     *nats.Conn
	micro  micro.Service
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs a DriverMgr. unit issues the systemctl verbs C5 delegates
// unit lifecycle to; pass nil to have one constructed from
// WithSystemctlPath (or the "systemctl" default).
func New(unit *unitmgr.Client, opts ...Option) *DriverMgr {
	cfg := newConfig(opts...)
	if unit == nil {
		unit = unitmgr.New(cfg.systemctlPath)
	}
	return &DriverMgr{
		config:       cfg,
		unit:         unit,
		store:        newStore(cfg.storeDir),
		pendingStart: newPendingSet(),
		pendingStop:  newPendingSet(),
	}
}

// Name implements service.Service.
func (d *DriverMgr) Name() string {
	return d.config.serviceName
}

// ApplyRequest is the JSON payload for SubjectApply.
type ApplyRequest struct {
	CorrelationID string                  `json:"correlation_id"`
	AssetName     string                  `json:"asset_name"`
	Candidate     *confresolver.Candidate `json:"candidate"`
}

// ForgetRequest is the JSON payload for SubjectForget.
type ForgetRequest struct {
	CorrelationID string `json:"correlation_id"`
	AssetName     string `json:"asset_name"`
}

// Reply is the shared JSON reply shape for both endpoints.
type Reply struct {
	CorrelationID string `json:"correlation_id"`
	Changed       bool   `json:"changed"`
	Error         string `json:"error,omitempty"`
}

// Run implements service.Service. It connects to the in-process bus,
// registers the apply/forget endpoints, starts the reconcile loop, and
// blocks until ctx is canceled.
func (d *DriverMgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	d.tracer = otel.Tracer(d.config.serviceName)
	ctx, span := d.tracer.Start(ctx, "Run")
	defer span.End()

	d.logger = log.GetGlobalLogger().With("service", d.config.serviceName)
	d.logger.InfoContext(ctx, "Starting driver lifecycle manager service",
		"store_dir", d.config.storeDir, "reconcile_interval", d.config.reconcileInterval)

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	d.nc = nc
	defer nc.Drain() //nolint:errcheck

	d.micro, err = micro.AddService(nc, micro.Config{
		Name:        d.config.serviceName,
		Description: d.config.serviceDescription,
		Version:     d.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create micro service: %w", err)
	}

	groups := make(map[string]micro.Group)
	if err := ipc.RegisterEndpointWithGroupCache(d.micro, SubjectApply,
		micro.HandlerFunc(d.handleApply(ctx)), groups); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to register apply endpoint: %w", err)
	}
	if err := ipc.RegisterEndpointWithGroupCache(d.micro, SubjectForget,
		micro.HandlerFunc(d.handleForget(ctx)), groups); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to register forget endpoint: %w", err)
	}

	span.SetAttributes(attribute.String("service.name", d.config.serviceName))

	ticker := time.NewTicker(d.config.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down driver lifecycle manager service")
			return ctx.Err()
		case <-ticker.C:
			d.reconcile(ctx)
		}
	}
}

func (d *DriverMgr) handleApply(ctx context.Context) micro.HandlerFunc {
	return func(req micro.Request) {
		var in ApplyRequest
		if err := json.Unmarshal(req.Data(), &in); err != nil {
			d.respondError(req, "", fmt.Errorf("%w: %w", ErrMalformedRequest, err))
			return
		}
		if in.Candidate == nil {
			d.respondError(req, in.CorrelationID, ErrNoCandidate)
			return
		}

		changed, err := d.apply(in.AssetName, in.Candidate)
		if err != nil {
			d.respondError(req, in.CorrelationID, err)
			return
		}

		reply := Reply{CorrelationID: in.CorrelationID, Changed: changed}
		data, _ := json.Marshal(reply)
		_ = req.Respond(data)
		_ = ctx
	}
}

func (d *DriverMgr) handleForget(ctx context.Context) micro.HandlerFunc {
	return func(req micro.Request) {
		var in ForgetRequest
		if err := json.Unmarshal(req.Data(), &in); err != nil {
			d.respondError(req, "", fmt.Errorf("%w: %w", ErrMalformedRequest, err))
			return
		}

		if err := d.forget(in.AssetName); err != nil {
			d.respondError(req, in.CorrelationID, err)
			return
		}

		reply := Reply{CorrelationID: in.CorrelationID, Changed: true}
		data, _ := json.Marshal(reply)
		_ = req.Respond(data)
		_ = ctx
	}
}

func (d *DriverMgr) respondError(req micro.Request, correlationID string, err error) {
	reply := Reply{CorrelationID: correlationID, Error: err.Error()}
	data, _ := json.Marshal(reply)
	_ = req.Respond(data)
}

// apply renders candidate as its NUT configuration section and writes it
// iff the text changed, queuing the asset's unit for (re)start (§4.4).
func (d *DriverMgr) apply(assetName string, candidate *confresolver.Candidate) (bool, error) {
	text := confresolver.Serialize(sectionAsset(assetName), candidate)
	changed, err := d.store.writeIfChanged(assetName, []byte(text))
	if err != nil {
		return false, err
	}
	d.pendingStart.add(assetName)
	return changed, nil
}

// forget removes an asset's configuration file and queues its unit for
// stop (§4.4).
func (d *DriverMgr) forget(assetName string) error {
	if err := d.store.remove(assetName); err != nil {
		return err
	}
	d.pendingStop.add(assetName)
	return nil
}

// reconcile drains both pending sets and asks the service manager to
// disable+stop everything pending-stop, then restart+enable everything
// pending-start, reloading the NUT server unit once if either set was
// non-empty. A failure on one unit is logged and does not abort the rest
// of the batch (§4.4).
func (d *DriverMgr) reconcile(ctx context.Context) {
	stops := d.pendingStop.drain()
	starts := d.pendingStart.drain()
	if len(stops) == 0 && len(starts) == 0 {
		return
	}

	for _, name := range stops {
		unit := fmt.Sprintf(d.config.unitTemplate, name)
		if err := d.unit.Stop(ctx, unit); err != nil {
			d.logger.WarnContext(ctx, "failed to stop driver unit", "unit", unit, "error", err)
		}
		if err := d.unit.Disable(ctx, unit); err != nil {
			d.logger.WarnContext(ctx, "failed to disable driver unit", "unit", unit, "error", err)
		}
	}

	for _, name := range starts {
		unit := fmt.Sprintf(d.config.unitTemplate, name)
		if err := d.unit.Enable(ctx, unit); err != nil {
			d.logger.WarnContext(ctx, "failed to enable driver unit", "unit", unit, "error", err)
		}
		if err := d.unit.ReloadOrRestart(ctx, unit); err != nil {
			d.logger.WarnContext(ctx, "failed to (re)start driver unit", "unit", unit, "error", err)
		}
	}

	d.logger.InfoContext(ctx, "reconciled driver units", "stopped", len(stops), "started", len(starts))
	if err := d.unit.ReloadOrRestart(ctx, d.config.serverUnit); err != nil {
		d.logger.WarnContext(ctx, "failed to reload NUT server unit", "unit", d.config.serverUnit, "error", err)
	}
}
