// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/id"
	"github.com/u-bmc/nut-bridge/pkg/ipc"
	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/pkg/nutclient"
	"github.com/u-bmc/nut-bridge/service"
)

var _ service.Service = (*CmdTracker)(nil)

// SubjectSubmit is the request-reply endpoint used to submit a logical
// command job. The reply is deferred until every target has resolved.
const SubjectSubmit = "cmdtracker.submit"

// commandClient is the subset of pkg/nutclient.Client this service
// drives; narrowed to an interface so tests can substitute a fake
// session instead of dialing a real NUT daemon.
type commandClient interface {
	SendInstantCommand(ctx context.Context, device, cmd, arg string) (string, error)
	PollTracking(ctx context.Context, id string) (nutclient.TrackingStatus, error)
	Close() error
}

var _ commandClient = (*nutclient.Client)(nil)

// CommandEntry is one target in a submit request: an asset, the NUT
// instant command to issue against it, and an optional argument.
type CommandEntry struct {
	Asset    string `json:"asset"`
	Command  string `json:"command"`
	Argument string `json:"argument,omitempty"`
}

// SubmitRequest is the JSON payload for SubjectSubmit. CorrelationID is
// generated when empty.
type SubmitRequest struct {
	CorrelationID string         `json:"correlation_id"`
	Commands      []CommandEntry `json:"commands"`
}

// Reply is the JSON reply delivered once a submitted job's pending set
// empties, or immediately on a request that could not be accepted.
type Reply struct {
	CorrelationID string `json:"correlation_id"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// CmdTracker is the C9 command tracker service. It holds a single NUT
// session for the worker thread that polls tracking IDs; unlike the
// pollers (C6-C8) it does not pool per-asset connections, since every
// instant command and tracking poll targets the same local NUT daemon.
type CmdTracker struct {
	config *config

	mu       sync.Mutex
	jobs     map[string]*Job          // correlation ID -> job
	tracking map[string]string        // tracking ID -> correlation ID
	replies  map[string]micro.Request // correlation ID -> deferred reply

	client commandClient

	nc     *nats.Conn
	micro  micro.Service
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs a CmdTracker.
func New(opts ...Option) *CmdTracker {
	return &CmdTracker{
		config:   newConfig(opts...),
		jobs:     make(map[string]*Job),
		tracking: make(map[string]string),
		replies:  make(map[string]micro.Request),
	}
}

// Name implements service.Service.
func (t *CmdTracker) Name() string {
	return t.config.serviceName
}

// Run implements service.Service. It opens the worker's NUT session,
// registers the submit endpoint, and polls pending tracking IDs on a
// fixed cadence until ctx is canceled. A dropped NUT session is fatal:
// Run returns an error so the supervisor restarts the service, and the
// in-memory job/tracking maps are discarded rather than persisted
// (§4.8, §5).
func (t *CmdTracker) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	t.tracer = otel.Tracer(t.config.serviceName)
	ctx, span := t.tracer.Start(ctx, "Run")
	defer span.End()

	t.logger = log.GetGlobalLogger().With("service", t.config.serviceName)
	t.logger.InfoContext(ctx, "Starting command tracker service",
		"nut_address", t.config.nutAddress, "poll_interval", t.config.pollInterval)

	client, err := nutclient.Dial(ctx, t.config.nutAddress)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	t.client = client
	defer client.Close() //nolint:errcheck

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	t.nc = nc
	defer nc.Drain() //nolint:errcheck

	t.micro, err = micro.AddService(nc, micro.Config{
		Name:        t.config.serviceName,
		Description: t.config.serviceDescription,
		Version:     t.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create micro service: %w", err)
	}

	groups := make(map[string]micro.Group)
	if err := ipc.RegisterEndpointWithGroupCache(t.micro, SubjectSubmit,
		micro.HandlerFunc(t.handleSubmit(ctx)), groups); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to register submit endpoint: %w", err)
	}

	span.SetAttributes(attribute.String("service.name", t.config.serviceName))

	ticker := time.NewTicker(t.config.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down command tracker service")
			return ctx.Err()
		case <-ticker.C:
			if err := t.pollPending(ctx); err != nil {
				t.logger.ErrorContext(ctx, "lost NUT session, aborting", "error", err)
				span.RecordError(err)
				return fmt.Errorf("%w: %w", ErrCommunication, err)
			}
		}
	}
}

func (t *CmdTracker) handleSubmit(ctx context.Context) micro.HandlerFunc {
	return func(req micro.Request) {
		var in SubmitRequest
		if err := json.Unmarshal(req.Data(), &in); err != nil {
			t.respondNow(req, "", fmt.Errorf("%w: %w", ErrMalformedRequest, err))
			return
		}
		if len(in.Commands) == 0 {
			t.respondNow(req, in.CorrelationID, ErrNoCommands)
			return
		}

		correlationID := in.CorrelationID
		if correlationID == "" {
			correlationID = id.NewID()
		}

		job := NewJob(correlationID, len(in.Commands))
		t.mu.Lock()
		t.jobs[correlationID] = job
		t.replies[correlationID] = req
		t.mu.Unlock()

		for _, entry := range in.Commands {
			t.submitEntry(ctx, correlationID, entry)
		}
	}
}

// submitEntry issues one instant command and either resolves it
// immediately (send failure, or NUT granted no tracking ID) or
// registers its tracking ID for the poll worker (§4.8).
func (t *CmdTracker) submitEntry(ctx context.Context, correlationID string, entry CommandEntry) {
	trackingID, err := t.client.SendInstantCommand(ctx, entry.Asset, entry.Command, entry.Argument)
	if err != nil {
		t.logger.WarnContext(ctx, "instant command failed", "asset", entry.Asset, "command", entry.Command, "error", err)
		t.completeEntry(ctx, correlationID, "", false)
		return
	}
	if trackingID == "" {
		t.completeEntry(ctx, correlationID, "", true)
		return
	}

	t.mu.Lock()
	if job, ok := t.jobs[correlationID]; ok {
		job.Track(trackingID)
		t.tracking[trackingID] = correlationID
	}
	t.mu.Unlock()
}

// pollPending polls every outstanding tracking ID once. A communication
// error aborts the whole pass; the caller treats that as fatal (§4.8).
func (t *CmdTracker) pollPending(ctx context.Context) error {
	type pending struct{ trackingID, correlationID string }

	t.mu.Lock()
	list := make([]pending, 0, len(t.tracking))
	for trackingID, correlationID := range t.tracking {
		list = append(list, pending{trackingID, correlationID})
	}
	t.mu.Unlock()

	for _, p := range list {
		status, err := t.client.PollTracking(ctx, p.trackingID)
		if err != nil {
			return err
		}
		if status == nutclient.TrackingPending {
			continue
		}
		t.completeEntry(ctx, p.correlationID, p.trackingID, status == nutclient.TrackingSuccess)
	}
	return nil
}

// completeEntry accounts one target's outcome against its job and, once
// every target has resolved, removes the job and delivers the deferred
// reply (§4.8 steps 1-3).
func (t *CmdTracker) completeEntry(ctx context.Context, correlationID, trackingID string, result bool) {
	t.mu.Lock()
	job, ok := t.jobs[correlationID]
	if !ok {
		t.mu.Unlock()
		return
	}
	done := job.Resolve(trackingID, result)
	if trackingID != "" {
		delete(t.tracking, trackingID)
	}

	var reply micro.Request
	if done {
		delete(t.jobs, correlationID)
		reply = t.replies[correlationID]
		delete(t.replies, correlationID)
	}
	t.mu.Unlock()

	if !done {
		return
	}
	if reply == nil {
		t.logger.WarnContext(ctx, "job completed with no deferred reply", "correlation_id", correlationID)
		return
	}
	t.respond(reply, correlationID, job.Success(), nil)
}

func (t *CmdTracker) respondNow(req micro.Request, correlationID string, err error) {
	t.respond(req, correlationID, false, err)
}

func (t *CmdTracker) respond(req micro.Request, correlationID string, success bool, err error) {
	reply := Reply{CorrelationID: correlationID, Success: success}
	if err != nil {
		reply.Error = err.Error()
	}
	data, marshalErr := json.Marshal(reply)
	if marshalErr != nil {
		return
	}
	_ = req.Respond(data)
}
