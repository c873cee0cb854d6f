// SPDX-License-Identifier: BSD-3-Clause

// Package confresolver implements the configuration resolver (C4): it
// turns an asset's verbatim block, structured endpoint attributes, or an
// active network scan into a ranked set of NUT configuration candidates,
// reconciles them against what is already known, and matches new
// candidates to a configuration-type template before a candidate is
// handed to the driver lifecycle manager for persistence.
package confresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
	"github.com/u-bmc/nut-bridge/pkg/ipc"
	"github.com/u-bmc/nut-bridge/pkg/log"
	"github.com/u-bmc/nut-bridge/service"
)

// Compile-time assertion that ConfResolver implements service.Service.
var _ service.Service = (*ConfResolver)(nil)

// SubjectResolve is the request-reply endpoint other components (the
// bridge, the configcheck CLI verb) use to resolve one asset's
// configuration candidate on demand.
const SubjectResolve = "confresolver.resolve"

// ConfResolver is the C4 Configuration Resolver service.
type ConfResolver struct {
	config *config

	nc     *nats.Conn
	micro  micro.Service
	logger *slog.Logger
	tracer trace.Tracer

	creds   CredentialFetcher
	scanner Scanner
}

// New constructs a ConfResolver with the given options and collaborators.
// creds resolves credential-store document IDs (pkg/credstore.Client
// satisfies CredentialFetcher); scanner drives the external nut-scanner
// binaries for the active-scan fallback path.
func New(creds CredentialFetcher, scanner Scanner, opts ...Option) *ConfResolver {
	cfg := newConfig(opts...)
	if scanner == nil {
		scanner = NewExecScanner(cfg.scannerBinary, cfg.scanTimeout)
	}
	return &ConfResolver{
		config:  cfg,
		creds:   creds,
		scanner: scanner,
	}
}

// Name implements service.Service.
func (r *ConfResolver) Name() string {
	return r.config.serviceName
}

// ResolveRequest is the JSON payload for SubjectResolve.
type ResolveRequest struct {
	CorrelationID string              `json:"correlation_id"`
	Asset         *catalog.AssetEvent `json:"asset"`
	Known         []*Candidate        `json:"known,omitempty"`
}

// ResolveReply is the JSON reply for SubjectResolve.
type ResolveReply struct {
	CorrelationID string     `json:"correlation_id"`
	Candidate     *Candidate `json:"candidate,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Run implements service.Service. It connects to the in-process NATS bus,
// registers the resolve endpoint, and blocks until ctx is canceled.
func (r *ConfResolver) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	r.tracer = otel.Tracer(r.config.serviceName)
	ctx, span := r.tracer.Start(ctx, "Run")
	defer span.End()

	r.logger = log.GetGlobalLogger().With("service", r.config.serviceName)
	r.logger.InfoContext(ctx, "Starting configuration resolver service",
		"version", r.config.serviceVersion,
		"scanner_pool_size", r.config.scannerPoolSize)

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}
	r.nc = nc
	defer nc.Drain() //nolint:errcheck

	r.micro, err = micro.AddService(nc, micro.Config{
		Name:        r.config.serviceName,
		Description: r.config.serviceDescription,
		Version:     r.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create micro service: %w", err)
	}

	groups := make(map[string]micro.Group)
	if err := ipc.RegisterEndpointWithGroupCache(r.micro, SubjectResolve,
		micro.HandlerFunc(r.handleResolve(ctx)), groups); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to register resolve endpoint: %w", err)
	}

	span.SetAttributes(attribute.String("service.name", r.config.serviceName))

	<-ctx.Done()

	err = ctx.Err()
	r.logger.InfoContext(context.WithoutCancel(ctx), "Shutting down configuration resolver service")
	return err
}

func (r *ConfResolver) handleResolve(ctx context.Context) micro.HandlerFunc {
	return func(req micro.Request) {
		var in ResolveRequest
		if unmarshalErr := json.Unmarshal(req.Data(), &in); unmarshalErr != nil {
			r.respondError(req, "", fmt.Errorf("%w: %w", ErrMalformedRequest, unmarshalErr))
			return
		}

		asset, err := catalog.FromEvent(in.Asset)
		if err != nil {
			r.respondError(req, in.CorrelationID, err)
			return
		}

		candidate, err := r.Resolve(ctx, asset, in.Known)
		if err != nil {
			r.respondError(req, in.CorrelationID, err)
			return
		}

		reply := ResolveReply{CorrelationID: in.CorrelationID, Candidate: candidate}
		data, _ := json.Marshal(reply)
		_ = req.Respond(data)
	}
}

func (r *ConfResolver) respondError(req micro.Request, correlationID string, err error) {
	reply := ResolveReply{CorrelationID: correlationID, Error: err.Error()}
	data, _ := json.Marshal(reply)
	_ = req.Respond(data)
}

// Resolve runs the full C4 pipeline for one asset (§4.3): it acquires
// candidates from the verbatim block or the structured endpoint, or, when
// neither static path yields one, from an active scan; reconciles them
// against known candidates with ComputeUpdate, returning the first working
// known candidate if there is one; otherwise ranks the result, matches it
// to a configuration-type template, and completes it for persistence.
func (r *ConfResolver) Resolve(ctx context.Context, asset *catalog.Asset, known []*Candidate) (*Candidate, error) {
	detected, err := r.acquire(ctx, asset)
	if err != nil {
		return nil, err
	}

	update := ComputeUpdate(known, detected)
	if len(update.Working) > 0 {
		return update.Working[0], nil
	}

	all := append(append([]*Candidate{}, update.New...), update.UnknownState...)
	if len(all) == 0 {
		return nil, ErrNoCandidate
	}

	cat := ClassifyAsset(asset)
	if r.config.automaticPrioritySort {
		Rank(all, cat)
	}
	best := all[0]

	if len(r.config.configTypes) > 0 {
		matched, matchErr := MatchTemplate(best, asset, r.config.configTypes)
		if matchErr == nil {
			best = matched
		} else {
			r.logger.WarnContext(ctx, "no configuration-type template matched candidate",
				"asset", asset.Name, "driver", best.Driver(), "error", matchErr)
		}
	}

	Complete(best, asset, cat, int(r.config.pollingInterval.Seconds()))
	return best, nil
}

// acquire runs acquisition paths 1-3 in order, returning as soon as the
// first static path yields a candidate; the active scan only runs when
// neither the verbatim block nor the structured endpoint produced one.
func (r *ConfResolver) acquire(ctx context.Context, asset *catalog.Asset) ([]*Candidate, error) {
	if c, err := FromVerbatim(asset); err == nil {
		return []*Candidate{c}, nil
	}

	if c, err := FromStructuredEndpoint(ctx, asset, r.creds); err == nil {
		return []*Candidate{c}, nil
	}

	return r.scan(ctx, asset)
}

func (r *ConfResolver) scan(ctx context.Context, asset *catalog.Asset) ([]*Candidate, error) {
	docs, err := r.securityDocuments(ctx, asset)
	if err != nil {
		return nil, err
	}
	return ActiveScan(ctx, asset.IP, docs, r.scanner)
}

// securityDocuments collects every credential-store document referenced
// by the asset's endpoints, for the active-scan fallback to try.
func (r *ConfResolver) securityDocuments(ctx context.Context, asset *catalog.Asset) ([]*credstore.Document, error) {
	var docs []*credstore.Document
	for _, ep := range asset.Endpoints {
		if ep.SecurityDocumentID == "" {
			continue
		}
		doc, err := r.creds.Get(ctx, ep.SecurityDocumentID)
		if err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
