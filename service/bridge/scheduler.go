// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/state"
	"github.com/u-bmc/nut-bridge/service/confresolver"
	"github.com/u-bmc/nut-bridge/service/drivermgr"
)

// tracked is one power device's configuration-lifecycle bookkeeping: its
// state machine and the last time the scheduler acted on it.
type tracked struct {
	fsm         *state.FSM
	lastChecked time.Time
	hasVerbatim bool
}

// scheduler drives the per-asset configuration lifecycle (§4.9): it keeps
// one state.FSM per power device, and on every tick resolves and applies a
// configuration candidate for whichever assets are due, over the bus,
// exactly as an external caller of confresolver/drivermgr would.
type scheduler struct {
	nc         *nats.Conn
	mgr        *state.Manager
	busTimeout time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer

	mu      sync.Mutex
	tracked map[string]*tracked
}

func newScheduler(nc *nats.Conn, busTimeout time.Duration, logger *slog.Logger, tracer trace.Tracer) *scheduler {
	return &scheduler{
		nc:         nc,
		mgr:        state.NewManager(),
		busTimeout: busTimeout,
		logger:     logger,
		tracer:     tracer,
		tracked:    make(map[string]*tracked),
	}
}

// dueAt reports whether an asset currently in currentState, last acted on
// at lastChecked, should be acted on at now. Pulled out as pure logic so
// it can be tested without a live state machine or bus connection.
func dueAt(currentState string, hasVerbatim bool, lastChecked, now time.Time) bool {
	wait, ok := state.NextWakeup(currentState, hasVerbatim)
	if !ok {
		return false
	}
	return !now.Before(lastChecked.Add(wait))
}

// ensure registers a state machine for name if one doesn't already exist,
// returning the tracked entry either way.
func (s *scheduler) ensure(ctx context.Context, name string, hasVerbatim bool) (*tracked, error) {
	s.mu.Lock()
	t, ok := s.tracked[name]
	s.mu.Unlock()
	if ok {
		t.hasVerbatim = hasVerbatim
		return t, nil
	}

	fsm, err := state.NewAssetConfigStateMachine(name)
	if err != nil {
		return nil, fmt.Errorf("bridge: build state machine for %s: %w", name, err)
	}
	if err := fsm.Start(ctx); err != nil {
		return nil, fmt.Errorf("bridge: start state machine for %s: %w", name, err)
	}
	if err := s.mgr.AddStateMachine(fsm); err != nil {
		return nil, fmt.Errorf("bridge: register state machine for %s: %w", name, err)
	}

	t = &tracked{fsm: fsm, hasVerbatim: hasVerbatim}
	s.mu.Lock()
	s.tracked[name] = t
	s.mu.Unlock()
	return t, nil
}

// markForDeletion fires the delete trigger for name, if tracked, moving it
// into StateDeleting so the next tick tears its driver down.
func (s *scheduler) markForDeletion(ctx context.Context, name string) {
	s.mu.Lock()
	t, ok := s.tracked[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	if t.fsm.IsInState(state.StateDeleting) {
		return
	}
	if can, _ := t.fsm.CanFire(state.TriggerDelete); can {
		if err := t.fsm.Fire(ctx, state.TriggerDelete, nil); err != nil {
			s.logger.WarnContext(ctx, "failed to mark asset for deletion", "asset", name, "error", err)
		}
	}
}

// retire drops an asset's tracking entirely once its driver has been torn
// down. TriggerDeleted has no transition wired out of StateDeleting (see
// pkg/state's asset-config builder), so retirement removes the state
// machine from the manager directly rather than firing a trigger.
func (s *scheduler) retire(name string) {
	s.mu.Lock()
	delete(s.tracked, name)
	s.mu.Unlock()
	_ = s.mgr.RemoveStateMachine(name)
}

// reconcile syncs the tracked set against the current catalog snapshot:
// every power device gets a tracked entry, and any tracked asset no longer
// present is marked for deletion.
func (s *scheduler) reconcile(ctx context.Context, snapshot *catalog.AssetCatalog) {
	present := make(map[string]bool)
	snapshot.RangePowerDevices(func(a *catalog.Asset) bool {
		present[a.Name] = true
		if _, err := s.ensure(ctx, a.Name, a.Verbatim != nil); err != nil {
			s.logger.WarnContext(ctx, "failed to track asset", "asset", a.Name, "error", err)
		}
		return true
	})

	s.mu.Lock()
	stale := make([]string, 0)
	for name := range s.tracked {
		if !present[name] {
			stale = append(stale, name)
		}
	}
	s.mu.Unlock()

	for _, name := range stale {
		s.markForDeletion(ctx, name)
	}
}

// tick advances every tracked asset whose deadline has passed.
func (s *scheduler) tick(ctx context.Context, snapshot *catalog.AssetCatalog) {
	now := time.Now()

	s.mu.Lock()
	due := make([]string, 0, len(s.tracked))
	for name, t := range s.tracked {
		if dueAt(t.fsm.CurrentState(), t.hasVerbatim, t.lastChecked, now) {
			due = append(due, name)
		}
	}
	s.mu.Unlock()

	for _, name := range due {
		s.advance(ctx, name, snapshot)
	}
}

// advance performs one scheduling step for name: discover+configure for a
// new or retrying asset, or forget+retire for one leaving the catalog.
func (s *scheduler) advance(ctx context.Context, name string, snapshot *catalog.AssetCatalog) {
	s.mu.Lock()
	t, ok := s.tracked[name]
	s.mu.Unlock()
	if !ok {
		return
	}
	t.lastChecked = time.Now()

	switch t.fsm.CurrentState() {
	case state.StateDeleting:
		if err := s.forget(ctx, name); err != nil {
			s.logger.WarnContext(ctx, "failed to forget asset driver", "asset", name, "error", err)
			return
		}
		s.retire(name)
	case state.StateNew, state.StateConfiguring:
		asset, ok := snapshot.PowerDevice(name)
		if !ok {
			return
		}
		if can, _ := t.fsm.CanFire(state.TriggerDiscover); can {
			_ = t.fsm.Fire(ctx, state.TriggerDiscover, nil)
		}
		if s.resolveAndApply(ctx, asset) {
			_ = t.fsm.Fire(ctx, state.TriggerConfigureOK, nil)
		} else {
			_ = t.fsm.Fire(ctx, state.TriggerConfigureFail, nil)
		}
	}
}

// resolveAndApply calls confresolver.SubjectResolve and, on a usable
// candidate, drivermgr.SubjectApply, exactly as any other caller of those
// endpoints would (§4.9, §5).
func (s *scheduler) resolveAndApply(ctx context.Context, asset *catalog.Asset) bool {
	candidate, err := s.resolve(ctx, asset)
	if err != nil {
		s.logger.WarnContext(ctx, "resolve failed", "asset", asset.Name, "error", err)
		return false
	}
	if err := s.apply(ctx, asset.Name, candidate); err != nil {
		s.logger.WarnContext(ctx, "apply failed", "asset", asset.Name, "error", err)
		return false
	}
	return true
}

func (s *scheduler) resolve(ctx context.Context, asset *catalog.Asset) (*confresolver.Candidate, error) {
	req := confresolver.ResolveRequest{
		CorrelationID: uuid.NewString(),
		Asset:         assetToEvent(asset),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encode resolve request: %w", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.busTimeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, confresolver.SubjectResolve, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply confresolver.ResolveReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%w: decode resolve reply: %w", ErrMalformed, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}
	if reply.Candidate == nil {
		return nil, fmt.Errorf("%w: resolve produced no candidate", ErrCommunication)
	}
	return reply.Candidate, nil
}

func (s *scheduler) apply(ctx context.Context, assetName string, candidate *confresolver.Candidate) error {
	req := drivermgr.ApplyRequest{
		CorrelationID: uuid.NewString(),
		AssetName:     assetName,
		Candidate:     candidate,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode apply request: %w", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.busTimeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, drivermgr.SubjectApply, payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply drivermgr.Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("%w: decode apply reply: %w", ErrMalformed, err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}
	return nil
}

func (s *scheduler) forget(ctx context.Context, assetName string) error {
	req := drivermgr.ForgetRequest{
		CorrelationID: uuid.NewString(),
		AssetName:     assetName,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode forget request: %w", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.busTimeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, drivermgr.SubjectForget, payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply drivermgr.Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("%w: decode forget reply: %w", ErrMalformed, err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}
	return nil
}

// rescan forces every power device whose endpoints reference the given
// credential document back through resolve+apply, used on a credential-store change
// notification (§4.9 "refresh the credential set ... trigger a rescan for
// affected assets"). It bypasses the state machine: a configured asset has
// no wired transition back into STATE_CONFIGURING, and re-applying an
// unchanged candidate is a no-op at drivermgr's end.
func (s *scheduler) rescan(ctx context.Context, snapshot *catalog.AssetCatalog, documentID string) {
	snapshot.RangePowerDevices(func(a *catalog.Asset) bool {
		if !assetUsesCredential(a, documentID) {
			return true
		}
		if s.resolveAndApply(ctx, a) {
			s.logger.InfoContext(ctx, "rescanned asset after credential change", "asset", a.Name, "document_id", documentID)
		}
		return true
	})
}

// assetUsesCredential reports whether any of the asset's endpoints
// reference the given credential-store document.
func assetUsesCredential(a *catalog.Asset, documentID string) bool {
	for _, ep := range a.Endpoints {
		if ep.SecurityDocumentID == documentID {
			return true
		}
	}
	return false
}

// assetToEvent rebuilds the AssetEvent shape confresolver expects from a
// catalog Asset, reusing its already-parsed Aux/Ext bags.
func assetToEvent(a *catalog.Asset) *catalog.AssetEvent {
	return &catalog.AssetEvent{
		Name:      a.Name,
		Operation: catalog.OperationUpdate,
		Status:    catalog.ActiveStatus,
		Aux:       a.Aux,
		Ext:       a.Ext,
	}
}
