// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/u-bmc/nut-bridge/service"
)

// healthState tracks the bridge's own view of its supervised children for
// the health endpoint: the last error each named service returned from
// Run, if any, and when.
type healthState struct {
	startedAt time.Time

	mu       sync.Mutex
	lastErr  map[string]string
	lastSeen map[string]time.Time
}

func newHealthState() *healthState {
	return &healthState{
		startedAt: time.Now(),
		lastErr:   make(map[string]string),
		lastSeen:  make(map[string]time.Time),
	}
}

func (h *healthState) record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSeen[name] = time.Now()
	if err != nil {
		h.lastErr[name] = err.Error()
	} else {
		delete(h.lastErr, name)
	}
}

// healthReport is the JSON body returned by the health endpoint.
type healthReport struct {
	UptimeSeconds  float64           `json:"uptime_seconds"`
	TrackedAssets  int               `json:"tracked_assets"`
	LastErrors     map[string]string `json:"last_errors,omitempty"`
	LastSeen       map[string]string `json:"last_seen,omitempty"`
}

func (b *Bridge) handleHealth() micro.HandlerFunc {
	return func(req micro.Request) {
		b.health.mu.Lock()
		lastErr := make(map[string]string, len(b.health.lastErr))
		for k, v := range b.health.lastErr {
			lastErr[k] = v
		}
		lastSeen := make(map[string]string, len(b.health.lastSeen))
		for k, v := range b.health.lastSeen {
			lastSeen[k] = v.Format(time.RFC3339)
		}
		b.health.mu.Unlock()

		b.sched.mu.Lock()
		tracked := len(b.sched.tracked)
		b.sched.mu.Unlock()

		report := healthReport{
			UptimeSeconds: time.Since(b.health.startedAt).Seconds(),
			TrackedAssets: tracked,
			LastErrors:    lastErr,
			LastSeen:      lastSeen,
		}
		data, err := json.Marshal(report)
		if err != nil {
			return
		}
		_ = req.Respond(data)
	}
}

// trackedService wraps a service.Service so the bridge can record its exit
// error for the health endpoint without changing pkg/process's
// panic-recovery wrapping, which only cares about the error it returns.
type trackedService struct {
	inner  service.Service
	health *healthState
}

var _ service.Service = (*trackedService)(nil)

func (t *trackedService) Name() string { return t.inner.Name() }

func (t *trackedService) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	err := t.inner.Run(ctx, ipcConn)
	t.health.record(t.inner.Name(), err)
	return err
}
