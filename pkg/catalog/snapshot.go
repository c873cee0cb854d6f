// SPDX-License-Identifier: BSD-3-Clause

package catalog

import "sync/atomic"

// Manager owns the published snapshot. It hands out exactly one Writer and
// any number of Readers. The original source reclaims retired snapshots
// with a three-counter wrap-around scheme to keep reclamation lock-free
// without a tracing garbage collector; Go already has one, so a published
// *AssetCatalog is kept alive for exactly as long as any Reader still
// references it and is collected automatically once the last one lets go.
// atomic.Pointer is the idiomatic Go analog of the source's
// shared_ptr<Snapshot>, which the design notes call out as an accepted
// substitute for the counter scheme.
type Manager struct {
	current atomic.Pointer[AssetCatalog]
}

// NewManager creates a snapshot manager with an empty initial catalog
// already committed, so the first Reader.Refresh has something to see.
func NewManager() *Manager {
	m := &Manager{}
	m.current.Store(newCatalog())
	return m
}

// Writer returns the single writer for this manager. Callers must not run
// more than one Writer concurrently; the spec's concurrency model assumes
// exactly one writer thread.
func (m *Manager) Writer() *Writer {
	base := m.current.Load()
	return &Writer{
		mgr:     m,
		working: base.clone(),
	}
}

// Reader creates a new reader with no committed view yet; its first
// Refresh always returns true.
func (m *Manager) Reader() *Reader {
	return &Reader{mgr: m}
}

// Writer holds a mutable, not-yet-published working catalog. No Reader can
// observe it until Commit.
type Writer struct {
	mgr     *Manager
	working *AssetCatalog
}

// State returns the mutable working catalog.
func (w *Writer) State() *AssetCatalog {
	return w.working
}

// SetMonitoringEnabled applies the licensing gate metric
// (monitoring.global@rackcontroller-0) to the working catalog.
func (w *Writer) SetMonitoringEnabled(enabled bool) {
	w.working.monitoringEnabled = enabled
}

// UpsertPowerDevice inserts or replaces a power device in the working
// catalog.
func (w *Writer) UpsertPowerDevice(a *Asset) {
	w.working.upsertPowerDevice(a)
}

// UpsertSensor inserts or replaces a sensor in the working catalog, subject
// to the rackcontroller-0 exclusion.
func (w *Writer) UpsertSensor(a *Asset) {
	w.working.upsertSensor(a)
}

// RemoveAsset removes an asset (power device or sensor) from the working
// catalog, e.g. on a delete/retire asset event or a non-"active" status.
func (w *Writer) RemoveAsset(name string) {
	w.working.removeAsset(name)
}

// Commit recomputes derived indices, atomically publishes the working
// catalog as the new snapshot, and starts a fresh working copy (cloned from
// what was just published) for the next round of edits.
func (w *Writer) Commit() {
	w.working.recomputeIndices()
	w.mgr.current.Store(w.working)
	w.working = w.working.clone()
}

// Reader tracks one consumer's view of the snapshot queue.
type Reader struct {
	mgr     *Manager
	view    *AssetCatalog
	fetched bool
}

// Refresh advances the reader's view to the most recently committed
// snapshot. It returns true iff the view moved, which is always the case
// on the first call.
func (r *Reader) Refresh() bool {
	latest := r.mgr.current.Load()
	if !r.fetched {
		r.fetched = true
		r.view = latest
		return true
	}
	if latest == r.view {
		return false
	}
	r.view = latest
	return true
}

// State returns the reader's current view. It is valid only until the next
// Refresh call.
func (r *Reader) State() *AssetCatalog {
	return r.view
}
