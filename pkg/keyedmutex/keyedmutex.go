// SPDX-License-Identifier: BSD-3-Clause

// Package keyedmutex provides per-key mutual exclusion without a global
// lock: distinct keys make independent progress, while operations on the
// same key are serialized. No other package in this module imports it:
// neither the configuration resolver nor the driver lifecycle manager
// uses it.
package keyedmutex

import "sync"

// Map is an interior-locked map of named mutexes. The zero value is ready
// to use.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	refCount int
}

func (m *Map) get(name string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks == nil {
		m.locks = make(map[string]*entry)
	}
	e, ok := m.locks[name]
	if !ok {
		e = &entry{}
		m.locks[name] = e
	}
	e.refCount++
	return e
}

func (m *Map) release(name string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e.refCount--
	if e.refCount == 0 {
		delete(m.locks, name)
	}
}

// Lock blocks until the named mutex is acquired.
func (m *Map) Lock(name string) {
	e := m.get(name)
	e.mu.Lock()
}

// Unlock releases the named mutex acquired by Lock or a successful TryLock.
func (m *Map) Unlock(name string) {
	m.mu.Lock()
	e, ok := m.locks[name]
	m.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Unlock()
	m.release(name, e)
}

// TryLock attempts to acquire the named mutex without blocking. On success
// the caller must eventually call Unlock.
func (m *Map) TryLock(name string) bool {
	e := m.get(name)
	if e.mu.TryLock() {
		return true
	}
	m.release(name, e)
	return false
}

// Remove erases bookkeeping for name once it can be locked uncontended,
// trying up to attempts times so a long-running holder of the same key
// cannot deadlock the caller. It reports whether the key was removed.
func (m *Map) Remove(name string, attempts int) bool {
	for range attempts {
		if m.TryLock(name) {
			m.Unlock(name)
			return true
		}
	}
	return false
}
