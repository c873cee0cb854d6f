// SPDX-License-Identifier: BSD-3-Clause

package keyedmutex

import (
	"sync"
	"testing"
)

func TestLockUnlockSerializesSameKey(t *testing.T) {
	var m Map
	var counter int
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("asset-1")
			defer m.Unlock("asset-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50 (lost updates indicate missing serialization)", counter)
	}
}

func TestDistinctKeysDoNotBlockEachOther(t *testing.T) {
	var m Map

	m.Lock("asset-a")
	defer m.Unlock("asset-a")

	if !m.TryLock("asset-b") {
		t.Fatalf("locking a distinct key must not be blocked by an unrelated held key")
	}
	m.Unlock("asset-b")
}

func TestTryLockFailsWhileHeld(t *testing.T) {
	var m Map

	m.Lock("asset-1")
	if m.TryLock("asset-1") {
		t.Fatalf("TryLock must fail while the same key is held")
	}
	m.Unlock("asset-1")

	if !m.TryLock("asset-1") {
		t.Fatalf("TryLock must succeed once the key is released")
	}
	m.Unlock("asset-1")
}

func TestRemoveBoundedRetries(t *testing.T) {
	var m Map

	m.Lock("asset-1")
	if m.Remove("asset-1", 3) {
		t.Fatalf("Remove must give up while the key is held")
	}
	m.Unlock("asset-1")

	if !m.Remove("asset-1", 3) {
		t.Fatalf("Remove must succeed once the key is uncontended")
	}
}
