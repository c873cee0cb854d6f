// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import "testing"

func TestDefaultMappingCanonical(t *testing.T) {
	m := DefaultMapping()
	got, ok := m.Canonical("ups.load")
	if !ok || got != "load.default" {
		t.Fatalf("got (%q, %v), want (load.default, true)", got, ok)
	}
	if _, ok := m.Canonical("no.such.variable"); ok {
		t.Fatalf("expected no mapping for unknown variable")
	}
}

func TestInventoryNamePassesThroughUnmapped(t *testing.T) {
	m := DefaultMapping()
	if got := m.InventoryName("ups.mfr"); got != "manufacturer" {
		t.Fatalf("got %q, want manufacturer", got)
	}
	if got := m.InventoryName("some.unmapped.key"); got != "some.unmapped.key" {
		t.Fatalf("got %q, want passthrough", got)
	}
}
