// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import "testing"

func TestBuildEventSeverityMapping(t *testing.T) {
	d := NewDevice("ups-1", "UPS 1", "ups-1", 0)
	cases := []struct {
		status   string
		state    string
		severity string
		unknown  bool
	}{
		{"good", "RESOLVED", "ok", false},
		{"warning-low", "ACTIVE", "WARNING", false},
		{"critical-low", "ACTIVE", "CRITICAL", false},
		{"warning-high", "ACTIVE", "WARNING", false},
		{"critical-high", "ACTIVE", "CRITICAL", false},
		{"bogus", "ACTIVE", "WARNING", true},
	}
	for _, c := range cases {
		a := &DeviceAlert{Quantity: "ambient.temperature", Status: c.status}
		event, unknown := BuildEvent(d, a)
		if event.State != c.state || event.Severity != c.severity || unknown != c.unknown {
			t.Errorf("status %q: got (%q, %q, %v), want (%q, %q, %v)",
				c.status, event.State, event.Severity, unknown, c.state, c.severity, c.unknown)
		}
	}
}

func TestBuildEventRuleName(t *testing.T) {
	d := NewDevice("epdu-1", "EPDU 1", "epdu-1", 0)
	a := &DeviceAlert{Quantity: "input.L1.current", Status: "good"}
	event, _ := BuildEvent(d, a)
	if event.Rule != "input.L1.current@epdu-1" {
		t.Fatalf("got %q", event.Rule)
	}
}
