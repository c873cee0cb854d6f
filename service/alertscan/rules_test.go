// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import "testing"

func TestBuildRuleRenderedFields(t *testing.T) {
	d := NewDevice("epdu-1", "EPDU 1", "epdu-1", 0)
	a := &DeviceAlert{Quantity: "input.L1.current", LowWarning: "1", LowCritical: "0.5", HighWarning: "15", HighCritical: "16"}

	r := BuildRule(d, a)
	th := r.Threshold

	if th.RuleName != "input.L1.current@epdu-1" {
		t.Fatalf("got %q", th.RuleName)
	}
	if th.ValuesUnit != "A" {
		t.Fatalf("got %q, want A", th.ValuesUnit)
	}
	if th.Values["low_warning"] != "1" || th.Values["high_critical"] != "16" {
		t.Fatalf("got %+v", th.Values)
	}
	if th.Results["low_critical"].Severity != "CRITICAL" || th.Results["high_warning"].Severity != "WARNING" {
		t.Fatalf("got %+v", th.Results)
	}
}

func TestValuesUnit(t *testing.T) {
	cases := map[string]string{
		"ups.realpower":    "W",
		"input.L1.voltage": "V",
		"input.L1.current": "A",
		"ambient.humidity": "",
	}
	for q, want := range cases {
		if got := valuesUnit(q); got != want {
			t.Errorf("valuesUnit(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestHumanizeQuantity(t *testing.T) {
	if got := humanizeQuantity("input.L3.voltage"); got != "Input L3 voltage" {
		t.Fatalf("got %q", got)
	}
}
