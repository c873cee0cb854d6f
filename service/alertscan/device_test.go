// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import (
	"testing"
	"time"
)

func TestFixLimitsCopiesAcrossWarningAndCritical(t *testing.T) {
	a := &DeviceAlert{LowCritical: "5", HighWarning: "80"}
	fixLimits(a)
	if a.LowWarning != "5" || a.HighCritical != "80" {
		t.Fatalf("got %+v", a)
	}
}

func TestScanCapabilitiesDiscoversAmbientInputAndOutletGroups(t *testing.T) {
	d := NewDevice("epdu-1", "EPDU 1", "epdu-1", 0)
	vars := map[string][]string{
		"ambient.temperature.status": {"good"},
		"ambient.temperature.low":    {"10"},
		"ambient.temperature.high":   {"30"},

		"input.L1.current.status": {"good"},
		"input.L1.current.low":    {"0"},
		"input.L1.current.high":   {"16"},

		"outlet.group.1.current.status": {"good"},
		"outlet.group.1.current.low":    {"0"},
		"outlet.group.1.current.high":   {"8"},
	}

	var rejected []error
	d.ScanCapabilities(vars, true, func(err error) { rejected = append(rejected, err) })

	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %v", rejected)
	}
	for _, q := range []string{"ambient.temperature", "input.L1.current", "outlet.group.1.current"} {
		a, ok := d.Alerts[q]
		if !ok {
			t.Fatalf("expected alert for %q", q)
		}
		if !a.RuleRescanned {
			t.Fatalf("expected %q marked rescanned", q)
		}
	}
	if _, ok := d.Alerts["input.L2.current"]; ok {
		t.Fatalf("did not expect an alert for an unexposed quantity")
	}
}

func TestScanCapabilitiesRejectsIncompleteThresholds(t *testing.T) {
	d := NewDevice("ups-1", "UPS 1", "ups-1", 0)
	vars := map[string][]string{
		"ambient.temperature.status": {"good"},
		"ambient.temperature.high":   {"30"},
	}
	// high present repairs high.warning/high.critical, but low is never
	// supplied at all so fixLimits has nothing to repair it from.
	var rejected []error
	d.ScanCapabilities(vars, true, func(err error) { rejected = append(rejected, err) })
	if len(rejected) != 1 {
		t.Fatalf("expected one rejection for incomplete low thresholds, got %v", rejected)
	}
	if _, ok := d.Alerts["ambient.temperature"]; ok {
		t.Fatalf("expected no alert recorded when low thresholds are entirely absent")
	}
}

func TestScanCapabilitiesUnavailableClearsAlerts(t *testing.T) {
	d := NewDevice("ups-1", "UPS 1", "ups-1", 0)
	d.Alerts["ambient.temperature"] = &DeviceAlert{Quantity: "ambient.temperature", RuleRescanned: true}

	d.ScanCapabilities(nil, false, nil)

	if len(d.Alerts) != 0 {
		t.Fatalf("expected all alerts cleared on a failed scan, got %+v", d.Alerts)
	}
}

func TestScanCapabilitiesDropsObsoleteEntries(t *testing.T) {
	d := NewDevice("epdu-1", "EPDU 1", "epdu-1", 0)
	vars := map[string][]string{
		"ambient.temperature.status": {"good"},
		"ambient.temperature.low":    {"10"},
		"ambient.temperature.high":   {"30"},
	}
	d.ScanCapabilities(vars, true, nil)
	if _, ok := d.Alerts["ambient.temperature"]; !ok {
		t.Fatalf("expected ambient.temperature to be tracked")
	}

	d.ScanCapabilities(map[string][]string{}, true, nil)
	if len(d.Alerts) != 0 {
		t.Fatalf("expected ambient.temperature dropped once no longer exposed, got %+v", d.Alerts)
	}
}

func TestScanCapabilitiesClearsRulePublishedOnThresholdChange(t *testing.T) {
	d := NewDevice("epdu-1", "EPDU 1", "epdu-1", 0)
	vars := map[string][]string{
		"ambient.temperature.status": {"good"},
		"ambient.temperature.low":    {"10"},
		"ambient.temperature.high":   {"30"},
	}
	d.ScanCapabilities(vars, true, nil)
	d.Alerts["ambient.temperature"].RulePublished = true

	vars["ambient.temperature.high"] = []string{"35"}
	d.ScanCapabilities(vars, true, nil)

	if d.Alerts["ambient.temperature"].RulePublished {
		t.Fatalf("expected rulePublished cleared after a threshold change")
	}
}

func TestUpdateRecordsStatusChangeTimestamp(t *testing.T) {
	d := NewDevice("ups-1", "UPS 1", "ups-1", 0)
	d.Alerts["ambient.temperature"] = &DeviceAlert{Quantity: "ambient.temperature"}

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Update(map[string][]string{"ambient.temperature.status": {"good"}}, t0)
	if d.Alerts["ambient.temperature"].Status != "good" || d.Alerts["ambient.temperature"].ChangedAt != t0 {
		t.Fatalf("got %+v", d.Alerts["ambient.temperature"])
	}

	t1 := t0.Add(time.Minute)
	d.Update(map[string][]string{"ambient.temperature.status": {"good"}}, t1)
	if d.Alerts["ambient.temperature"].ChangedAt != t0 {
		t.Fatalf("expected timestamp unchanged when status is unchanged")
	}

	t2 := t1.Add(time.Minute)
	d.Update(map[string][]string{"ambient.temperature.status": {"warning-high"}}, t2)
	if d.Alerts["ambient.temperature"].Status != "warning-high" || d.Alerts["ambient.temperature"].ChangedAt != t2 {
		t.Fatalf("expected status and timestamp updated on change, got %+v", d.Alerts["ambient.temperature"])
	}
}

func TestDaisychainPrefix(t *testing.T) {
	if got := (&Device{Chain: 0}).daisychainPrefix(); got != "" {
		t.Fatalf("got %q for chain 0", got)
	}
	if got := (&Device{Chain: 1}).daisychainPrefix(); got != "" {
		t.Fatalf("got %q for chain 1", got)
	}
	if got := (&Device{Chain: 2}).daisychainPrefix(); got != "device.2." {
		t.Fatalf("got %q for chain 2", got)
	}
}
