// SPDX-License-Identifier: BSD-3-Clause

package catalog

import "testing"

func TestReaderRefreshStability(t *testing.T) {
	mgr := NewManager()
	reader := mgr.Reader()

	if moved := reader.Refresh(); !moved {
		t.Fatalf("first Refresh must return true")
	}
	before := reader.State()

	w := mgr.Writer()
	w.UpsertPowerDevice(&Asset{Name: "ups-1", Subtype: SubtypeUPS})
	w.Commit()

	if reader.State() != before {
		t.Fatalf("reader view must stay stable until the next Refresh")
	}

	if moved := reader.Refresh(); !moved {
		t.Fatalf("Refresh after a commit must report movement")
	}
	if _, ok := reader.State().PowerDevice("ups-1"); !ok {
		t.Fatalf("expected ups-1 to be visible after refresh")
	}

	if moved := reader.Refresh(); moved {
		t.Fatalf("Refresh with no intervening commit must return false")
	}
}

func TestIPToMasterDaisyChain(t *testing.T) {
	mgr := NewManager()
	w := mgr.Writer()

	master := &Asset{Name: "epdu-1", Subtype: SubtypeEPDU, IP: "10.0.0.5", DaisyChain: 1}
	follower := &Asset{Name: "epdu-2", Subtype: SubtypeEPDU, IP: "10.0.0.5", DaisyChain: 2}
	orphan := &Asset{Name: "epdu-9", Subtype: SubtypeEPDU, IP: "10.0.0.9", DaisyChain: 3}

	w.UpsertPowerDevice(master)
	w.UpsertPowerDevice(follower)
	w.UpsertPowerDevice(orphan)
	w.Commit()

	r := mgr.Reader()
	r.Refresh()
	snap := r.State()

	if got := snap.IPToMaster("10.0.0.5"); got != "epdu-1" {
		t.Fatalf("IPToMaster(10.0.0.5) = %q, want epdu-1", got)
	}
	if got := snap.IPToMaster("10.0.0.9"); got != "" {
		t.Fatalf("orphan follower's IP must not resolve to a master, got %q", got)
	}
}

func TestMonitoringAllowedSet(t *testing.T) {
	mgr := NewManager()
	w := mgr.Writer()
	w.UpsertPowerDevice(&Asset{Name: "ups-1", Subtype: SubtypeUPS})
	w.UpsertPowerDevice(&Asset{Name: "ups-2", Subtype: SubtypeUPS})
	w.Commit()

	r := mgr.Reader()
	r.Refresh()
	if r.State().IsAllowed("ups-1") {
		t.Fatalf("monitoring disabled by default, nothing should be allowed")
	}

	w2 := mgr.Writer()
	w2.SetMonitoringEnabled(true)
	w2.Commit()

	r.Refresh()
	snap := r.State()
	if !snap.IsAllowed("ups-1") || !snap.IsAllowed("ups-2") {
		t.Fatalf("monitoring enabled: allowed set must equal the full power-device set")
	}
	if snap.PowerDeviceCount() != 2 {
		t.Fatalf("PowerDeviceCount = %d, want 2", snap.PowerDeviceCount())
	}
}

func TestSensorExcludedForRackController(t *testing.T) {
	mgr := NewManager()
	w := mgr.Writer()
	w.UpsertSensor(&Asset{Name: "sensor-1", Subtype: SubtypeSensor, ParentName: rackControllerParent})
	w.Commit()

	r := mgr.Reader()
	r.Refresh()
	if _, ok := r.State().Sensor("sensor-1"); ok {
		t.Fatalf("sensor with rackcontroller-0 parent must be excluded from the catalog")
	}
}

func TestFromEventParsesEndpointsAndVerbatim(t *testing.T) {
	ev := &AssetEvent{
		Name:      "ups-5",
		Operation: OperationCreate,
		Status:    "active",
		Aux: map[string]string{
			"subtype":       "ups",
			"parent_name.1": "rack-1",
		},
		Ext: map[string]string{
			"ip.1":                   "10.1.1.1",
			"serial_no":              "SN123",
			"daisy_chain":            "1",
			"max_current":            "16",
			"endpoint.1.protocol":    "nut_snmp",
			"endpoint.1.sub_address": "3",
			"upsconf_block":          ";[ups-5]\ndriver = dummy-ups",
		},
	}

	a, err := FromEvent(ev)
	if err != nil {
		t.Fatalf("FromEvent returned error: %v", err)
	}
	if a.IP != "10.1.1.1" || a.Serial != "SN123" || a.DaisyChain != 1 {
		t.Fatalf("unexpected asset fields: %+v", a)
	}
	if ep := a.Endpoints[1]; ep.Protocol != "nut_snmp" || ep.SubAddress != "3" {
		t.Fatalf("unexpected endpoint.1: %+v", ep)
	}
	if a.Verbatim == nil || a.Verbatim.Separator != ';' {
		t.Fatalf("expected verbatim block with ';' separator, got %+v", a.Verbatim)
	}
}

func TestFromEventRejectsEmptyName(t *testing.T) {
	if _, err := FromEvent(&AssetEvent{}); err == nil {
		t.Fatalf("expected an error for an event with no asset name")
	}
}
