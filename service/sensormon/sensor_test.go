// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import "testing"

// Cases a-f are the exact fixtures from the source's sensor device self
// test: an EMP001 sensor on a standalone UPS, an EMP002 sensor on a
// standalone UPS, an EMP001 sensor on a daisy-chain master and on a
// follower, and an EMP002 sensor on a master and on a follower.

func TestSensorPrefixesStandaloneEMP01(t *testing.T) {
	s := NewSensor("a", "", "", "ups", "0", "", 0, "ups", 0, nil)
	if got := s.SensorPrefix(); got != "ambient." {
		t.Fatalf("SensorPrefix() = %q, want ambient.", got)
	}
	if got := s.TopicSuffix(); got != ".0@ups" {
		t.Fatalf("TopicSuffix() = %q, want .0@ups", got)
	}
	if got := s.NUTPrefix(); got != "ambient." {
		t.Fatalf("NUTPrefix() = %q, want ambient.", got)
	}
	if got := s.NUTIndex(); got != 0 {
		t.Fatalf("NUTIndex() = %d, want 0", got)
	}
}

func TestSensorPrefixesStandaloneEMP02(t *testing.T) {
	s := NewSensor("b", "", "", "ups", "2", "1", 0, "ups", 2, nil)
	if got := s.SensorPrefix(); got != "ambient.2." {
		t.Fatalf("SensorPrefix() = %q, want ambient.2.", got)
	}
	if got := s.TopicSuffix(); got != ".2@ups" {
		t.Fatalf("TopicSuffix() = %q, want .2@ups", got)
	}
	if got := s.NUTPrefix(); got != "ambient.2." {
		t.Fatalf("NUTPrefix() = %q, want ambient.2.", got)
	}
	if got := s.NUTIndex(); got != 2 {
		t.Fatalf("NUTIndex() = %d, want 2", got)
	}
}

func TestSensorPrefixesEMP01OnDaisyChainMaster(t *testing.T) {
	s := NewSensor("c", "", "", "epdu_m", "0", "2", 1, "epdu_m", 0, nil)
	if got := s.SensorPrefix(); got != "device.1.ambient." {
		t.Fatalf("SensorPrefix() = %q, want device.1.ambient.", got)
	}
	if got := s.TopicSuffix(); got != ".0@epdu_m" {
		t.Fatalf("TopicSuffix() = %q, want .0@epdu_m", got)
	}
	if got := s.NUTPrefix(); got != "device.1.ambient." {
		t.Fatalf("NUTPrefix() = %q, want device.1.ambient.", got)
	}
	if got := s.NUTIndex(); got != 1 {
		t.Fatalf("NUTIndex() = %d, want 1", got)
	}
}

func TestSensorPrefixesEMP01OnDaisyChainFollower(t *testing.T) {
	s := NewSensor("d", "", "", "epdu_1", "0", "2", 2, "epdu_m", 0, nil)
	if got := s.SensorPrefix(); got != "device.2.ambient." {
		t.Fatalf("SensorPrefix() = %q, want device.2.ambient.", got)
	}
	if got := s.TopicSuffix(); got != ".0@epdu_1" {
		t.Fatalf("TopicSuffix() = %q, want .0@epdu_1", got)
	}
	if got := s.NUTPrefix(); got != "device.2.ambient." {
		t.Fatalf("NUTPrefix() = %q, want device.2.ambient.", got)
	}
	if got := s.NUTIndex(); got != 2 {
		t.Fatalf("NUTIndex() = %d, want 2", got)
	}
}

func TestSensorPrefixesEMP02OnDaisyChainMaster(t *testing.T) {
	s := NewSensor("e", "", "", "epdu_m", "3", "8", 1, "epdu_m", 3, nil)
	if got := s.SensorPrefix(); got != "device.1.ambient.3." {
		t.Fatalf("SensorPrefix() = %q, want device.1.ambient.3.", got)
	}
	if got := s.TopicSuffix(); got != ".3@epdu_m" {
		t.Fatalf("TopicSuffix() = %q, want .3@epdu_m", got)
	}
	if got := s.NUTPrefix(); got != "device.1.ambient.3." {
		t.Fatalf("NUTPrefix() = %q, want device.1.ambient.3.", got)
	}
	if got := s.NUTIndex(); got != 3 {
		t.Fatalf("NUTIndex() = %d, want 3", got)
	}
}

func TestSensorPrefixesEMP02OnDaisyChainFollower(t *testing.T) {
	// This is the case that distinguishes SensorPrefix from NUTPrefix: the
	// sensor's own topic names its own chain (2), but the NUT query must
	// always go through the chain's master.
	s := NewSensor("f", "", "", "epdu_1", "5", "12", 2, "epdu_m", 5, nil)
	if got := s.SensorPrefix(); got != "device.2.ambient.5." {
		t.Fatalf("SensorPrefix() = %q, want device.2.ambient.5.", got)
	}
	if got := s.TopicSuffix(); got != ".5@epdu_1" {
		t.Fatalf("TopicSuffix() = %q, want .5@epdu_1", got)
	}
	if got := s.NUTPrefix(); got != "device.1.ambient.5." {
		t.Fatalf("NUTPrefix() = %q, want device.1.ambient.5.", got)
	}
	if got := s.NUTIndex(); got != 5 {
		t.Fatalf("NUTIndex() = %d, want 5", got)
	}
}

func TestUpdateTranslatesInventoryWithAssetPrecedence(t *testing.T) {
	s := NewSensor("a", "Lobby Sensor", "EMP001-MIB", "ups", "0", "", 0, "ups", 0, nil)
	raw := map[string][]string{
		"ambient.mfr":    {"Eaton"},
		"ambient.model":  {"EMP001"},
		"ambient.name":   {"raw name"},
		"ambient.serial": {"SN123"},
	}
	s.Update(raw, DefaultSensorMapping())

	if s.Inventory["manufacturer"] != "Eaton" {
		t.Fatalf("got %+v", s.Inventory)
	}
	if s.Inventory["model"] != "EMP001-MIB" {
		t.Fatalf("expected asset model to override device-reported model, got %+v", s.Inventory)
	}
	if s.Inventory["name"] != "Lobby Sensor" {
		t.Fatalf("expected asset friendly name to override device-reported name, got %+v", s.Inventory)
	}
}

func TestUpdateSkipsRefreshWhenSensorReportsAbsent(t *testing.T) {
	s := NewSensor("a", "", "", "ups", "0", "", 0, "ups", 0, nil)
	s.Temperature = "21.0"

	raw := map[string][]string{
		"ambient.present":     {"no"},
		"ambient.temperature": {"99.0"},
	}
	s.Update(raw, DefaultSensorMapping())

	if s.Temperature != "21.0" {
		t.Fatalf("expected stale temperature preserved when sensor reports absent, got %q", s.Temperature)
	}
}

func TestUpdateNormalizesContactPolarity(t *testing.T) {
	s := NewSensor("a", "", "", "ups", "0", "", 0, "ups", 0, nil)
	raw := map[string][]string{
		"ambient.contacts.1.status": {"active"},
		"ambient.contacts.1.config": {"normal-opened"},
		"ambient.contacts.2.status": {"active"},
		"ambient.contacts.2.config": {"normal-closed"},
	}
	s.Update(raw, DefaultSensorMapping())

	if len(s.Contacts) != 2 {
		t.Fatalf("got %+v", s.Contacts)
	}
	if s.Contacts[0] != "closed" {
		t.Fatalf("normal-opened+active should read closed, got %q", s.Contacts[0])
	}
	if s.Contacts[1] != "opened" {
		t.Fatalf("normal-closed+active should read opened, got %q", s.Contacts[1])
	}
}

func TestUpdateDiscardsUnknownAndBadContacts(t *testing.T) {
	s := NewSensor("a", "", "", "ups", "0", "", 0, "ups", 0, nil)
	raw := map[string][]string{
		"ambient.contacts.1.status": {"unknown"},
		"ambient.contacts.2.status": {"bad"},
	}
	s.Update(raw, DefaultSensorMapping())

	if len(s.Contacts) != 0 {
		t.Fatalf("expected unknown/bad contacts discarded, got %+v", s.Contacts)
	}
}

func TestUpdateLegacyOpenBecomesOpened(t *testing.T) {
	s := NewSensor("a", "", "", "ups", "0", "", 0, "ups", 0, nil)
	raw := map[string][]string{
		"ambient.contacts.1.status": {"open"},
	}
	s.Update(raw, DefaultSensorMapping())

	if len(s.Contacts) != 1 || s.Contacts[0] != "opened" {
		t.Fatalf("got %+v", s.Contacts)
	}
}
