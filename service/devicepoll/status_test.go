// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import "testing"

func TestDecodeStatusRepairsMissingOLOB(t *testing.T) {
	// §8 scenario 1: "CHRG" alone repairs to OL|CHRG.
	bits := DecodeStatus("CHRG", "", false)
	if bits != StatusOL|StatusCHRG {
		t.Fatalf("got %016b, want %016b", bits, StatusOL|StatusCHRG)
	}

	bits = DecodeStatus("DISCHRG", "", false)
	if bits != StatusOB|StatusDISCHRG {
		t.Fatalf("got %016b, want %016b", bits, StatusOB|StatusDISCHRG)
	}
}

func TestDecodeStatusDoesNotRepairWhenOLOrOBPresent(t *testing.T) {
	bits := DecodeStatus("OL CHRG", "", false)
	if bits != StatusOL|StatusCHRG {
		t.Fatalf("got %016b, want %016b", bits, StatusOL|StatusCHRG)
	}
}

func TestDecodeStatusSetsCALOnTestInProgress(t *testing.T) {
	bits := DecodeStatus("OL", "in progress", false)
	if bits&StatusCAL == 0 {
		t.Fatalf("expected CAL set, got %016b", bits)
	}
}

func TestDecodeStatusOrsAlarmBit(t *testing.T) {
	bits := DecodeStatus("OL", "", true)
	if bits&StatusALARM == 0 {
		t.Fatalf("expected ALARM set, got %016b", bits)
	}
}

func TestShouldPublishStatus(t *testing.T) {
	cases := []struct {
		status string
		epdu   bool
		want   bool
	}{
		{"", false, false},
		{"WAIT", false, false},
		{"OL", true, false},
		{"OL", false, true},
	}
	for _, c := range cases {
		if got := ShouldPublishStatus(c.status, c.epdu); got != c.want {
			t.Errorf("ShouldPublishStatus(%q, %v) = %v, want %v", c.status, c.epdu, got, c.want)
		}
	}
}

func TestPowerStatus(t *testing.T) {
	cases := []struct {
		bits StatusBit
		want string
	}{
		{StatusOL, PowerStatusOnline},
		{StatusOB, PowerStatusOnBattery},
		{StatusOL | StatusOB, PowerStatusUndefined},
		{0, PowerStatusUndefined},
	}
	for _, c := range cases {
		if got := PowerStatus(c.bits); got != c.want {
			t.Errorf("PowerStatus(%016b) = %q, want %q", c.bits, got, c.want)
		}
	}
}

func TestOutletStatus(t *testing.T) {
	if OutletStatus("on") != 42 {
		t.Fatalf("expected 42 for on")
	}
	if OutletStatus("off") != 0 {
		t.Fatalf("expected 0 for off")
	}
}

func TestLoadDefaultSynthesisFromNominal(t *testing.T) {
	// §8 scenario 6.
	values := map[string]string{
		"current.input.L1":      "4.0",
		"current.input.nominal": "16",
	}
	v, ok := LoadDefault(values, 0)
	if !ok {
		t.Fatalf("expected synthesis to succeed")
	}
	if v != "25" {
		t.Fatalf("got %q, want %q", v, "25")
	}
}

func TestLoadDefaultSynthesisFromAssetMaxCurrent(t *testing.T) {
	values := map[string]string{"current.input.L1": "8"}
	v, ok := LoadDefault(values, 16)
	if !ok {
		t.Fatalf("expected synthesis to succeed")
	}
	if v != "50" {
		t.Fatalf("got %q, want %q", v, "50")
	}
}

func TestLoadDefaultPrefersExistingLoadInputL1(t *testing.T) {
	values := map[string]string{"load.input.L1": "33", "current.input.L1": "4"}
	v, ok := LoadDefault(values, 16)
	if !ok || v != "33" {
		t.Fatalf("got (%q, %v), want (33, true)", v, ok)
	}
}

func TestLoadDefaultFailsWithoutMaxOrCurrent(t *testing.T) {
	if _, ok := LoadDefault(map[string]string{}, 0); ok {
		t.Fatalf("expected synthesis to fail with no inputs")
	}
	if _, ok := LoadDefault(map[string]string{"current.input.L1": "4"}, 0); ok {
		t.Fatalf("expected synthesis to fail with zero max")
	}
}

func TestUnitForQuantity(t *testing.T) {
	cases := map[string]string{
		"temperature.default": "C",
		"realpower.default":   "W",
		"voltage.input.L1":    "V",
		"current.input.L1":    "A",
		"load.default":        "%",
		"unknown.thing":       "",
	}
	for q, want := range cases {
		if got := unitForQuantity(q); got != want {
			t.Errorf("unitForQuantity(%q) = %q, want %q", q, got, want)
		}
	}
}
