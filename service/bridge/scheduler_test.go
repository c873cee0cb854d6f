// SPDX-License-Identifier: BSD-3-Clause

package bridge

import (
	"testing"
	"time"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/state"
)

func TestDueAtNewAssetWithoutVerbatimWaitsFiveSeconds(t *testing.T) {
	now := time.Now()
	lastChecked := now.Add(-4 * time.Second)
	if dueAt(state.StateNew, false, lastChecked, now) {
		t.Fatalf("expected not due before the 5s backoff elapses")
	}
	lastChecked = now.Add(-5 * time.Second)
	if !dueAt(state.StateNew, false, lastChecked, now) {
		t.Fatalf("expected due once the 5s backoff elapses")
	}
}

func TestDueAtNewAssetWithVerbatimIsFast(t *testing.T) {
	now := time.Now()
	lastChecked := now.Add(-100 * time.Millisecond)
	if !dueAt(state.StateNew, true, lastChecked, now) {
		t.Fatalf("expected an asset with a verbatim block to be due after 100ms")
	}
}

func TestDueAtConfiguringWaitsSixtySeconds(t *testing.T) {
	now := time.Now()
	lastChecked := now.Add(-59 * time.Second)
	if dueAt(state.StateConfiguring, false, lastChecked, now) {
		t.Fatalf("expected not due before the 60s recheck interval elapses")
	}
	lastChecked = now.Add(-60 * time.Second)
	if !dueAt(state.StateConfiguring, false, lastChecked, now) {
		t.Fatalf("expected due once the 60s recheck interval elapses")
	}
}

func TestDueAtDeletingIsFast(t *testing.T) {
	now := time.Now()
	lastChecked := now.Add(-100 * time.Millisecond)
	if !dueAt(state.StateDeleting, false, lastChecked, now) {
		t.Fatalf("expected a deleting asset to be due after 100ms")
	}
}

func TestDueAtConfiguredNeverFires(t *testing.T) {
	now := time.Now()
	lastChecked := now.Add(-24 * time.Hour)
	if dueAt(state.StateConfigured, false, lastChecked, now) {
		t.Fatalf("expected a terminal configured asset to never be due")
	}
}

func TestAssetUsesCredentialMatchesAnyEndpoint(t *testing.T) {
	a := &catalog.Asset{
		Name: "ups-1",
		Endpoints: map[int]catalog.Endpoint{
			0: {Protocol: "snmp", SecurityDocumentID: "doc-a"},
			1: {Protocol: "snmp", SecurityDocumentID: "doc-b"},
		},
	}
	if !assetUsesCredential(a, "doc-b") {
		t.Fatalf("expected a match on the second endpoint's document")
	}
	if assetUsesCredential(a, "doc-c") {
		t.Fatalf("expected no match for an unreferenced document")
	}
}

func TestAssetToEventCarriesAuxAndExt(t *testing.T) {
	a := &catalog.Asset{
		Name: "ups-1",
		Aux:  map[string]string{"k": "v"},
		Ext:  map[string]string{"e": "f"},
	}
	ev := assetToEvent(a)
	if ev.Name != "ups-1" {
		t.Fatalf("got name %q", ev.Name)
	}
	if ev.Operation != catalog.OperationUpdate {
		t.Fatalf("got operation %q, want update", ev.Operation)
	}
	if ev.Status != catalog.ActiveStatus {
		t.Fatalf("got status %q, want active", ev.Status)
	}
	if ev.Aux["k"] != "v" || ev.Ext["e"] != "f" {
		t.Fatalf("expected aux/ext to carry through unchanged, got %+v / %+v", ev.Aux, ev.Ext)
	}
}
