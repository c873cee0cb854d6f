// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import (
	"testing"

	"github.com/u-bmc/nut-bridge/service/confresolver"
)

func TestApplyWritesAndQueuesStart(t *testing.T) {
	dir := t.TempDir()
	d := New(nil, WithStoreDir(dir))

	c := &confresolver.Candidate{Values: map[string]string{"driver": "snmp-ups", "port": "10.0.0.1"}}
	changed, err := d.apply("ups-1", c)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !changed {
		t.Fatalf("expected first apply to write")
	}

	pending := d.pendingStart.drain()
	if len(pending) != 1 || pending[0] != "ups-1" {
		t.Fatalf("expected ups-1 queued for start, got %v", pending)
	}
}

func TestForgetRemovesFileAndQueuesStop(t *testing.T) {
	dir := t.TempDir()
	d := New(nil, WithStoreDir(dir))

	c := &confresolver.Candidate{Values: map[string]string{"driver": "snmp-ups", "port": "10.0.0.1"}}
	if _, err := d.apply("ups-1", c); err != nil {
		t.Fatalf("apply: %v", err)
	}
	d.pendingStart.drain()

	if err := d.forget("ups-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}

	pending := d.pendingStop.drain()
	if len(pending) != 1 || pending[0] != "ups-1" {
		t.Fatalf("expected ups-1 queued for stop, got %v", pending)
	}
}
