// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteIfChangedGatesOnContentEquality(t *testing.T) {
	dir := t.TempDir()
	s := newStore(dir)

	changed, err := s.writeIfChanged("ups-1", []byte("[ups-1]\ndriver = snmp-ups\n"))
	if err != nil {
		t.Fatalf("writeIfChanged: %v", err)
	}
	if !changed {
		t.Fatalf("expected first write to report changed")
	}

	changed, err = s.writeIfChanged("ups-1", []byte("[ups-1]\ndriver = snmp-ups\n"))
	if err != nil {
		t.Fatalf("writeIfChanged: %v", err)
	}
	if changed {
		t.Fatalf("expected second identical write to be a no-op")
	}

	changed, err = s.writeIfChanged("ups-1", []byte("[ups-1]\ndriver = netxml-ups\n"))
	if err != nil {
		t.Fatalf("writeIfChanged: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed content to report changed")
	}

	b, err := os.ReadFile(filepath.Join(dir, "ups-1"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "[ups-1]\ndriver = netxml-ups\n" {
		t.Fatalf("unexpected final content: %q", b)
	}
}

func TestPendingSetCoalesces(t *testing.T) {
	p := newPendingSet()
	p.add("ups-1")
	p.add("ups-1")
	p.add("ups-2")

	drained := p.drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 coalesced entries, got %d: %v", len(drained), drained)
	}

	if len(p.drain()) != 0 {
		t.Fatalf("expected drain to clear the set")
	}
}
