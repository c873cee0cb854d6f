// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

func TestFromVerbatimParsesSection(t *testing.T) {
	asset := &catalog.Asset{
		Name: "ups-1",
		Verbatim: &catalog.VerbatimBlock{
			Separator: '|',
			Payload:   "[ups-1]|driver = dummy-ups|port = /dev/null",
		},
	}

	c, err := FromVerbatim(asset)
	if err != nil {
		t.Fatalf("FromVerbatim: %v", err)
	}
	if c.Driver() != "dummy-ups" || c.Port() != "/dev/null" {
		t.Fatalf("unexpected candidate: %+v", c.Values)
	}
}

func TestFromVerbatimNoBlock(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1"}
	if _, err := FromVerbatim(asset); err != ErrNoCandidate {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}

func TestFromVerbatimEmptyPayloadDegenerates(t *testing.T) {
	asset := &catalog.Asset{
		Name:     "ups-1",
		Verbatim: &catalog.VerbatimBlock{Separator: '|', Payload: "   "},
	}

	c, err := FromVerbatim(asset)
	if err != nil {
		t.Fatalf("FromVerbatim: %v", err)
	}
	if c.Values["name"] != "ups-1" || len(c.Values) != 1 {
		t.Fatalf("unexpected degenerate candidate: %+v", c.Values)
	}
}

func TestFromVerbatimWithoutHeaderPrepended(t *testing.T) {
	asset := &catalog.Asset{
		Name:     "ups-1",
		Verbatim: &catalog.VerbatimBlock{Separator: '\n', Payload: "driver = snmp-ups\nport = 10.0.0.1"},
	}

	c, err := FromVerbatim(asset)
	if err != nil {
		t.Fatalf("FromVerbatim: %v", err)
	}
	if c.Driver() != "snmp-ups" || c.Port() != "10.0.0.1" {
		t.Fatalf("unexpected candidate: %+v", c.Values)
	}
}

func TestFromVerbatimMalformedLine(t *testing.T) {
	asset := &catalog.Asset{
		Name:     "ups-1",
		Verbatim: &catalog.VerbatimBlock{Separator: '|', Payload: "[ups-1]|not-a-key-value"},
	}

	if _, err := FromVerbatim(asset); err == nil {
		t.Fatalf("expected malformed error")
	}
}

func TestFromVerbatimOnlyFirstSectionHonored(t *testing.T) {
	asset := &catalog.Asset{
		Name: "ups-1",
		Verbatim: &catalog.VerbatimBlock{
			Separator: '|',
			Payload:   "[ups-1]|driver = dummy-ups|[ups-2]|driver = snmp-ups",
		},
	}

	c, err := FromVerbatim(asset)
	if err != nil {
		t.Fatalf("FromVerbatim: %v", err)
	}
	if c.Driver() != "dummy-ups" {
		t.Fatalf("expected first section only, got driver %q", c.Driver())
	}
}
