// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"strings"
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

func TestSerializeIsStableAndSectionedByAssetName(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-42"}
	c := candidateWithFingerprint(DriverSNMP, "10.0.0.1")
	c.Values["community"] = "public"
	c.Values["name"] = "something-else"

	out := Serialize(asset, c)
	if !strings.HasPrefix(out, "[ups-42]\n") {
		t.Fatalf("expected section header to use asset name, got %q", out)
	}
	if strings.Contains(out, "name = ") {
		t.Fatalf("name key must not appear in the body: %q", out)
	}

	again := Serialize(asset, c)
	if out != again {
		t.Fatalf("serialization must be stable across calls")
	}
}

func TestSerializeOrdersDriverAndPortFirst(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1"}
	c := candidateWithFingerprint(DriverNetXML, "http://10.0.0.9")
	c.Values["pollinterval"] = "30"
	c.Values["timeout"] = "15"

	lines := strings.Split(strings.TrimRight(Serialize(asset, c), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[1], "driver") || !strings.Contains(lines[2], "port") {
		t.Fatalf("expected driver then port first: %v", lines)
	}
}
