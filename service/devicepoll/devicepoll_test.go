// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import (
	"context"
	"testing"
	"time"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

type recordingPublisher struct {
	metrics []Metric
}

func (p *recordingPublisher) Publish(m Metric) error {
	p.metrics = append(p.metrics, m)
	return nil
}

func newTestDevicePoll() (*DevicePoll, *recordingPublisher) {
	pub := &recordingPublisher{}
	d := New(nil, WithPollingInterval(30*time.Second))
	d.publisher = pub
	return d, pub
}

func TestProcessAssetPublishesChangedQuantitiesOnce(t *testing.T) {
	d, pub := newTestDevicePoll()
	asset := &catalog.Asset{Name: "ups-1", Subtype: catalog.SubtypeUPS}

	raw := map[string][]string{
		"ups.load": {"42"},
	}
	d.processAsset(context.Background(), asset, raw)
	if len(pub.metrics) != 1 || pub.metrics[0].Quantity != "load.default" || pub.metrics[0].Value != "42" {
		t.Fatalf("unexpected metrics: %+v", pub.metrics)
	}

	pub.metrics = nil
	d.processAsset(context.Background(), asset, raw)
	if len(pub.metrics) != 0 {
		t.Fatalf("expected no republish of an unchanged value, got %+v", pub.metrics)
	}

	raw["ups.load"] = []string{"50"}
	d.processAsset(context.Background(), asset, raw)
	if len(pub.metrics) != 1 || pub.metrics[0].Value != "50" {
		t.Fatalf("expected republish of changed value, got %+v", pub.metrics)
	}
}

func TestProcessAssetSynthesizesEPDULoadDefault(t *testing.T) {
	d, pub := newTestDevicePoll()
	asset := &catalog.Asset{Name: "epdu-1", Subtype: catalog.SubtypeEPDU, MaxCurrent: 16}

	raw := map[string][]string{
		"input.L1.current": {"4.0"},
	}
	d.processAsset(context.Background(), asset, raw)

	var found bool
	for _, m := range pub.metrics {
		if m.Quantity == "load.default" {
			found = true
			if m.Value != "25" {
				t.Fatalf("got %q, want 25", m.Value)
			}
		}
	}
	if !found {
		t.Fatalf("expected a synthesized load.default metric, got %+v", pub.metrics)
	}
}

func TestProcessAssetSkipsStatusForEPDU(t *testing.T) {
	d, pub := newTestDevicePoll()
	asset := &catalog.Asset{Name: "epdu-1", Subtype: catalog.SubtypeEPDU}

	raw := map[string][]string{"ups.status": {"OL"}}
	d.processAsset(context.Background(), asset, raw)

	for _, m := range pub.metrics {
		if m.Quantity == "status.ups" || m.Quantity == "power.status" {
			t.Fatalf("did not expect status metrics for an epdu, got %+v", pub.metrics)
		}
	}
}

func TestProcessAssetPublishesOutletStatuses(t *testing.T) {
	d, pub := newTestDevicePoll()
	asset := &catalog.Asset{Name: "epdu-1", Subtype: catalog.SubtypeEPDU}

	raw := map[string][]string{
		"status.outlet.1": {"on"},
		"status.outlet.2": {"off"},
	}
	d.processAsset(context.Background(), asset, raw)

	got := map[string]string{}
	for _, m := range pub.metrics {
		got[m.Quantity] = m.Value
	}
	if got["status.outlet.1"] != "42" || got["status.outlet.2"] != "0" {
		t.Fatalf("unexpected outlet metrics: %+v", pub.metrics)
	}
}

func TestNutAddressFor(t *testing.T) {
	if got := nutAddressFor(&catalog.Asset{}, "fallback:1"); got != "fallback:1" {
		t.Fatalf("got %q, want fallback", got)
	}
	if got := nutAddressFor(&catalog.Asset{IP: "10.0.0.1"}, ""); got != "10.0.0.1:3493" {
		t.Fatalf("got %q, want default-port form", got)
	}
	if got := nutAddressFor(&catalog.Asset{IP: "10.0.0.1", Port: 3000, HasPort: true}, ""); got != "10.0.0.1:3000" {
		t.Fatalf("got %q, want explicit port form", got)
	}
}
