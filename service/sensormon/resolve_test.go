// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

func buildCatalog(t *testing.T, build func(w *catalog.Writer)) *catalog.AssetCatalog {
	t.Helper()
	mgr := catalog.NewManager()
	w := mgr.Writer()
	build(w)
	w.Commit()
	reader := mgr.Reader()
	reader.Refresh()
	return reader.State()
}

func TestResolveSensorsEMP01Standalone(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertPowerDevice(&catalog.Asset{Name: "ups-1", Subtype: catalog.SubtypeUPS})
		w.UpsertSensor(&catalog.Asset{Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "ups-1"})
	})

	sensors, errored := resolveSensors(context.Background(), cat, noQueries(t), nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	s, ok := sensors["sensor-1"]
	if !ok {
		t.Fatalf("expected sensor-1 to resolve")
	}
	if s.NUTMaster != "ups-1" || s.Index != 0 || s.Chain != 0 {
		t.Fatalf("got %+v", s)
	}
}

func TestResolveSensorsEMP01DaisyChainFollower(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertPowerDevice(&catalog.Asset{Name: "epdu-m", Subtype: catalog.SubtypeEPDU, IP: "10.0.0.1", DaisyChain: 1})
		w.UpsertPowerDevice(&catalog.Asset{Name: "epdu-1", Subtype: catalog.SubtypeEPDU, IP: "10.0.0.1", DaisyChain: 2})
		w.UpsertSensor(&catalog.Asset{Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "epdu-1"})
	})

	sensors, errored := resolveSensors(context.Background(), cat, noQueries(t), nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	s := sensors["sensor-1"]
	if s.NUTMaster != "epdu-m" || s.Index != 0 || s.Chain != 2 {
		t.Fatalf("got %+v", s)
	}
}

func TestResolveSensorsEMP02ResolvesIndexBySubAddress(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertPowerDevice(&catalog.Asset{Name: "epdu-2", Subtype: catalog.SubtypeEPDU, IP: "10.0.0.2", DaisyChain: 2})
		w.UpsertPowerDevice(&catalog.Asset{Name: "epdu-1", Subtype: catalog.SubtypeEPDU, IP: "10.0.0.2", DaisyChain: 1})
		w.UpsertSensor(&catalog.Asset{
			Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "epdu-2", HasPort: true, Port: 3,
			Endpoints: map[int]catalog.Endpoint{1: {SubAddress: "sub-3"}},
		})
	})

	queries := map[string][]string{
		"epdu-1|device.1.ambient.count":     {"4"},
		"epdu-1|device.1.ambient.1.address": {"sub-1"},
		"epdu-1|device.1.ambient.2.address": {"sub-2"},
		"epdu-1|device.1.ambient.3.address": {"sub-3"},
	}
	get := func(ctx context.Context, host, name string) ([]string, error) {
		return queries[host+"|"+name], nil
	}

	sensors, errored := resolveSensors(context.Background(), cat, get, nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	s, ok := sensors["sensor-1"]
	if !ok {
		t.Fatalf("expected sensor-1 to resolve")
	}
	if s.Index != 3 || s.NUTMaster != "epdu-1" {
		t.Fatalf("got %+v", s)
	}
	// §8 scenario 4 worked example.
	if got := s.NUTPrefix(); got != "device.1.ambient.3." {
		t.Fatalf("NUTPrefix() = %q, want device.1.ambient.3.", got)
	}
	if got := s.TopicSuffix(); got != ".3@epdu-2" {
		t.Fatalf("TopicSuffix() = %q, want .3@epdu-2", got)
	}
}

func TestResolveSensorsUnknownParentIsDropped(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertSensor(&catalog.Asset{Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "nowhere"})
	})

	sensors, errored := resolveSensors(context.Background(), cat, noQueries(t), nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	if len(sensors) != 0 {
		t.Fatalf("expected no sensors resolved, got %+v", sensors)
	}
}

func TestResolveSensorsEMP001ChildBecomesChildNotOwnEntry(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertPowerDevice(&catalog.Asset{Name: "ups-1", Subtype: catalog.SubtypeUPS})
		w.UpsertSensor(&catalog.Asset{Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "ups-1"})
		w.UpsertSensor(&catalog.Asset{Name: "contact-1", Subtype: catalog.SubtypeSensorGPIO, ParentName: "sensor-1", HasPort: true, Port: 1})
	})

	sensors, errored := resolveSensors(context.Background(), cat, noQueries(t), nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	if _, ok := sensors["contact-1"]; ok {
		t.Fatalf("a GPI child must not get its own sensor entry")
	}
	parent, ok := sensors["sensor-1"]
	if !ok {
		t.Fatalf("expected sensor-1 to resolve")
	}
	if parent.Children["1"] != "contact-1" {
		t.Fatalf("got children %+v", parent.Children)
	}
}

func TestResolveSensorsDropsWhenIndexNeverFound(t *testing.T) {
	cat := buildCatalog(t, func(w *catalog.Writer) {
		w.UpsertPowerDevice(&catalog.Asset{Name: "ups-1", Subtype: catalog.SubtypeUPS})
		w.UpsertSensor(&catalog.Asset{
			Name: "sensor-1", Subtype: catalog.SubtypeSensor, ParentName: "ups-1", HasPort: true, Port: 2,
			Endpoints: map[int]catalog.Endpoint{1: {SubAddress: "sub-2"}},
		})
	})

	get := func(ctx context.Context, host, name string) ([]string, error) {
		if name == "ambient.count" {
			return []string{"1"}, nil
		}
		return []string{"sub-nomatch"}, nil
	}

	sensors, errored := resolveSensors(context.Background(), cat, get, nil)
	if errored {
		t.Fatalf("did not expect a resolution error")
	}
	if _, ok := sensors["sensor-1"]; ok {
		t.Fatalf("expected sensor dropped when no index matched")
	}
}

func noQueries(t *testing.T) queryFunc {
	return func(ctx context.Context, host, name string) ([]string, error) {
		t.Fatalf("unexpected NUT query for %s %s", host, name)
		return nil, nil
	}
}
