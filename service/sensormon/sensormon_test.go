// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"testing"
	"time"
)

func TestInventoryDigestIsOrderIndependent(t *testing.T) {
	a := map[string]string{"manufacturer": "Eaton", "model": "EMP001"}
	b := map[string]string{"model": "EMP001", "manufacturer": "Eaton"}
	if inventoryDigest(a) != inventoryDigest(b) {
		t.Fatalf("digest should not depend on map iteration order")
	}
}

func TestInventoryDigestChangesWithContent(t *testing.T) {
	a := map[string]string{"manufacturer": "Eaton"}
	b := map[string]string{"manufacturer": "Acme"}
	if inventoryDigest(a) == inventoryDigest(b) {
		t.Fatalf("digest should change when a value changes")
	}
}

type recordingPublisher struct {
	metrics   []Metric
	inventory []Inventory
}

func (p *recordingPublisher) Publish(m Metric) error {
	p.metrics = append(p.metrics, m)
	return nil
}

func (p *recordingPublisher) PublishInventory(inv Inventory) error {
	p.inventory = append(p.inventory, inv)
	return nil
}

func newTestSensorMon() (*SensorMon, *recordingPublisher) {
	s := New(nil, WithPollingInterval(DefaultPollingInterval))
	pub := &recordingPublisher{}
	s.publisher = pub
	return s, pub
}

func TestPublishAllEmitsTemperatureAndHumidity(t *testing.T) {
	s, pub := newTestSensorMon()
	sensor := NewSensor("sensor-1", "", "", "ups-1", "0", "", 0, "ups-1", 0, nil)
	sensor.Temperature = "22.5"
	sensor.Humidity = "40"
	s.sensors = map[string]*Sensor{"sensor-1": sensor}

	s.publishAll(context.Background())

	if len(pub.metrics) != 2 {
		t.Fatalf("got %+v", pub.metrics)
	}
}

func TestPublishAllRepublishesGPIChildUnderOwnSensorName(t *testing.T) {
	s, pub := newTestSensorMon()
	sensor := NewSensor("sensor-1", "", "", "ups-1", "0", "", 0, "ups-1", 0, ChildrenMap{"1": "contact-1"})
	sensor.Contacts = []string{"closed"}
	s.sensors = map[string]*Sensor{"sensor-1": sensor}

	s.publishAll(context.Background())

	if len(pub.metrics) != 1 {
		t.Fatalf("got %+v", pub.metrics)
	}
	if pub.metrics[0].SensorName != "contact-1" {
		t.Fatalf("expected contact republished under the child's own name, got %+v", pub.metrics[0])
	}
	if pub.metrics[0].Quantity != "status.GPI1.0" {
		t.Fatalf("got %q", pub.metrics[0].Quantity)
	}
}

func TestAdvertiseInventorySkipsUnchanged(t *testing.T) {
	s, pub := newTestSensorMon()
	sensor := NewSensor("sensor-1", "", "", "ups-1", "0", "", 0, "ups-1", 0, nil)
	sensor.Inventory = map[string]string{"manufacturer": "Eaton"}
	s.sensors = map[string]*Sensor{"sensor-1": sensor}
	s.lastFullInventory = time.Now()

	s.advertiseInventory(context.Background())
	s.advertiseInventory(context.Background())

	if len(pub.inventory) != 1 {
		t.Fatalf("expected inventory published once for unchanged content, got %d", len(pub.inventory))
	}
}
