// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// SubjectMetrics carries every ambient temperature, humidity and
// dry-contact measurement this service publishes (§4.7).
const SubjectMetrics = "sensormon.metrics"

// Metric is one ambient measurement, keyed the way the source's topic
// naming does: a quantity carrying its own index, an owning element
// (the sensor's location), and an optional child-sensor identity for a
// republished EMP001 GPI contact.
type Metric struct {
	Element    string `json:"element"`
	Quantity   string `json:"quantity"`
	Value      string `json:"value"`
	Unit       string `json:"unit,omitempty"`
	TTLSeconds int    `json:"ttl_seconds"`
	SensorName string `json:"sensor_name"`
	ChildName  string `json:"child_name,omitempty"`
}

// SubjectInventory carries sensor inventory snapshots, republished only
// when changed or once per inventory-repeat interval (§4.7).
const SubjectInventory = "sensormon.inventory"

// Inventory is one sensor's inventory snapshot.
type Inventory struct {
	Asset  string            `json:"asset"`
	Fields map[string]string `json:"fields"`
}

// Publisher emits a metric or inventory snapshot onto the bus.
type Publisher interface {
	Publish(m Metric) error
	PublishInventory(inv Inventory) error
}

// natsPublisher is the production Publisher, backed by an in-process NATS
// connection.
type natsPublisher struct {
	nc *nats.Conn
}

func newNATSPublisher(nc *nats.Conn) *natsPublisher {
	return &natsPublisher{nc: nc}
}

func (p *natsPublisher) Publish(m Metric) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectMetrics, data)
}

func (p *natsPublisher) PublishInventory(inv Inventory) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	return p.nc.Publish(SubjectInventory, data)
}
