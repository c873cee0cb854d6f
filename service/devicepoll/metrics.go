// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// SubjectMetrics carries every metric and inventory update this service
// publishes, keyed by asset and quantity (§4.5).
const SubjectMetrics = "devicepoll.metrics"

// Metric is one `{ asset, quantity, value, unit, ttl }` measurement
// (§4.5 step 3).
type Metric struct {
	Asset      string `json:"asset"`
	Quantity   string `json:"quantity"`
	Value      string `json:"value"`
	Unit       string `json:"unit,omitempty"`
	TTLSeconds int    `json:"ttl_seconds"`
	Inventory  bool   `json:"inventory,omitempty"`
}

// Publisher emits a metric onto the bus.
type Publisher interface {
	Publish(m Metric) error
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
