// SPDX-License-Identifier: BSD-3-Clause

package assetsvc

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

func startTestServer(t *testing.T) *nats.Conn {
	t.Helper()

	srv, err := server.NewServer(&server.Options{Port: -1})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go srv.Start()
	if !srv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("server not ready")
	}
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(nc.Close)

	return nc
}

func TestListBySubtype(t *testing.T) {
	nc := startTestServer(t)

	sub, err := nc.Subscribe(SubjectAssets, func(msg *nats.Msg) {
		fields := strings.Fields(string(msg.Data))
		id := fields[1]
		_ = msg.Respond([]byte(id + " OK ups-1 ups-2"))
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	c := New(nc, time.Second)
	names, err := c.ListBySubtype(context.Background(), "ups")
	if err != nil {
		t.Fatalf("ListBySubtype: %v", err)
	}
	if len(names) != 2 || names[0] != "ups-1" || names[1] != "ups-2" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestGetDetail(t *testing.T) {
	nc := startTestServer(t)

	sub, err := nc.Subscribe(SubjectAssetDetail, func(msg *nats.Msg) {
		fields := strings.Fields(string(msg.Data))
		id := fields[1]
		ev := &catalog.AssetEvent{
			Name:      "ups-1",
			Operation: catalog.OperationCreate,
			Status:    "active",
			Aux:       map[string]string{"subtype": "ups"},
			Ext:       map[string]string{"ip.1": "10.0.0.1"},
		}
		reply := struct {
			CorrelationID string              `json:"correlation_id"`
			Event         *catalog.AssetEvent `json:"asset"`
		}{CorrelationID: id, Event: ev}
		data, _ := json.Marshal(reply)
		_ = msg.Respond(data)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	c := New(nc, time.Second)
	asset, err := c.GetDetail(context.Background(), "ups-1")
	if err != nil {
		t.Fatalf("GetDetail: %v", err)
	}
	if asset.Name != "ups-1" || asset.IP != "10.0.0.1" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
}

func TestUpdateSubAddress(t *testing.T) {
	nc := startTestServer(t)

	sub, err := nc.Subscribe(SubjectAssetManipulation, func(msg *nats.Msg) {
		parts := strings.SplitN(string(msg.Data), "\n", 2)
		var req subAddressUpdate
		_ = json.Unmarshal([]byte(parts[1]), &req)
		reply := struct {
			CorrelationID string `json:"correlation_id"`
		}{CorrelationID: req.CorrelationID}
		data, _ := json.Marshal(reply)
		_ = msg.Respond(data)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	c := New(nc, time.Second)
	if err := c.UpdateSubAddress(context.Background(), "sensor-1", 2, "5"); err != nil {
		t.Fatalf("UpdateSubAddress: %v", err)
	}
}
