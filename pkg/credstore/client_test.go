// SPDX-License-Identifier: BSD-3-Clause

package credstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestServer(t *testing.T) *nats.Conn {
	t.Helper()

	opts := &server.Options{Port: -1}
	srv, err := server.NewServer(opts)
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

func TestGetDocument(t *testing.T) {
	nc := startTestServer(t)

	sub, err := nc.Subscribe(SubjectGet, func(msg *nats.Msg) {
		reply := struct {
			Document *Document `json:"document"`
		}{Document: &Document{ID: "doc-1", Type: DocumentSNMPv3, SecName: "monitor"}}
		data, _ := json.Marshal(reply)
		_ = msg.Respond(data)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	c := New(nc, time.Second)
	doc, err := c.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.SecName != "monitor" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestGetNotFound(t *testing.T) {
	nc := startTestServer(t)

	sub, err := nc.Subscribe(SubjectGet, func(msg *nats.Msg) {
		reply := struct {
			Error string `json:"error"`
		}{Error: "not_found"}
		data, _ := json.Marshal(reply)
		_ = msg.Respond(data)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	c := New(nc, time.Second)
	if _, err := c.Get(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestSubscribeReceivesChangeEvents(t *testing.T) {
	nc := startTestServer(t)
	c := New(nc, time.Second)

	received := make(chan ChangeEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Subscribe(ctx, func(ev ChangeEvent) { received <- ev }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	data, _ := json.Marshal(ChangeEvent{Operation: ChangeUpdate, DocumentID: "doc-2"})
	if err := nc.Publish(SubjectChanges, data); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case ev := <-received:
		if ev.DocumentID != "doc-2" || ev.Operation != ChangeUpdate {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change event")
	}
}
