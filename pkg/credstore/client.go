// SPDX-License-Identifier: BSD-3-Clause

// Package credstore is the client surface for the external credential
// store (the "security wallet" in rescanPolicy/onSecurityWalletCreate
// terms). The store itself, its persistence, and its change-notification
// transport are out of scope (spec §1); this package only speaks the
// request-reply and event shapes the bridge needs.
package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectGet is the request-reply mailbox for fetching one document by ID.
const SubjectGet = "SECURITY_WALLET.GET"

// SubjectList is the request-reply mailbox for listing every known document.
const SubjectList = "SECURITY_WALLET.LIST"

// SubjectChanges is the subject the wallet publishes create/update/delete
// notifications to; C10 subscribes to it to trigger rescans.
const SubjectChanges = "SECURITY_WALLET.CHANGE"

// ChangeOperation classifies a wallet change notification.
type ChangeOperation string

const (
	ChangeCreate ChangeOperation = "create"
	ChangeUpdate ChangeOperation = "update"
	ChangeDelete ChangeOperation = "delete"
)

// ChangeEvent is one document lifecycle notification.
type ChangeEvent struct {
	Operation  ChangeOperation `json:"operation"`
	DocumentID string          `json:"document_id"`
}

// Client is a request-reply handle to the external credential store.
type Client struct {
	nc      *nats.Conn
	timeout time.Duration
}

// New wraps an established in-process NATS connection. timeout bounds
// every request; zero selects a 5s default matching the bus's typical
// receive timeout (§5).
func New(nc *nats.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{nc: nc, timeout: timeout}
}

type getRequest struct {
	ID string `json:"id"`
}

// Get fetches one document by ID.
func (c *Client) Get(ctx context.Context, id string) (*Document, error) {
	payload, err := json.Marshal(getRequest{ID: id})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, SubjectGet, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply struct {
		Document *Document `json:"document"`
		Error    string    `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %w", ErrMalformed, err)
	}
	if reply.Error == "not_found" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}
	if reply.Document == nil {
		return nil, fmt.Errorf("%w: empty document in reply", ErrMalformed)
	}

	return reply.Document, nil
}

// List returns every document currently in the store, used to rebuild the
// credential snapshot on startup or after a wallet change event (§5 "The
// credential snapshot").
func (c *Client) List(ctx context.Context) ([]*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, SubjectList, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply struct {
		Documents []*Document `json:"documents"`
		Error     string      `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %w", ErrMalformed, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}

	return reply.Documents, nil
}

// Subscribe registers fn to be called for every wallet change notification
// until ctx is canceled or the subscription errors.
func (c *Client) Subscribe(ctx context.Context, fn func(ChangeEvent)) error {
	sub, err := c.nc.Subscribe(SubjectChanges, func(msg *nats.Msg) {
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(ev)
	})
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %w", ErrCommunication, SubjectChanges, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()

	return nil
}
