// SPDX-License-Identifier: BSD-3-Clause

// Package assetsvc is the client surface for the external asset inventory
// service (spec §1 "the asset inventory service", §6 mailboxes `ASSETS`
// and `ASSET_DETAIL`). The service itself, its storage, and its wire
// encoding are out of scope; requests here are correlated with a uuid
// exactly as the protocol requires, and replies are decoded as JSON rather
// than the service's native fty_proto framing (absent from the retrieval
// pack, and domain payloads elsewhere in this bridge are JSON over NATS).
package assetsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

// Subject names for the inventory service's request-reply mailboxes.
const (
	SubjectAssets            = "ASSETS"
	SubjectAssetDetail       = "ASSET_DETAIL"
	SubjectAssetManipulation = "ASSET_MANIPULATION"
)

// Client is a request-reply handle to the external asset inventory
// service.
type Client struct {
	nc      *nats.Conn
	timeout time.Duration
}

// New wraps an established in-process NATS connection.
func New(nc *nats.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{nc: nc, timeout: timeout}
}

// ListBySubtype asks the inventory service for every asset name of the
// given subtypes ("GET <uuid> <subtype>…" per §6).
func (c *Client) ListBySubtype(ctx context.Context, subtypes ...string) ([]string, error) {
	id := uuid.NewString()
	req := "GET " + id
	for _, st := range subtypes {
		req += " " + st
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, SubjectAssets, []byte(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	fields := strings.Fields(string(msg.Data))
	if len(fields) < 2 || fields[0] != id {
		return nil, fmt.Errorf("%w: correlation id mismatch in ASSETS reply", ErrMalformed)
	}
	if fields[1] != "OK" {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, strings.Join(fields[1:], " "))
	}

	return fields[2:], nil
}

// GetDetail fetches one asset's full record and decodes it through the
// same event parser used for inbound asset-stream notifications (§6
// "hydrate the catalog").
func (c *Client) GetDetail(ctx context.Context, name string) (*catalog.Asset, error) {
	id := uuid.NewString()
	req := fmt.Sprintf("GET %s %s", id, name)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, SubjectAssetDetail, []byte(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply struct {
		CorrelationID string              `json:"correlation_id"`
		Event         *catalog.AssetEvent `json:"asset"`
		Error         string              `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%w: decode ASSET_DETAIL reply: %w", ErrMalformed, err)
	}
	if reply.CorrelationID != id {
		return nil, fmt.Errorf("%w: correlation id mismatch in ASSET_DETAIL reply", ErrMalformed)
	}
	if reply.Error == "not_found" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}
	if reply.Event == nil {
		return nil, fmt.Errorf("%w: empty asset in reply", ErrMalformed)
	}

	return catalog.FromEvent(reply.Event)
}

type subAddressUpdate struct {
	CorrelationID string `json:"correlation_id"`
	AssetName     string `json:"asset_name"`
	EndpointIndex int    `json:"endpoint_index"`
	SubAddress    string `json:"sub_address"`
}

// UpdateSubAddress persists a resolved sensor modbus sub-address back to
// the inventory service (§6 "persist sensor sub-address updates, with a
// preceding READWRITE frame and subject ASSET_MANIPULATION").
func (c *Client) UpdateSubAddress(ctx context.Context, assetName string, endpointIndex int, subAddress string) error {
	id := uuid.NewString()
	payload, err := json.Marshal(subAddressUpdate{
		CorrelationID: id,
		AssetName:     assetName,
		EndpointIndex: endpointIndex,
		SubAddress:    subAddress,
	})
	if err != nil {
		return fmt.Errorf("%w: encode update: %w", ErrMalformed, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	readwrite := append([]byte("READWRITE\n"), payload...)
	msg, err := c.nc.RequestWithContext(ctx, SubjectAssetManipulation, readwrite)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommunication, err)
	}

	var reply struct {
		CorrelationID string `json:"correlation_id"`
		Error         string `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("%w: decode ASSET_MANIPULATION reply: %w", ErrMalformed, err)
	}
	if reply.CorrelationID != id {
		return fmt.Errorf("%w: correlation id mismatch in ASSET_MANIPULATION reply", ErrMalformed)
	}
	if reply.Error != "" {
		return fmt.Errorf("%w: %s", ErrCommunication, reply.Error)
	}

	return nil
}
