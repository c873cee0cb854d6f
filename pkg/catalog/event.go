// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation classifies an inbound asset-stream event.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationRetire Operation = "retire"
)

// ActiveStatus is the only Status value that keeps an asset in the catalog;
// anything else (inactive, nonactive, retired, ...) removes it, exactly
// like Delete/Retire.
const ActiveStatus = "active"

// AssetEvent is the parsed shape of one inbound asset-stream message: an
// operation plus the auxiliary and extended attribute bags carried by the
// wire event.
type AssetEvent struct {
	Name      string
	Operation Operation
	Status    string
	Aux       map[string]string
	Ext       map[string]string
}

// Removes reports whether this event should remove the asset from the
// catalog rather than upsert it.
func (e *AssetEvent) Removes() bool {
	if e.Operation == OperationDelete || e.Operation == OperationRetire {
		return true
	}
	return e.Status != "" && e.Status != ActiveStatus
}

// FromEvent constructs an immutable Asset from a parsed asset-stream event.
// It never mutates the event's maps, and the returned Asset must not be
// mutated afterward either.
func FromEvent(e *AssetEvent) (*Asset, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("%w: empty asset name", ErrMalformedEvent)
	}

	a := &Asset{
		Name:       e.Name,
		ParentName: e.Aux["parent_name.1"],
		Subtype:    Subtype(e.Aux["subtype"]),
		Serial:     e.Ext["serial_no"],
		IP:         e.Ext["ip.1"],
		Endpoints:  map[int]Endpoint{},
		Ext:        e.Ext,
		Aux:        e.Aux,
	}

	if v, ok := e.Ext["port"]; ok {
		if p, err := strconv.Atoi(v); err == nil {
			a.Port = p
			a.HasPort = true
		}
	}
	if v, ok := e.Ext["daisy_chain"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			a.DaisyChain = n
		}
	}
	if v, ok := e.Ext["max_current"]; ok {
		a.MaxCurrent, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := e.Ext["max_power"]; ok {
		a.MaxPower, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := e.Ext["upsconf_enable_dmf"]; ok {
		a.PreferDMF = v == "1" || strings.EqualFold(v, "true")
	}
	if payload, ok := e.Ext["upsconf_block"]; ok && payload != "" {
		a.Verbatim = &VerbatimBlock{
			Separator: payload[0],
			Payload:   payload[1:],
		}
	}

	parseEndpoints(e.Ext, a.Endpoints)

	return a, nil
}

// parseEndpoints collects every `endpoint.<n>.<key>` extended attribute
// into the per-index Endpoint structs.
func parseEndpoints(ext map[string]string, out map[int]Endpoint) {
	for k, v := range ext {
		if !strings.HasPrefix(k, "endpoint.") {
			continue
		}
		rest := strings.TrimPrefix(k, "endpoint.")
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		ep := out[idx]
		switch parts[1] {
		case "protocol":
			ep.Protocol = v
		case "port":
			ep.Port = v
		case "security_document_id", "security_document":
			ep.SecurityDocumentID = v
		case "sub_address":
			ep.SubAddress = v
		}
		out[idx] = ep
	}
}
