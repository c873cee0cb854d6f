// SPDX-License-Identifier: BSD-3-Clause

// Package bridge is the event ingress and scheduler (C10). It owns the
// asset catalog's single Manager, supervises the six bus-resident
// services (C4-C9) under a fault-tolerant oversight tree, and drives the
// two request-driven services — the configuration resolver and the
// driver lifecycle manager — according to the per-asset
// configuration state machine (§4.9).
//
// Ingress is three independent streams feeding one scheduler: asset-stream
// events (create/update/delete/retire) that update the catalog and track
// each power device's configuration lifecycle, a licensing metric that
// gates the catalog's global monitoring flag, and credential-store change
// notifications that trigger a rescan of affected assets. A single
// scheduler loop ticks at a fixed interval and, for every
// asset whose deadline has passed, calls the resolver and driver manager
// over the bus exactly as an external caller would, advancing that
// asset's state machine on the outcome.
//
// Example usage:
//
//	b := bridge.New(
//		bridge.WithName("nut-bridge"),
//		bridge.WithTimeout(15*time.Second),
//	)
//	err := b.Run(ctx, ipcConn)
package bridge
