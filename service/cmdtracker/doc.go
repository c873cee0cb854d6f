// SPDX-License-Identifier: BSD-3-Clause

// Package cmdtracker implements the command tracker (C9): it turns a
// logical multi-target command request into NUT instant-command writes,
// polls their tracking IDs on a bounded cadence, and reports one
// AND-accumulated result back to the caller once every target has
// resolved (§4.8).
package cmdtracker
