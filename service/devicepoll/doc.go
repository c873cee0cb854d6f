// SPDX-License-Identifier: BSD-3-Clause

// Package devicepoll implements the polling engine (C6): it refreshes raw
// NUT variables for every allowed power device, maps them to canonical
// metric names, derives the load.default, alarm and status bitfields, and
// publishes device inventory on a longer cycle.
package devicepoll
