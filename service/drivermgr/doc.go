// SPDX-License-Identifier: BSD-3-Clause

// Package drivermgr implements the driver lifecycle manager (C5): it keeps
// one NUT driver configuration file per asset on disk, writing a new one
// only when its rendered text actually changes, and reconciles two
// coalescing sets of pending systemd unit work — starts and stops — on a
// fixed cadence rather than on every single apply/forget call.
package drivermgr
