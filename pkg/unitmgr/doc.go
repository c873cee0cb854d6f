// SPDX-License-Identifier: BSD-3-Clause

// Package unitmgr doc.
//
// Client wraps systemctl(1) invocations: Start, Stop, Enable, Disable,
// ReloadOrRestart, IsActive. Every failure is wrapped in ErrCommunication,
// matching the classification C5 applies to service-manager errors (§7).
package unitmgr
