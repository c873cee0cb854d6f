// SPDX-License-Identifier: BSD-3-Clause

// Package alertscan implements the alert scanner (C7): it discovers every
// threshold-bearing quantity a polled power device exposes, republishes
// threshold rule definitions to the external rule engine when they
// change, and republishes an alert event every cycle for every quantity
// that has a reported status.
package alertscan
