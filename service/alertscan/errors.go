// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import "errors"

var (
	// ErrCommunication wraps a failure talking to the NUT daemon.
	ErrCommunication = errors.New("alertscan: communication failure")
	// ErrThresholdsIncomplete indicates a quantity's four thresholds could
	// not all be populated from the device (§4.6).
	ErrThresholdsIncomplete = errors.New("alertscan: thresholds not fully present")
	// ErrDaisyChainMasterNotFound indicates a follower's master could not
	// be resolved from the catalog's IP index.
	ErrDaisyChainMasterNotFound = errors.New("alertscan: daisychain master not found")
)
