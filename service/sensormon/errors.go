// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import "errors"

var (
	// ErrCommunication wraps a failure talking to the NUT daemon.
	ErrCommunication = errors.New("sensormon: communication failure")
	// ErrMappingFile indicates the configured inventory mapping file could
	// not be loaded.
	ErrMappingFile = errors.New("sensormon: failed to load mapping file")
	// ErrDaisyChainMasterNotFound is logged when a sensor's power-device
	// parent rides a daisy chain whose master is missing from the catalog.
	ErrDaisyChainMasterNotFound = errors.New("sensormon: daisy-chain master not found")
)
