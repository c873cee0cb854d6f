// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import "errors"

var (
	// ErrCommunication wraps a failure talking to the NUT daemon.
	ErrCommunication = errors.New("devicepoll: communication failure")
	// ErrMappingFile indicates the configured mapping file could not be loaded.
	ErrMappingFile = errors.New("devicepoll: failed to load mapping file")
)
