// SPDX-License-Identifier: BSD-3-Clause

package cmdtracker

import "errors"

var (
	// ErrCommunication wraps a failure in the bus connection or the NUT
	// session; the latter is fatal to this service (§4.8).
	ErrCommunication = errors.New("cmdtracker: communication failure")
	// ErrMalformedRequest indicates an unparseable submit request.
	ErrMalformedRequest = errors.New("cmdtracker: malformed request")
	// ErrNoCommands indicates a submit request with an empty command list.
	ErrNoCommands = errors.New("cmdtracker: submit request carries no commands")
)
