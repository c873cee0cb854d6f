// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import "errors"

var (
	// ErrCommunication wraps a failure in the bus connection.
	ErrCommunication = errors.New("drivermgr: communication failure")
	// ErrMalformedRequest indicates an unparseable apply/forget request.
	ErrMalformedRequest = errors.New("drivermgr: malformed request")
	// ErrNoCandidate indicates an apply request with no candidate attached.
	ErrNoCandidate = errors.New("drivermgr: apply request carries no candidate")
	// ErrStoreWrite indicates the config file for an asset could not be written.
	ErrStoreWrite = errors.New("drivermgr: failed to write configuration file")
)
