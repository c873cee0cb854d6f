// SPDX-License-Identifier: BSD-3-Clause

package assetsvc

import "errors"

var (
	// ErrCommunication wraps transport failures talking to the asset
	// inventory service (timeout, no responders).
	ErrCommunication = errors.New("assetsvc: communication error")
	// ErrNotFound indicates the requested asset name does not exist.
	ErrNotFound = errors.New("assetsvc: asset not found")
	// ErrMalformed indicates a reply failed to parse, or its correlation ID
	// did not match the outstanding request.
	ErrMalformed = errors.New("assetsvc: malformed reply")
)
