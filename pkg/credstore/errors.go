// SPDX-License-Identifier: BSD-3-Clause

package credstore

import "errors"

var (
	// ErrCommunication wraps transport failures talking to the security
	// wallet (request timeout, connection not usable).
	ErrCommunication = errors.New("credstore: communication error")
	// ErrNotFound indicates the requested document ID does not exist.
	ErrNotFound = errors.New("credstore: document not found")
	// ErrMalformed indicates the wallet's reply did not parse.
	ErrMalformed = errors.New("credstore: malformed reply")
)
