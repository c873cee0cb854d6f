// SPDX-License-Identifier: BSD-3-Clause

package nutclient

import "errors"

var (
	// ErrCommunication classifies every transport-level failure talking to
	// the NUT daemon: connect failure, write failure, unexpected EOF, or an
	// ERR reply frame. Callers decide whether to retry; the adapter never
	// reconnects on its own.
	ErrCommunication = errors.New("nut: communication error")
	// ErrNotConnected indicates a call was made before Dial succeeded.
	ErrNotConnected = errors.New("nut: not connected")
	// ErrMalformedReply indicates the daemon returned a reply that does not
	// match the expected protocol grammar for the request that was sent.
	ErrMalformedReply = errors.New("nut: malformed reply")
)
