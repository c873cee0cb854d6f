// SPDX-License-Identifier: BSD-3-Clause

package bridge

import "errors"

var (
	// ErrNameEmpty indicates that the bridge name cannot be empty.
	ErrNameEmpty = errors.New("bridge: name cannot be empty")
	// ErrIPCConnRequired indicates Run was called without an in-process
	// connection provider; unlike the teacher, the bridge never starts its
	// own embedded bus (that is service/ipc's job in cmd/nutbridged).
	ErrIPCConnRequired = errors.New("bridge: ipcConn is required")
	// ErrAddProcess indicates that adding a process to the supervision tree
	// failed.
	ErrAddProcess = errors.New("bridge: failed to add process to supervision tree")
	// ErrPanicked indicates that the bridge panicked during execution.
	ErrPanicked = errors.New("bridge: panicked")
	// ErrCommunication wraps a failure reaching a downstream NATS endpoint.
	ErrCommunication = errors.New("bridge: communication failure")
	// ErrMalformed indicates an unparseable inbound event.
	ErrMalformed = errors.New("bridge: malformed event")
)
