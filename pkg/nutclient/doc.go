// SPDX-License-Identifier: BSD-3-Clause

// Package nutclient is the sole collaborator that speaks the upsd line
// protocol. It exposes five verbs: ListDevices, GetVariable,
// GetAllVariables, SendInstantCommand and PollTracking. Every verb fails
// with an error wrapping ErrCommunication when the TCP session drops or
// the daemon answers with an ERR frame; this package never reconnects on
// its own, leaving retry policy to the polling engine, alert scanner,
// sensor poller and command tracker that own a Client.
package nutclient
