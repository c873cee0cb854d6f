// SPDX-License-Identifier: BSD-3-Clause

package unitmgr

import "errors"

var (
	// ErrCommunication wraps a failure invoking the service manager
	// (binary missing, non-zero exit, context deadline).
	ErrCommunication = errors.New("unitmgr: communication error")
)
