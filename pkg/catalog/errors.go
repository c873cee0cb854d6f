// SPDX-License-Identifier: BSD-3-Clause

package catalog

import "errors"

var (
	// ErrMalformedEvent indicates an asset-stream event failed basic schema
	// checks (missing name, unparsable required field).
	ErrMalformedEvent = errors.New("malformed asset event")
	// ErrAssetNotFound indicates a lookup against a snapshot found nothing.
	ErrAssetNotFound = errors.New("asset not found in catalog")
)
