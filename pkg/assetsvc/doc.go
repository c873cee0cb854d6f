// SPDX-License-Identifier: BSD-3-Clause

// Package assetsvc doc.
//
// Client exposes ListBySubtype (ASSETS mailbox, startup catalog hydration),
// GetDetail (ASSET_DETAIL mailbox, decoded through catalog.FromEvent), and
// UpdateSubAddress (ASSET_MANIPULATION mailbox, sensor sub-address
// persistence). Every request carries a uuid correlation ID that the reply
// must echo; a mismatch is ErrMalformed.
package assetsvc
