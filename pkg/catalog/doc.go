// SPDX-License-Identifier: BSD-3-Clause

// Package catalog implements the asset catalog (power devices and sensors
// discovered from the asset inventory) and its snapshot publication.
//
// A Manager owns exactly one Writer, which mutates an uncommitted
// AssetCatalog and publishes it with Commit, and any number of Readers,
// which advance to the latest published snapshot with Refresh and observe
// a stable view via State in between. Published snapshots are immutable:
// once committed, an AssetCatalog and the Assets it references are never
// mutated again, only superseded.
package catalog
