// SPDX-License-Identifier: BSD-3-Clause

// Package sensormon implements the ambient sensor monitor (C8): it resolves
// each sensor asset to the NUT host, ambient index and daisy-chain prefix
// that locates it inside the variable namespace of its power-device
// parent, polls temperature, humidity and dry-contact state, and
// republishes sensor inventory on a longer cycle (§4.7).
package sensormon
