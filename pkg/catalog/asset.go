// SPDX-License-Identifier: BSD-3-Clause

// Package catalog holds the immutable asset catalog (C1) and its
// single-writer/many-reader snapshot publication (C2).
package catalog

// Subtype classifies a power device or sensor asset.
type Subtype string

const (
	SubtypeUPS        Subtype = "ups"
	SubtypeEPDU       Subtype = "epdu"
	SubtypeSTS        Subtype = "sts"
	SubtypeATS        Subtype = "ats"
	SubtypeSensor     Subtype = "sensor"
	SubtypeSensorGPIO Subtype = "sensorgpio"
)

// IsPowerDevice reports whether the subtype belongs in the power-device set
// rather than the sensor set.
func (s Subtype) IsPowerDevice() bool {
	switch s {
	case SubtypeUPS, SubtypeEPDU, SubtypeSTS, SubtypeATS:
		return true
	default:
		return false
	}
}

// VerbatimBlock is a user-supplied, already-serialized NUT configuration
// section for an asset, together with the line-separator character the
// operator chose when entering it.
type VerbatimBlock struct {
	Separator byte
	Payload   string
}

// Endpoint describes one `endpoint.<n>.*` attribute group carried by an
// asset: the acquisition protocol to use, an optional network port, the
// referenced credential-store document, and (for EMP002 sensors) the modbus
// sub-address.
type Endpoint struct {
	Protocol           string
	Port               string
	SecurityDocumentID string
	SubAddress         string
}

// Asset is an immutable record constructed from an asset event. Once
// constructed it is never mutated; it is shared by reference among
// concurrent snapshots.
type Asset struct {
	Name         string
	FriendlyName string
	Serial       string
	IP           string
	Port         int
	HasPort      bool
	Subtype      Subtype
	ParentName   string

	Verbatim *VerbatimBlock

	PreferDMF  bool
	MaxCurrent float64
	MaxPower   float64

	// DaisyChain is 0 (no chain), 1 (master), or >=2 (follower index).
	DaisyChain int

	// Endpoints is keyed by the endpoint index (the <n> in endpoint.<n>.*).
	Endpoints map[int]Endpoint

	// Ext and Aux are the raw extended/auxiliary attribute bags from the
	// originating event, kept verbatim for ${asset.ext.<key>} and
	// ${asset.aux.<key>} template substitution (§3 Device Configuration
	// Type).
	Ext map[string]string
	Aux map[string]string
}

// IsDaisyChainMaster reports whether this asset registers itself in the
// ip-to-master index (chain 0 or 1).
func (a *Asset) IsDaisyChainMaster() bool {
	return a.DaisyChain <= 1
}

// IsDaisyChainFollower reports whether this asset rides another asset's NUT
// daemon on a shared IP.
func (a *Asset) IsDaisyChainFollower() bool {
	return a.DaisyChain >= 2
}
