// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"sort"
	"strings"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

// DeviceCategory is the classification used to pick a driver preference
// order (§4.3 Scoring and ranking).
type DeviceCategory int

const (
	CategoryUPS DeviceCategory = iota
	CategoryEPDU
	CategoryATS
)

// epduMIBs and atsMIBs are the fixed MIB sets §4.3 refers to for candidates
// that never went through the asset-subtype path (pure scan results with
// no asset context). The NUT snmp-ups-subdrivers set of known ePDU/ATS MIB
// implementations; entries not relevant to this bridge's fleet are
// harmless false-negatives, not false-positives.
var epduMIBs = map[string]bool{
	"apc-pdu":     true,
	"eaton-pdu":   true,
	"raritan-pdu": true,
	"baytech":     true,
	"olitec":      true,
}

var atsMIBs = map[string]bool{
	"eaton-ats16": true,
	"apc-ats":     true,
}

// ClassifyAsset derives a device category from the asset's subtype, per
// §9's guidance to branch on subtype rather than on asset type. Subtypes
// epdu, sts, ats and pdu share the ePDU driver-preference order; ats gets
// its own category only where the ranking rules distinguish it from ePDU
// (they do not today, but the distinction is kept for clarity and for any
// future divergence).
func ClassifyAsset(a *catalog.Asset) DeviceCategory {
	switch a.Subtype {
	case "ats":
		return CategoryATS
	case "epdu", "sts", "pdu":
		return CategoryEPDU
	default:
		return CategoryUPS
	}
}

// ClassifyCandidate derives a device category from a bare candidate's
// `mibs`/`desc` keys (§4.3), used when no asset subtype is available (for
// example while ranking raw scan output before it is attached to an
// asset).
func ClassifyCandidate(c *Candidate) DeviceCategory {
	mibs := c.Values["mibs"]
	if atsMIBs[mibs] {
		return CategoryATS
	}
	if epduMIBs[mibs] || strings.Contains(strings.ToLower(c.Values["desc"]), "epdu") {
		return CategoryEPDU
	}
	return CategoryUPS
}

// driverPreference returns the ordered driver preference list for a
// device category (§4.3).
func driverPreference(cat DeviceCategory) []string {
	if cat == CategoryUPS {
		return []string{DriverDummyUPS, DriverNetXML, DriverSNMP, DriverSNMPDMF}
	}
	return []string{DriverDummyUPS, DriverSNMP, DriverSNMPDMF, DriverNetXML}
}

func driverRank(cat DeviceCategory, driver string) int {
	for i, d := range driverPreference(cat) {
		if d == driver {
			return i
		}
	}
	return len(driverPreference(cat))
}

var secLevelRank = map[string]int{
	"authPriv":     0,
	"authNoPriv":   1,
	"noAuthNoPriv": 2,
}

func mibPreferenceRank(mibs string) int {
	switch mibs {
	case "pw":
		return 0
	case "mge":
		return 1
	default:
		return 2
	}
}

// Rank orders candidates per §4.3's scoring rules: driver preference for
// the given category, then (for SNMP candidates) version, security level,
// MIB preference and community, then a lexicographic tie-break over the
// candidate's value map. It sorts in place and also returns the slice.
func Rank(candidates []*Candidate, cat DeviceCategory) []*Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		if ra, rb := driverRank(cat, a.Driver()), driverRank(cat, b.Driver()); ra != rb {
			return ra < rb
		}

		if a.Driver() == DriverSNMP || a.Driver() == DriverSNMPDMF {
			if c := compareSNMP(a, b); c != 0 {
				return c < 0
			}
		}

		return serializeCandidate(a) < serializeCandidate(b)
	})

	promoteSNMPOverNetXML(candidates, cat)
	return candidates
}

// compareSNMP orders two SNMP candidates by version (higher first), then
// SNMPv3 security level, then MIB preference, then community
// (non-"public" before "public"). It returns <0 if a ranks before b.
func compareSNMP(a, b *Candidate) int {
	versionRank := func(v string) int {
		switch v {
		case "v3":
			return 0
		case "v2c":
			return 1
		default:
			return 2
		}
	}
	va, vb := a.Values["snmp_version"], b.Values["snmp_version"]
	if ra, rb := versionRank(va), versionRank(vb); ra != rb {
		return ra - rb
	}

	if va == "v3" && vb == "v3" {
		la, lb := secLevelRank[a.Values["secLevel"]], secLevelRank[b.Values["secLevel"]]
		if la != lb {
			return la - lb
		}
	}

	if ma, mb := mibPreferenceRank(a.Values["mibs"]), mibPreferenceRank(b.Values["mibs"]); ma != mb {
		return ma - mb
	}

	ca, cb := a.Values["community"] == "public", b.Values["community"] == "public"
	if ca != cb {
		if ca {
			return 1
		}
		return -1
	}

	return 0
}

// promoteSNMPOverNetXML implements §4.3's final ranking rule: if the
// top-ranked candidate is NetXML but an SNMP candidate exists and the
// device is an ePDU or ATS, the SNMP candidate is moved to the front.
func promoteSNMPOverNetXML(candidates []*Candidate, cat DeviceCategory) {
	if cat == CategoryUPS || len(candidates) == 0 {
		return
	}
	if candidates[0].Driver() != DriverNetXML {
		return
	}
	for i, c := range candidates {
		if c.Driver() == DriverSNMP || c.Driver() == DriverSNMPDMF {
			if i > 0 {
				promoted := c
				copy(candidates[1:i+1], candidates[0:i])
				candidates[0] = promoted
			}
			return
		}
	}
}

// serializeCandidate renders a candidate's value map as sorted
// "key=value" pairs for the lexicographic tie-break (§4.3).
func serializeCandidate(c *Candidate) string {
	keys := make([]string, 0, len(c.Values))
	for k := range c.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.Values[k])
		b.WriteByte(';')
	}
	return b.String()
}
