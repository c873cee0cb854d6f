// SPDX-License-Identifier: BSD-3-Clause

package confresolver

// recognizedDrivers is the driver set compute_update classifies as
// working/non-working; anything else is unknown-state and never marked
// non-working (§4.3 Fingerprinting).
var recognizedDrivers = map[string]bool{
	DriverSNMP:      true,
	DriverSNMPDMF:   true,
	DriverNetXML:    true,
	DriverDummySNMP: true,
}

// credentialFingerprintKeys lists the driver-specific keys that
// distinguish one credential binding from another for a given driver,
// beyond the shared {driver, port} pair.
var credentialFingerprintKeys = map[string][]string{
	DriverSNMP:      {"snmp_version", "community", "secName", "secLevel", "authProtocol", "privProtocol"},
	DriverSNMPDMF:   {"snmp_version", "community", "secName", "secLevel", "authProtocol", "privProtocol"},
	DriverDummySNMP: {"snmp_version", "community", "secName", "secLevel", "authProtocol", "privProtocol"},
}

// Fingerprint reduces a candidate to {driver, port} plus its
// driver-specific credential keys (§4.3). Two candidates with equal
// fingerprints are equivalent regardless of cosmetic fields like `desc`.
type Fingerprint map[string]string

// ComputeFingerprint builds c's fingerprint.
func ComputeFingerprint(c *Candidate) Fingerprint {
	fp := Fingerprint{
		"driver": c.Driver(),
		"port":   c.Port(),
	}
	for _, k := range credentialFingerprintKeys[c.Driver()] {
		if v, ok := c.Values[k]; ok && v != "" {
			fp[k] = v
		}
	}
	return fp
}

// subsetMatches reports whether every key in fp is present with an equal
// value in other; fp's key set need not equal other's.
func (fp Fingerprint) subsetMatches(other Fingerprint) bool {
	for k, v := range fp {
		if other[k] != v {
			return false
		}
	}
	return true
}

// UpdateResult is the outcome of compute_update (§4.3): the known
// candidates partitioned by working/non-working/unknown-state, plus the
// detected candidates not matched to anything known.
type UpdateResult struct {
	Working      []*Candidate
	NonWorking   []*Candidate
	UnknownState []*Candidate
	New          []*Candidate
}

// ComputeUpdate implements compute_update (§4.3 / scenario 5): each known
// candidate whose driver is recognized is working if its fingerprint
// subset-matches any detected candidate's fingerprint, else non-working;
// unrecognized drivers are always unknown-state. Detected candidates
// matched by no known candidate are new.
func ComputeUpdate(known, detected []*Candidate) UpdateResult {
	detectedFPs := make([]Fingerprint, len(detected))
	for i, d := range detected {
		detectedFPs[i] = ComputeFingerprint(d)
	}
	matchedDetected := make([]bool, len(detected))

	var res UpdateResult
	for _, k := range known {
		kfp := ComputeFingerprint(k)

		matched := false
		for i, dfp := range detectedFPs {
			if kfp.subsetMatches(dfp) {
				matched = true
				matchedDetected[i] = true
			}
		}

		if !recognizedDrivers[k.Driver()] {
			res.UnknownState = append(res.UnknownState, k)
			continue
		}
		if matched {
			res.Working = append(res.Working, k)
		} else {
			res.NonWorking = append(res.NonWorking, k)
		}
	}

	for i, d := range detected {
		if !matchedDetected[i] {
			res.New = append(res.New, d)
		}
	}

	return res
}
