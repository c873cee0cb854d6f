// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import "testing"

func candidateWithFingerprint(driver, port string) *Candidate {
	c := newCandidate()
	c.Values["driver"] = driver
	c.Values["port"] = port
	return c
}

// TestComputeUpdateScenario mirrors scenario 5 (§8): known {A, B} with
// fingerprints {f1, f2}; detected fingerprints {f1, f3}. Working = {A},
// non-working = {B}, new = detected with fingerprint f3.
func TestComputeUpdateScenario(t *testing.T) {
	a := candidateWithFingerprint(DriverSNMP, "10.0.0.1")
	a.DBID = "A"
	b := candidateWithFingerprint(DriverSNMP, "10.0.0.2")
	b.DBID = "B"

	detectedA := candidateWithFingerprint(DriverSNMP, "10.0.0.1")
	detectedNew := candidateWithFingerprint(DriverSNMP, "10.0.0.3")

	res := ComputeUpdate([]*Candidate{a, b}, []*Candidate{detectedA, detectedNew})

	if len(res.Working) != 1 || res.Working[0].DBID != "A" {
		t.Fatalf("unexpected working set: %+v", res.Working)
	}
	if len(res.NonWorking) != 1 || res.NonWorking[0].DBID != "B" {
		t.Fatalf("unexpected non-working set: %+v", res.NonWorking)
	}
	if len(res.New) != 1 || res.New[0].Port() != "10.0.0.3" {
		t.Fatalf("unexpected new set: %+v", res.New)
	}
	if len(res.UnknownState) != 0 {
		t.Fatalf("unexpected unknown-state set: %+v", res.UnknownState)
	}
}

func TestComputeUpdateUnrecognizedDriverIsUnknownState(t *testing.T) {
	known := candidateWithFingerprint("some-custom-driver", "10.0.0.1")

	res := ComputeUpdate([]*Candidate{known}, nil)

	if len(res.NonWorking) != 0 {
		t.Fatalf("unrecognized driver must never be non-working: %+v", res.NonWorking)
	}
	if len(res.UnknownState) != 1 {
		t.Fatalf("expected unrecognized driver classified unknown-state")
	}
}

func TestComputeFingerprintIncludesCredentialKeys(t *testing.T) {
	c := candidateWithFingerprint(DriverSNMP, "10.0.0.1")
	c.Values["community"] = "public"
	c.Values["desc"] = "cosmetic, must not affect fingerprint"

	fp := ComputeFingerprint(c)
	if fp["community"] != "public" {
		t.Fatalf("expected community in fingerprint: %+v", fp)
	}
	if _, ok := fp["desc"]; ok {
		t.Fatalf("desc must not be part of the fingerprint: %+v", fp)
	}
}
