// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import "testing"

func candidateWithDriver(driver string) *Candidate {
	c := newCandidate()
	c.Values["driver"] = driver
	return c
}

func TestRankDriverPreferenceEPDU(t *testing.T) {
	candidates := []*Candidate{
		candidateWithDriver(DriverNetXML),
		candidateWithDriver(DriverSNMP),
		candidateWithDriver(DriverSNMPDMF),
		candidateWithDriver(DriverDummyUPS),
	}

	Rank(candidates, CategoryEPDU)

	want := []string{DriverDummyUPS, DriverSNMP, DriverSNMPDMF, DriverNetXML}
	for i, w := range want {
		if candidates[i].Driver() != w {
			t.Fatalf("position %d: want %s, got %s", i, w, candidates[i].Driver())
		}
	}
}

func TestRankDriverPreferenceUPS(t *testing.T) {
	candidates := []*Candidate{
		candidateWithDriver(DriverSNMPDMF),
		candidateWithDriver(DriverSNMP),
		candidateWithDriver(DriverNetXML),
		candidateWithDriver(DriverDummyUPS),
	}

	Rank(candidates, CategoryUPS)

	want := []string{DriverDummyUPS, DriverNetXML, DriverSNMP, DriverSNMPDMF}
	for i, w := range want {
		if candidates[i].Driver() != w {
			t.Fatalf("position %d: want %s, got %s", i, w, candidates[i].Driver())
		}
	}
}

func TestRankSNMPv3OverV1(t *testing.T) {
	v1 := candidateWithDriver(DriverSNMP)
	v1.Values["community"] = "public"

	v3 := candidateWithDriver(DriverSNMP)
	v3.Values["snmp_version"] = "v3"
	v3.Values["secLevel"] = "authPriv"
	v3.Values["authProtocol"] = "MD5"
	v3.Values["privProtocol"] = "DES"

	candidates := []*Candidate{v1, v3}
	Rank(candidates, CategoryUPS)

	if candidates[0] != v3 {
		t.Fatalf("expected SNMPv3 candidate to rank first")
	}
}

func TestClassifyCandidateByMIB(t *testing.T) {
	c := candidateWithDriver(DriverSNMP)
	c.Values["mibs"] = "apc-pdu"
	if got := ClassifyCandidate(c); got != CategoryEPDU {
		t.Fatalf("expected CategoryEPDU, got %v", got)
	}
}

func TestClassifyCandidateByDesc(t *testing.T) {
	c := candidateWithDriver(DriverSNMP)
	c.Values["desc"] = "Generic ePDU device"
	if got := ClassifyCandidate(c); got != CategoryEPDU {
		t.Fatalf("expected CategoryEPDU, got %v", got)
	}
}

func TestPromoteSNMPOverNetXMLForEPDU(t *testing.T) {
	netxml := candidateWithDriver(DriverNetXML)
	snmp := candidateWithDriver(DriverSNMP)

	candidates := []*Candidate{netxml, snmp}
	promoteSNMPOverNetXML(candidates, CategoryEPDU)

	if candidates[0] != snmp {
		t.Fatalf("expected SNMP candidate promoted to front, got driver %s", candidates[0].Driver())
	}
}
