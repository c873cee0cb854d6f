// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import "github.com/u-bmc/nut-bridge/pkg/credstore"

// Recognized NUT UPS driver names (§4.3).
const (
	DriverDummyUPS  = "dummy-ups"
	DriverNetXML    = "netxml-ups"
	DriverSNMP      = "snmp-ups"
	DriverSNMPDMF   = "snmp-ups-dmf"
	DriverPowercomm = "etn-nut-powerconnect"
	DriverDummySNMP = "dummy-snmp"
)

// Candidate is a mapping from NUT configuration keys to values, together
// with its database identity and provenance (§3 Configuration Candidate).
type Candidate struct {
	Values map[string]string

	DBID             string
	TemplateName     string
	CredentialDocIDs []string
	KnownWorking     bool
	InUse            bool
}

// Driver returns the candidate's driver key, or "" if unset.
func (c *Candidate) Driver() string { return c.Values["driver"] }

// Port returns the candidate's port key, or "" if unset.
func (c *Candidate) Port() string { return c.Values["port"] }

func newCandidate() *Candidate {
	return &Candidate{Values: make(map[string]string)}
}

func (c *Candidate) clone() *Candidate {
	out := newCandidate()
	for k, v := range c.Values {
		out.Values[k] = v
	}
	out.DBID = c.DBID
	out.TemplateName = c.TemplateName
	out.CredentialDocIDs = append([]string(nil), c.CredentialDocIDs...)
	out.KnownWorking = c.KnownWorking
	out.InUse = c.InUse
	return out
}

// ConfigType is a device configuration template: a value map whose entries
// may contain ${asset.ext.<key>} / ${asset.aux.<key>} substitutions, the
// security-document types it accepts, and a display name (§3 Device
// Configuration Type).
type ConfigType struct {
	Name             string
	PrettyName       string
	Values           map[string]string
	AcceptedDocTypes map[credstore.DocumentType]bool
}
