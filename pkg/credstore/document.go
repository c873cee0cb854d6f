// SPDX-License-Identifier: BSD-3-Clause

package credstore

// DocumentType classifies a security document as accepted by a
// configuration-type template (§3 Device Configuration Type).
type DocumentType string

const (
	DocumentSNMPv1 DocumentType = "Snmpv1"
	DocumentSNMPv3 DocumentType = "Snmpv3"
)

// SNMPv3Level is the authentication/privacy posture of an SNMPv3 document,
// ordered least to most secure for ranking purposes (§4.3).
type SNMPv3Level string

const (
	LevelNoAuthNoPriv SNMPv3Level = "noAuthNoPriv"
	LevelAuthNoPriv   SNMPv3Level = "authNoPriv"
	LevelAuthPriv     SNMPv3Level = "authPriv"
)

// Document is one credential-store entry. Only the fields a driver
// configuration can consume are modeled; the store may carry more.
type Document struct {
	ID   string
	Type DocumentType

	// SNMPv1
	Community string

	// SNMPv3
	SecName      string
	SecLevel     SNMPv3Level
	AuthProtocol string
	AuthPassword string
	PrivProtocol string
	PrivPassword string
}
