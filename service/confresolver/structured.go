// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"context"
	"fmt"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

// protocol values accepted on endpoint.1 for the structured acquisition
// path (§4.3 path 2).
const (
	protocolSNMP     = "nut_snmp"
	protocolPowercom = "nut_powercom"
	protocolXMLPDC   = "nut_xml_pdc"
)

var structuredDriverByProtocol = map[string]string{
	protocolSNMP:     DriverSNMP,
	protocolPowercom: DriverPowercomm,
	protocolXMLPDC:   DriverNetXML,
}

// CredentialFetcher resolves a credential-store document ID to its
// document (pkg/credstore.Client satisfies this).
type CredentialFetcher interface {
	Get(ctx context.Context, id string) (*credstore.Document, error)
}

// FromStructuredEndpoint builds a Candidate from the asset's endpoint.1
// attributes (§4.3 acquisition path 2). It returns ErrNoCandidate if the
// asset carries no endpoint.1 or an unrecognized protocol.
func FromStructuredEndpoint(ctx context.Context, asset *catalog.Asset, creds CredentialFetcher) (*Candidate, error) {
	ep, ok := asset.Endpoints[1]
	if !ok || ep.Protocol == "" {
		return nil, ErrNoCandidate
	}

	driver, ok := structuredDriverByProtocol[ep.Protocol]
	if !ok {
		return nil, ErrNoCandidate
	}

	c := newCandidate()
	c.Values["driver"] = driver
	c.Values["name"] = asset.Name

	switch ep.Protocol {
	case protocolXMLPDC:
		port := "http://" + asset.IP
		if ep.Port != "" {
			port = fmt.Sprintf("http://%s:%s", asset.IP, ep.Port)
		}
		c.Values["port"] = port
	default:
		port := asset.IP
		if ep.Port != "" {
			port = fmt.Sprintf("%s:%s", asset.IP, ep.Port)
		}
		c.Values["port"] = port
	}

	if ep.SecurityDocumentID != "" {
		doc, err := creds.Get(ctx, ep.SecurityDocumentID)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve credential %s: %w", ErrCommunication, ep.SecurityDocumentID, err)
		}
		flattenCredential(c, doc)
		c.CredentialDocIDs = append(c.CredentialDocIDs, doc.ID)
	}

	return c, nil
}

// flattenCredential copies a credential-store document's fields into a
// candidate's driver key namespace.
func flattenCredential(c *Candidate, doc *credstore.Document) {
	switch doc.Type {
	case credstore.DocumentSNMPv1:
		if doc.Community != "" {
			c.Values["community"] = doc.Community
		}
	case credstore.DocumentSNMPv3:
		c.Values["snmp_version"] = "v3"
		if doc.SecName != "" {
			c.Values["secName"] = doc.SecName
		}
		if doc.SecLevel != "" {
			c.Values["secLevel"] = string(doc.SecLevel)
		}
		if doc.AuthProtocol != "" {
			c.Values["authProtocol"] = doc.AuthProtocol
			c.Values["authPassword"] = doc.AuthPassword
		}
		if doc.PrivProtocol != "" {
			c.Values["privProtocol"] = doc.PrivProtocol
			c.Values["privPassword"] = doc.PrivPassword
		}
	}
}
