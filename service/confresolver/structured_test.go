// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"context"
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

type fakeCredentialFetcher struct {
	docs map[string]*credstore.Document
}

func (f *fakeCredentialFetcher) Get(ctx context.Context, id string) (*credstore.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, credstore.ErrNotFound
	}
	return doc, nil
}

func TestFromStructuredEndpointSNMPv3(t *testing.T) {
	asset := &catalog.Asset{
		Name: "epdu-1",
		IP:   "10.0.0.5",
		Endpoints: map[int]catalog.Endpoint{
			1: {Protocol: "nut_snmp", Port: "161", SecurityDocumentID: "doc-1"},
		},
	}
	creds := &fakeCredentialFetcher{docs: map[string]*credstore.Document{
		"doc-1": {
			ID:           "doc-1",
			Type:         credstore.DocumentSNMPv3,
			SecName:      "admin",
			SecLevel:     credstore.LevelAuthPriv,
			AuthProtocol: "SHA",
			AuthPassword: "authpass",
			PrivProtocol: "AES",
			PrivPassword: "privpass",
		},
	}}

	c, err := FromStructuredEndpoint(context.Background(), asset, creds)
	if err != nil {
		t.Fatalf("FromStructuredEndpoint: %v", err)
	}
	if c.Driver() != DriverSNMP || c.Port() != "10.0.0.5:161" {
		t.Fatalf("unexpected candidate: %+v", c.Values)
	}
	if c.Values["secName"] != "admin" || c.Values["secLevel"] != string(credstore.LevelAuthPriv) {
		t.Fatalf("credential not flattened: %+v", c.Values)
	}
	if len(c.CredentialDocIDs) != 1 || c.CredentialDocIDs[0] != "doc-1" {
		t.Fatalf("credential doc id not recorded: %+v", c.CredentialDocIDs)
	}
}

func TestFromStructuredEndpointNetXML(t *testing.T) {
	asset := &catalog.Asset{
		Name: "ups-1",
		IP:   "10.0.0.9",
		Endpoints: map[int]catalog.Endpoint{
			1: {Protocol: "nut_xml_pdc"},
		},
	}

	c, err := FromStructuredEndpoint(context.Background(), asset, &fakeCredentialFetcher{})
	if err != nil {
		t.Fatalf("FromStructuredEndpoint: %v", err)
	}
	if c.Driver() != DriverNetXML || c.Port() != "http://10.0.0.9" {
		t.Fatalf("unexpected candidate: %+v", c.Values)
	}
}

func TestFromStructuredEndpointNoEndpoint(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1"}
	if _, err := FromStructuredEndpoint(context.Background(), asset, &fakeCredentialFetcher{}); err != ErrNoCandidate {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}

func TestFromStructuredEndpointUnrecognizedProtocol(t *testing.T) {
	asset := &catalog.Asset{
		Name:      "ups-1",
		Endpoints: map[int]catalog.Endpoint{1: {Protocol: "unknown"}},
	}
	if _, err := FromStructuredEndpoint(context.Background(), asset, &fakeCredentialFetcher{}); err != ErrNoCandidate {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}
