// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"testing"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

func TestInstantiateSubstitutesExtAndAux(t *testing.T) {
	asset := &catalog.Asset{
		Name: "ups-1",
		Ext:  map[string]string{"ip.1": "10.0.0.1"},
		Aux:  map[string]string{"subtype": "ups"},
	}
	tpl := &ConfigType{
		Name: "generic-netxml",
		Values: map[string]string{
			"driver": DriverNetXML,
			"port":   "http://${asset.ext.ip.1}",
			"desc":   "${asset.aux.subtype}",
		},
	}

	c, err := Instantiate(tpl, asset)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if c.Values["port"] != "http://10.0.0.1" {
		t.Fatalf("unexpected port: %q", c.Values["port"])
	}
	if c.Values["desc"] != "ups" {
		t.Fatalf("unexpected desc: %q", c.Values["desc"])
	}
}

func TestInstantiateMissingAttribute(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1", Ext: map[string]string{}}
	tpl := &ConfigType{Values: map[string]string{"port": "${asset.ext.ip.1}"}}

	if _, err := Instantiate(tpl, asset); err == nil {
		t.Fatalf("expected missing attribute error")
	}
}

func TestMatchTemplatePicksFirstEqualTemplate(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1", Ext: map[string]string{"ip.1": "10.0.0.1"}}
	candidate := candidateWithFingerprint(DriverNetXML, "http://10.0.0.1")

	types := []*ConfigType{
		{
			Name:             "snmp-template",
			Values:           map[string]string{"driver": DriverSNMP, "port": "${asset.ext.ip.1}"},
			AcceptedDocTypes: map[credstore.DocumentType]bool{},
		},
		{
			Name:             "netxml-template",
			Values:           map[string]string{"driver": DriverNetXML, "port": "http://${asset.ext.ip.1}"},
			AcceptedDocTypes: map[credstore.DocumentType]bool{},
		},
	}

	matched, err := MatchTemplate(candidate, asset, types)
	if err != nil {
		t.Fatalf("MatchTemplate: %v", err)
	}
	if matched.TemplateName != "netxml-template" {
		t.Fatalf("expected netxml-template match, got %q", matched.TemplateName)
	}
}

func TestMatchTemplateNoMatch(t *testing.T) {
	asset := &catalog.Asset{Name: "ups-1", Ext: map[string]string{"ip.1": "10.0.0.1"}}
	candidate := candidateWithFingerprint(DriverSNMPDMF, "10.0.0.1")

	types := []*ConfigType{
		{Values: map[string]string{"driver": DriverSNMP, "port": "${asset.ext.ip.1}"}},
	}

	if _, err := MatchTemplate(candidate, asset, types); err != ErrNoTemplateMatch {
		t.Fatalf("expected ErrNoTemplateMatch, got %v", err)
	}
}

func TestCompleteSetsDriverSpecificKeys(t *testing.T) {
	asset := &catalog.Asset{Name: "epdu-1"}

	snmp := candidateWithFingerprint(DriverSNMP, "10.0.0.1")
	Complete(snmp, asset, CategoryEPDU, 30)
	if snmp.Values["synchronous"] != "yes" || snmp.Values["pollfreq"] != "30" {
		t.Fatalf("unexpected SNMP+ePDU completion: %+v", snmp.Values)
	}

	netxml := candidateWithFingerprint(DriverNetXML, "http://10.0.0.1")
	Complete(netxml, asset, CategoryUPS, 30)
	if netxml.Values["timeout"] != "15" || netxml.Values["pollinterval"] != "30" {
		t.Fatalf("unexpected NetXML completion: %+v", netxml.Values)
	}
}
