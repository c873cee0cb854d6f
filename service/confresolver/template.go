// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

// Instantiate substitutes ${asset.ext.<key>} and ${asset.aux.<key>}
// references in a template's value map against asset, producing a
// concrete Candidate (§3 Device Configuration Type). It fails with
// ErrMissingAttribute if a referenced attribute does not exist.
func Instantiate(t *ConfigType, asset *catalog.Asset) (*Candidate, error) {
	c := newCandidate()
	c.TemplateName = t.Name

	for k, raw := range t.Values {
		v, err := substitute(raw, asset)
		if err != nil {
			return nil, err
		}
		c.Values[k] = v
	}
	c.Values["name"] = asset.Name

	return c, nil
}

func substitute(raw string, asset *catalog.Asset) (string, error) {
	var b strings.Builder
	for {
		start := strings.Index(raw, "${asset.")
		if start < 0 {
			b.WriteString(raw)
			return b.String(), nil
		}
		end := strings.IndexByte(raw[start:], '}')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated substitution in %q", ErrMalformedVerbatim, raw)
		}
		end += start

		b.WriteString(raw[:start])
		ref := raw[start+len("${asset.") : end]
		val, err := resolveRef(ref, asset)
		if err != nil {
			return "", err
		}
		b.WriteString(val)

		raw = raw[end+1:]
	}
}

func resolveRef(ref string, asset *catalog.Asset) (string, error) {
	bag, key, ok := strings.Cut(ref, ".")
	if !ok {
		return "", fmt.Errorf("%w: malformed reference %q", ErrMissingAttribute, ref)
	}

	var source map[string]string
	switch bag {
	case "ext":
		source = asset.Ext
	case "aux":
		source = asset.Aux
	default:
		return "", fmt.Errorf("%w: unknown attribute bag %q", ErrMissingAttribute, bag)
	}

	v, ok := source[key]
	if !ok {
		return "", fmt.Errorf("%w: asset.%s.%s", ErrMissingAttribute, bag, key)
	}
	return v, nil
}

// acceptedDocTypes derives the security-document-type set a candidate was
// built from, for comparison against a template's AcceptedDocTypes during
// matching.
func acceptedDocTypes(c *Candidate) map[credstore.DocumentType]bool {
	out := map[credstore.DocumentType]bool{}
	if c.Values["community"] != "" && c.Values["snmp_version"] != "v3" {
		out[credstore.DocumentSNMPv1] = true
	}
	if c.Values["snmp_version"] == "v3" {
		out[credstore.DocumentSNMPv3] = true
	}
	return out
}

func sameDocTypeSet(a, b map[credstore.DocumentType]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// MatchTemplate implements §4.3's template match: a new candidate is
// attached to the first configuration type whose instantiation against
// asset yields an equal driver, equal port, and an equal accepted
// security-document-type set. It returns ErrNoTemplateMatch if none does.
func MatchTemplate(candidate *Candidate, asset *catalog.Asset, types []*ConfigType) (*Candidate, error) {
	wantDocs := acceptedDocTypes(candidate)

	for _, t := range types {
		instance, err := Instantiate(t, asset)
		if err != nil {
			continue
		}
		if instance.Driver() != candidate.Driver() || instance.Port() != candidate.Port() {
			continue
		}
		if !sameDocTypeSet(t.AcceptedDocTypes, wantDocs) {
			continue
		}

		matched := candidate.clone()
		matched.TemplateName = t.Name
		return matched, nil
	}

	return nil, ErrNoTemplateMatch
}

// Complete fills in the fields a chosen candidate needs before
// persistence (§4.3): name, and driver-specific polling/synchronization
// keys derived from the category and polling interval.
func Complete(c *Candidate, asset *catalog.Asset, cat DeviceCategory, polling int) {
	c.Values["name"] = asset.Name

	switch c.Driver() {
	case DriverSNMP, DriverSNMPDMF:
		if cat == CategoryEPDU || cat == CategoryATS {
			c.Values["synchronous"] = "yes"
		}
		c.Values["pollfreq"] = strconv.Itoa(polling)
	case DriverNetXML:
		c.Values["timeout"] = "15"
		c.Values["pollinterval"] = strconv.Itoa(polling)
	default:
		c.Values["pollinterval"] = strconv.Itoa(polling)
	}
}
