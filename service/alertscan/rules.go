// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import (
	"strings"
	"unicode"
)

// RuleResult is one severity bucket's action/description template in a
// threshold rule descriptor.
type RuleResult struct {
	Action      []string `json:"action"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
}

// ThresholdRule is the JSON descriptor sent to the rule engine to
// announce or update an alert's thresholds (§4.6).
type ThresholdRule struct {
	RuleName      string `json:"rule_name"`
	RuleSource    string `json:"rule_source"`
	RuleHierarchy string `json:"rule_hierarchy"`
	RuleDesc      string `json:"rule_desc"`
	Target        string `json:"target"`
	Element       string `json:"element"`
	ValuesUnit    string `json:"values_unit"`

	Values  map[string]string     `json:"values"`
	Results map[string]RuleResult `json:"results"`
}

// RuleDescriptor wraps a ThresholdRule under the "threshold" envelope key
// the rule engine expects.
type RuleDescriptor struct {
	Threshold ThresholdRule `json:"threshold"`
}

// valuesUnit infers a rule's unit from its quantity name.
func valuesUnit(quantity string) string {
	switch {
	case strings.Contains(quantity, "power"):
		return "W"
	case strings.Contains(quantity, "voltage"):
		return "V"
	case strings.Contains(quantity, "current"):
		return "A"
	default:
		return ""
	}
}

// ruleDescription is a short human label for a quantity's physical kind.
func ruleDescription(quantity string) string {
	switch {
	case strings.Contains(quantity, "power"):
		return "Power"
	case strings.Contains(quantity, "voltage"):
		return "Voltage"
	case strings.Contains(quantity, "current"):
		return "Current"
	default:
		return quantity
	}
}

// humanizeQuantity turns a dotted quantity name into a capitalized label,
// e.g. "input.L3.voltage" -> "Input L3 voltage" (§4.6 rule descriptor).
func humanizeQuantity(quantity string) string {
	spaced := strings.ReplaceAll(quantity, ".", " ")
	if spaced == "" {
		return spaced
	}
	r := []rune(spaced)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// BuildRule renders the threshold descriptor for one device alert.
func BuildRule(d *Device, a *DeviceAlert) RuleDescriptor {
	ruleName := a.Quantity + "@" + d.AssetName
	label := humanizeQuantity(a.Quantity)

	action := []string{"EMAIL", "SMS"}
	return RuleDescriptor{Threshold: ThresholdRule{
		RuleName:      ruleName,
		RuleSource:    "NUT",
		RuleHierarchy: "internal.device",
		RuleDesc:      ruleDescription(a.Quantity),
		Target:        ruleName,
		Element:       d.AssetName,
		ValuesUnit:    valuesUnit(a.Quantity),
		Values: map[string]string{
			"low_warning":   a.LowWarning,
			"low_critical":  a.LowCritical,
			"high_warning":  a.HighWarning,
			"high_critical": a.HighCritical,
		},
		Results: map[string]RuleResult{
			"low_critical":  {Action: action, Severity: "CRITICAL", Description: label + " is critically low for " + d.FriendlyName + "."},
			"low_warning":   {Action: action, Severity: "WARNING", Description: label + " is low for " + d.FriendlyName + "."},
			"high_warning":  {Action: action, Severity: "WARNING", Description: label + " is high for " + d.FriendlyName + "."},
			"high_critical": {Action: action, Severity: "CRITICAL", Description: label + " is critically high for " + d.FriendlyName + "."},
		},
	}}
}
