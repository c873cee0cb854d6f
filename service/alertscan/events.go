// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import (
	"fmt"
	"time"
)

// AlertEvent is the event published whenever a tracked quantity's status
// is reported, good or bad (§4.6). It is republished every cycle for
// every alert with a non-empty status, not only on change, so downstream
// consumers can treat a missed heartbeat as staleness.
type AlertEvent struct {
	Rule        string    `json:"rule"`
	Asset       string    `json:"asset"`
	State       string    `json:"state"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	ChangedAt   time.Time `json:"changed_at"`
}

// severityFor maps a NUT threshold status word to (state, severity,
// description, unknown) per §4.6.
func severityFor(quantity, friendlyName, status string) (state, severity, description string, unknown bool) {
	switch status {
	case "good":
		return "RESOLVED", "ok", fmt.Sprintf("%s is resolved", quantity), false
	case "warning-low":
		return "ACTIVE", "WARNING", fmt.Sprintf("%s is low", quantity), false
	case "critical-low":
		return "ACTIVE", "CRITICAL", fmt.Sprintf("%s is critically low", quantity), false
	case "warning-high":
		return "ACTIVE", "WARNING", fmt.Sprintf("%s is high", quantity), false
	case "critical-high":
		return "ACTIVE", "CRITICAL", fmt.Sprintf("%s is critically high", quantity), false
	default:
		return "ACTIVE", "WARNING", fmt.Sprintf("%s has unknown status %q", quantity, status), true
	}
}

// BuildEvent renders the alert event for one device alert whose status is
// not empty, together with whether the status word was unrecognized (the
// caller logs that case, §4.6).
func BuildEvent(d *Device, a *DeviceAlert) (AlertEvent, bool) {
	state, severity, description, unknown := severityFor(a.Quantity, d.FriendlyName, a.Status)
	return AlertEvent{
		Rule:        a.Quantity + "@" + d.AssetName,
		Asset:       d.AssetName,
		State:       state,
		Severity:    severity,
		Description: description,
		ChangedAt:   a.ChangedAt,
	}, unknown
}
