// SPDX-License-Identifier: BSD-3-Clause

package alertscan

import (
	"fmt"
	"strconv"
	"time"
)

// DeviceAlert is one tracked (asset, quantity) threshold record (§3).
type DeviceAlert struct {
	Quantity     string
	LowWarning   string
	HighWarning  string
	LowCritical  string
	HighCritical string
	Status       string
	ChangedAt    time.Time

	RulePublished bool
	RuleRescanned bool
}

// fixLimits repairs a half-specified threshold pair: an empty warning
// copies the critical value and vice versa (§4.6).
func fixLimits(a *DeviceAlert) {
	if a.LowWarning == "" && a.LowCritical != "" {
		a.LowWarning = a.LowCritical
	}
	if a.LowWarning != "" && a.LowCritical == "" {
		a.LowCritical = a.LowWarning
	}
	if a.HighWarning == "" && a.HighCritical != "" {
		a.HighWarning = a.HighCritical
	}
	if a.HighWarning != "" && a.HighCritical == "" {
		a.HighCritical = a.HighWarning
	}
}

// Device tracks the threshold alerts published by one power device.
type Device struct {
	AssetName    string
	FriendlyName string
	NUTName      string
	Chain        int

	Alerts map[string]*DeviceAlert
}

// NewDevice constructs a Device with an empty alert set.
func NewDevice(assetName, friendlyName, nutName string, chain int) *Device {
	return &Device{
		AssetName:    assetName,
		FriendlyName: friendlyName,
		NUTName:      nutName,
		Chain:        chain,
		Alerts:       make(map[string]*DeviceAlert),
	}
}

// daisychainPrefix is the NUT variable namespace prefix a daisy-chain
// follower's quantities are nested under.
func (d *Device) daisychainPrefix() string {
	if d.Chain <= 1 {
		return ""
	}
	return fmt.Sprintf("device.%d.", d.Chain)
}

// addAlert looks up quantity's thresholds in vars and records or updates
// its DeviceAlert entry. It is a no-op if the device does not expose
// `<quantity>.status` at all, and returns ErrThresholdsIncomplete (without
// recording anything) if the four thresholds cannot all be populated
// (§4.6).
func (d *Device) addAlert(quantity string, vars map[string][]string) error {
	prefix := d.daisychainPrefix() + quantity

	existing, hasExisting := d.Alerts[quantity]
	if hasExisting && existing.RuleRescanned {
		return nil
	}

	var alert DeviceAlert
	updating := false
	if hasExisting {
		alert = *existing
		updating = true
	} else {
		alert = DeviceAlert{Quantity: quantity}
	}

	if _, ok := vars[prefix+".status"]; !ok {
		return nil
	}

	if v, ok := vars[prefix+".high"]; ok {
		alert.HighWarning = firstValue(v)
		alert.HighCritical = firstValue(v)
	}
	if v, ok := vars[prefix+".low"]; ok {
		alert.LowWarning = firstValue(v)
		alert.LowCritical = firstValue(v)
	}
	if v, ok := vars[prefix+".high.warning"]; ok {
		alert.HighWarning = firstValue(v)
	}
	if v, ok := vars[prefix+".high.critical"]; ok {
		alert.HighCritical = firstValue(v)
	}
	if v, ok := vars[prefix+".low.warning"]; ok {
		alert.LowWarning = firstValue(v)
	}
	if v, ok := vars[prefix+".low.critical"]; ok {
		alert.LowCritical = firstValue(v)
	}

	fixLimits(&alert)
	if alert.LowWarning == "" || alert.LowCritical == "" || alert.HighWarning == "" || alert.HighCritical == "" {
		return fmt.Errorf("%w: %s@%s", ErrThresholdsIncomplete, quantity, d.AssetName)
	}

	alert.RuleRescanned = true
	if updating && alert.RulePublished {
		if alert.LowWarning != existing.LowWarning || alert.HighWarning != existing.HighWarning ||
			alert.LowCritical != existing.LowCritical || alert.HighCritical != existing.HighCritical {
			alert.RulePublished = false
		}
	}
	d.Alerts[quantity] = &alert
	return nil
}

// scanQuantities lists every quantity ScanCapabilities probes, in probe
// order (§4.6): ambient temperature/humidity (EMP002 indexed or legacy),
// input phase current/voltage, and outlet group current/voltage.
func (d *Device) scanQuantities(vars map[string][]string) []string {
	prefix := d.daisychainPrefix()
	var quantities []string

	if v, ok := vars[prefix+"ambient.count"]; ok {
		if count, err := strconv.Atoi(firstValue(v)); err == nil {
			for i := 1; i <= count; i++ {
				quantities = append(quantities,
					fmt.Sprintf("ambient.%d.temperature", i),
					fmt.Sprintf("ambient.%d.humidity", i))
			}
		}
	} else {
		quantities = append(quantities, "ambient.temperature", "ambient.humidity")
	}

	for phase := 1; phase <= 3; phase++ {
		quantities = append(quantities,
			fmt.Sprintf("input.L%d.current", phase),
			fmt.Sprintf("input.L%d.voltage", phase))
	}

	for group := 1; group <= 1000; group++ {
		current := fmt.Sprintf("outlet.group.%d.current", group)
		voltage := fmt.Sprintf("outlet.group.%d.voltage", group)
		_, hasCurrent := vars[prefix+current+".status"]
		_, hasVoltage := vars[prefix+voltage+".status"]
		if !hasCurrent && !hasVoltage {
			break
		}
		quantities = append(quantities, current, voltage)
	}

	return quantities
}

// ScanCapabilities rediscovers this device's threshold-bearing quantities.
// available reports whether vars was successfully fetched from NUT at
// all; when false (a communication failure), every tracked alert is
// dropped, mirroring the source's "a failed scan clears what it can no
// longer vouch for" behavior (§4.6).
func (d *Device) ScanCapabilities(vars map[string][]string, available bool, onReject func(error)) {
	for _, a := range d.Alerts {
		a.RuleRescanned = false
	}

	if available {
		for _, q := range d.scanQuantities(vars) {
			if _, ok := vars[d.daisychainPrefix()+q+".status"]; !ok {
				continue
			}
			if err := d.addAlert(q, vars); err != nil && onReject != nil {
				onReject(err)
			}
		}
	}

	for name, a := range d.Alerts {
		if !a.RuleRescanned {
			delete(d.Alerts, name)
		}
	}
}

// Update refreshes every tracked alert's observed status from vars,
// recording the transition time when it changes (§4.6).
func (d *Device) Update(vars map[string][]string, now time.Time) {
	prefix := d.daisychainPrefix()
	for _, a := range d.Alerts {
		v, ok := vars[prefix+a.Quantity+".status"]
		if !ok {
			continue
		}
		status := firstValue(v)
		if status != "" && status != a.Status {
			a.Status = status
			a.ChangedAt = now
		}
	}
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
