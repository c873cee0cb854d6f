// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import "strings"

// AlarmBit is one bit of the `ups.alarm` bitfield (§4.5 step 5).
type AlarmBit uint32

// Alarm bits, one per commonly published NUT ups.alarm phrase. AlarmOther
// catches any text that does not match a known phrase, so that a non-empty
// alarm string always yields a non-zero bitfield.
const (
	AlarmReplaceBattery AlarmBit = 1 << iota
	AlarmShutdownImminent
	AlarmFanFailure
	AlarmNoBatteries
	AlarmBatteryVoltageLow
	AlarmBatteryVoltageHigh
	AlarmOverheat
	AlarmOverload
	AlarmInternalFailure
	AlarmAwaitingPower
	AlarmBypassAutomatic
	AlarmBypassManual
	AlarmOther
)

var alarmPhrases = map[string]AlarmBit{
	"replace battery!":          AlarmReplaceBattery,
	"shutdown imminent!":        AlarmShutdownImminent,
	"fan failure!":              AlarmFanFailure,
	"no batteries installed!":   AlarmNoBatteries,
	"battery voltage too low!":  AlarmBatteryVoltageLow,
	"battery voltage too high!": AlarmBatteryVoltageHigh,
	"temperature too high!":     AlarmOverheat,
	"ups overloaded!":           AlarmOverload,
	"internal failure!":         AlarmInternalFailure,
	"awaiting power!":           AlarmAwaitingPower,
	"automatic bypass mode!":    AlarmBypassAutomatic,
	"manual bypass mode!":       AlarmBypassManual,
}

// DecodeAlarm maps a `ups.alarm` text (NUT joins multiple conditions with
// "..") to a bitfield. has reports whether any bit at all was set, which is
// what gates whether STATUS_ALARM gets OR'd into the status bitfield
// (§4.5 step 6).
func DecodeAlarm(alarm string) (bits AlarmBit, has bool) {
	alarm = strings.TrimSpace(alarm)
	if alarm == "" {
		return 0, false
	}
	for _, part := range strings.Split(alarm, "..") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if b, ok := alarmPhrases[part]; ok {
			bits |= b
		} else {
			bits |= AlarmOther
		}
	}
	return bits, bits != 0
}
