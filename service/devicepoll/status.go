// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import (
	"strconv"
	"strings"
)

// StatusBit is one bit of the ups.status bitfield (§4.5, §8 scenario 1).
type StatusBit uint16

// Status bits, in the same bit order NUT's dummy-ups.h uses.
const (
	StatusCAL StatusBit = 1 << iota
	StatusTRIM
	StatusBOOST
	StatusOL
	StatusOB
	StatusOVER
	StatusLB
	StatusRB
	StatusBYPASS
	StatusOFF
	StatusCHRG
	StatusDISCHRG
	StatusHB
	StatusFSD
	StatusALARM
)

var statusTokens = map[string]StatusBit{
	"CAL":     StatusCAL,
	"TRIM":    StatusTRIM,
	"BOOST":   StatusBOOST,
	"OL":      StatusOL,
	"OB":      StatusOB,
	"OVER":    StatusOVER,
	"LB":      StatusLB,
	"RB":      StatusRB,
	"BYPASS":  StatusBYPASS,
	"OFF":     StatusOFF,
	"CHRG":    StatusCHRG,
	"DISCHRG": StatusDISCHRG,
	"HB":      StatusHB,
	"FSD":     StatusFSD,
	"ALARM":   StatusALARM,
}

// DecodeStatus turns a NUT `ups.status` token string and `ups.test.result`
// into the status bitfield (§4.5 step 6, §8 scenario 1). hasAlarm ORs in
// STATUS_ALARM when the device's alarm bitfield (DecodeAlarm) is non-zero.
func DecodeStatus(status, testResult string, hasAlarm bool) StatusBit {
	var bits StatusBit
	for _, tok := range strings.Fields(status) {
		if b, ok := statusTokens[strings.ToUpper(tok)]; ok {
			bits |= b
		}
	}
	if testResult == "in progress" {
		bits |= StatusCAL
	}

	// IPMVAL-1889: repair a status string missing both OL and OB.
	if bits&(StatusOL|StatusOB) == 0 {
		chrg := bits&StatusCHRG != 0
		dischrg := bits&StatusDISCHRG != 0
		switch {
		case chrg && !dischrg:
			bits |= StatusOL
		case !chrg && dischrg:
			bits |= StatusOB
		}
	}

	if hasAlarm {
		bits |= StatusALARM
	}
	return bits
}

// ShouldPublishStatus reports whether the status bitfield should be
// published at all (§4.5 step 6): not for an empty or "WAIT" status
// string, and never for epdu subtypes.
func ShouldPublishStatus(status string, isEPDU bool) bool {
	return status != "" && status != "WAIT" && !isEPDU
}

// Power status values (§4.5 step 7).
const (
	PowerStatusOnline    = "online"
	PowerStatusOnBattery = "onbattery"
	PowerStatusUndefined = "undefined"
)

// PowerStatus derives the coarse power status from a decoded status
// bitfield: OL only -> online, OB only -> onbattery, anything else
// (neither, or both) -> undefined.
func PowerStatus(bits StatusBit) string {
	ol := bits&StatusOL != 0
	ob := bits&StatusOB != 0
	switch {
	case ol && !ob:
		return PowerStatusOnline
	case ob && !ol:
		return PowerStatusOnBattery
	default:
		return PowerStatusUndefined
	}
}

// OutletStatus maps a NUT `status.outlet.<i>` string to its published
// bitfield value: 42 for "on", 0 otherwise (§4.5 step 8).
func OutletStatus(status string) int {
	if status == "on" {
		return 42
	}
	return 0
}

// unitForQuantity infers a metric's unit from the leading path component
// of its canonical quantity name (§4.5 step 3).
var quantityUnits = map[string]string{
	"temperature": "C",
	"realpower":   "W",
	"voltage":     "V",
	"current":     "A",
	"load":        "%",
	"charge":      "%",
	"frequency":   "Hz",
	"power":       "VA",
	"runtime":     "s",
	"timer":       "s",
	"delay":       "s",
}

func unitForQuantity(quantity string) string {
	head, _, _ := strings.Cut(quantity, ".")
	return quantityUnits[head]
}

// LoadDefault synthesizes the `load.default` metric for an ePDU that does
// not itself publish one (§4.5 step 4, §8 scenario 6). values is the set
// of already-mapped measurements for the device this poll cycle; maxCurrent
// is the asset's configured max_current, used only when the device does not
// report `current.input.nominal`. It returns ("", false) when no synthesis
// is possible.
func LoadDefault(values map[string]string, maxCurrent float64) (string, bool) {
	if v, ok := values["load.input.L1"]; ok {
		return v, true
	}

	raw, ok := values["current.input.L1"]
	if !ok {
		return "", false
	}
	current, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}

	max := maxCurrent
	if nominal, ok := values["current.input.nominal"]; ok {
		if v, err := strconv.ParseFloat(nominal, 64); err == nil {
			max = v
		}
	}
	if max == 0 {
		return "", false
	}

	return strconv.FormatFloat(current*100/max, 'f', -1, 64), true
}
