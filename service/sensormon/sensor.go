// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"fmt"
	"strings"
)

// ChildrenMap associates an EMP001 GPI port number (as a decimal string)
// with the asset name of the dry-contact sensor wired to it.
type ChildrenMap map[string]string

// Sensor is one resolved ambient sensor (§4.7): the NUT host and ambient
// index that locate it inside the variable namespace of its power-device
// parent, together with the last values it read.
type Sensor struct {
	AssetName    string
	FriendlyName string
	Model        string
	Location     string // parent asset's name
	Port         string // sensor's own physical port, "0" when unset
	SubAddress   string // endpoint.1.sub_address, modbus address for EMP002
	Chain        int    // parent power device's daisychain value
	NUTMaster    string // host whose NUT session carries this sensor's variables
	Index        int    // resolved ambient index; 0 for EMP001/standalone sensors

	Children ChildrenMap

	Temperature string
	Humidity    string
	Contacts    []string
	Inventory   map[string]string
}

// NewSensor constructs a Sensor already resolved to its NUT host and
// ambient index (the output of resolveSensors, §4.7).
func NewSensor(assetName, friendlyName, model, location, port, subAddress string, chain int, nutMaster string, index int, children ChildrenMap) *Sensor {
	if children == nil {
		children = make(ChildrenMap)
	}
	return &Sensor{
		AssetName:    assetName,
		FriendlyName: friendlyName,
		Model:        model,
		Location:     location,
		Port:         port,
		SubAddress:   subAddress,
		Chain:        chain,
		NUTMaster:    nutMaster,
		Index:        index,
		Children:     children,
	}
}

// AddChild registers the EMP001 dry-contact sensor wired to the given GPI
// port on this sensor.
func (s *Sensor) AddChild(port, childName string) {
	if s.Children == nil {
		s.Children = make(ChildrenMap)
	}
	s.Children[port] = childName
}

// TopicSuffix is the `.<index>@<location>` suffix used on temperature and
// humidity topics.
func (s *Sensor) TopicSuffix() string {
	return fmt.Sprintf(".%d@%s", s.Index, s.Location)
}

// TopicSuffixExternal is the `.GPI<port>.<index>@<location>` suffix used
// when republishing an EMP001 dry-contact child's status under its own
// GPI port.
func (s *Sensor) TopicSuffixExternal(gpiPort string) string {
	return fmt.Sprintf(".GPI%s.%d@%s", gpiPort, s.Index, s.Location)
}

// SensorPrefix is the variable prefix this sensor is reported under,
// expressed in terms of its own daisy-chain position (§4.7, §8 scenario
// 4). It differs from NUTPrefix in that an EMP002 sensor on a follower
// chain still names its own chain here, even though NUTPrefix must query
// through the chain's master.
func (s *Sensor) SensorPrefix() string {
	var prefix string
	if s.Chain != 0 {
		prefix = fmt.Sprintf("device.%d.", s.Chain)
	}
	prefix += "ambient."
	if s.Port != "" && s.Port != "0" {
		prefix += s.Port + "."
	}
	return prefix
}

// NUTPrefix is the variable prefix used to query NUT itself. For an
// EMP002 sensor (non-zero index) on a daisy-chain follower, the query
// always goes through the chain's master (device.1.), because upsd only
// ever exposes the ambient.<index>.* block on the master's device record.
func (s *Sensor) NUTPrefix() string {
	var prefix string
	if s.Chain != 0 {
		if s.Index == 0 {
			prefix = fmt.Sprintf("device.%d.", s.Chain)
		} else {
			prefix = "device.1."
		}
	}
	prefix += "ambient."
	if s.Index != 0 {
		prefix += fmt.Sprintf("%d.", s.Index)
	}
	return prefix
}

// NUTIndex is the value passed into sensor inventory mapping, falling back
// to the daisy-chain number when this is an EMP001 sensor on a follower.
func (s *Sensor) NUTIndex() int {
	if s.Index != 0 {
		return s.Index
	}
	if s.Chain != 0 {
		return s.Chain
	}
	return 0
}

// Update refreshes inventory, temperature, humidity and contact state from
// a freshly fetched set of raw variables for NUTMaster (§4.7). Inventory
// is always recomputed; temperature, humidity and contacts are left
// untouched for a cycle in which the sensor reports itself absent
// (ambient.<n>.present != "yes"), matching the source's "skip, don't
// clear" treatment of a momentarily disconnected sensor.
func (s *Sensor) Update(raw map[string][]string, mapping SensorMapping) {
	prefix := s.NUTPrefix()
	s.Inventory = s.translateInventory(raw, prefix, mapping)

	if present, ok := raw[prefix+"present"]; ok && firstValue(present) != "yes" {
		return
	}

	if temp, ok := raw[prefix+"temperature"]; ok {
		s.Temperature = firstValue(temp)
	}
	if hum, ok := raw[prefix+"humidity"]; ok {
		s.Humidity = firstValue(hum)
	}

	var contacts []string
	for i := 1; i <= 2; i++ {
		base := fmt.Sprintf("%scontacts.%d", prefix, i)
		statusVals, ok := raw[base+".status"]
		if !ok {
			continue
		}
		state := firstValue(statusVals)
		if state == "unknown" || state == "bad" {
			continue
		}
		switch state {
		case "active", "inactive":
			config := firstValue(raw[base+".config"])
			if config == "" {
				continue
			}
			if config == "normal-opened" {
				if state == "active" {
					state = "closed"
				} else {
					state = "opened"
				}
			} else {
				if state == "active" {
					state = "opened"
				} else {
					state = "closed"
				}
			}
		case "open":
			state = "opened"
		}
		contacts = append(contacts, state)
	}
	s.Contacts = contacts
}

// translateInventory maps every raw variable under prefix through mapping,
// then applies asset precedence: the catalog's friendly name and model
// always win over whatever the device itself reports (§4.7).
func (s *Sensor) translateInventory(raw map[string][]string, prefix string, mapping SensorMapping) map[string]string {
	inv := make(map[string]string)
	for key, vals := range raw {
		suffix, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		canonical, ok := mapping[suffix]
		if !ok {
			continue
		}
		inv[canonical] = firstValue(vals)
	}
	if _, ok := inv["name"]; ok && s.FriendlyName != "" {
		inv["name"] = s.FriendlyName
	}
	if _, ok := inv["model"]; ok && s.Model != "" {
		inv["model"] = s.Model
	}
	return inv
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
