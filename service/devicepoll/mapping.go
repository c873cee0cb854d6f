// SPDX-License-Identifier: BSD-3-Clause

package devicepoll

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Mapping translates raw NUT variable names to the canonical metric names
// devicepoll publishes (§4.5 step 2). It is loaded once, when Run starts
// (from the WithMappingPath file, else DefaultMapping), and never mutated
// afterwards; concurrent
// reads from the polling loop are therefore safe without locking.
type Mapping struct {
	Physics   map[string]string `toml:"physics"`
	Inventory map[string]string `toml:"inventory"`
}

// DefaultMapping returns the built-in physics/inventory mapping covering
// the NUT variables §4.5 names explicitly. A loaded mapping file extends
// or overrides these entries.
func DefaultMapping() *Mapping {
	return &Mapping{
		Physics: map[string]string{
			"ups.load":              "load.default",
			"ups.realpower":         "realpower.default",
			"input.L1.current":      "current.input.L1",
			"input.L2.current":      "current.input.L2",
			"input.L3.current":      "current.input.L3",
			"input.L1.voltage":      "voltage.input.L1",
			"input.L2.voltage":      "voltage.input.L2",
			"input.L3.voltage":      "voltage.input.L3",
			"input.current.nominal": "current.input.nominal",
			"battery.charge":        "charge.battery",
			"battery.runtime":       "runtime.battery",
			"input.frequency":       "frequency.input",
			"ups.temperature":       "temperature.default",
			"ups.delay.shutdown":    "delay.shutdown",
			"ups.delay.start":       "delay.start",
		},
		Inventory: map[string]string{
			"ups.mfr":        "manufacturer",
			"ups.model":      "model",
			"ups.serial":     "serial",
			"ups.firmware":   "firmware",
			"device.mfr":     "manufacturer",
			"device.model":   "model",
			"device.serial":  "serial",
			"device.type":    "type",
		},
	}
}

// LoadMapping reads a TOML mapping file (the path set with
// WithMappingPath) and merges it on top of DefaultMapping.
func LoadMapping(path string) (*Mapping, error) {
	m := DefaultMapping()
	var file Mapping
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMappingFile, err)
	}
	for k, v := range file.Physics {
		m.Physics[k] = v
	}
	for k, v := range file.Inventory {
		m.Inventory[k] = v
	}
	return m, nil
}

// Canonical translates a raw NUT variable name to its canonical metric
// name, or returns ok=false if the mapping carries no entry for it (the
// variable is not published).
func (m *Mapping) Canonical(nutVar string) (string, bool) {
	v, ok := m.Physics[nutVar]
	return v, ok
}

// InventoryName translates a raw NUT inventory variable name to its
// canonical inventory field name, passing it through unchanged when no
// mapping entry exists.
func (m *Mapping) InventoryName(nutVar string) string {
	if v, ok := m.Inventory[nutVar]; ok {
		return v
	}
	return nutVar
}
