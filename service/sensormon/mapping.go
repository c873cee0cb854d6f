// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// SensorMapping translates a raw NUT ambient variable name, with its
// `ambient.`/`device.<n>.ambient.<i>.` prefix already stripped, to the
// canonical sensor inventory field name it publishes under (§4.7).
type SensorMapping map[string]string

// DefaultSensorMapping covers the NUT ambient sensor inventory variables
// the monitor understands out of the box. A loaded mapping file extends or
// overrides these entries.
func DefaultSensorMapping() SensorMapping {
	return SensorMapping{
		"mfr":      "manufacturer",
		"model":    "model",
		"serial":   "serial",
		"firmware": "firmware",
		"type":     "type",
		"name":     "name",
	}
}

// LoadSensorMapping reads a TOML mapping file under the sensorInventoryMapping
// table and merges it on top of DefaultSensorMapping.
func LoadSensorMapping(path string) (SensorMapping, error) {
	m := DefaultSensorMapping()
	var file struct {
		SensorInventoryMapping map[string]string `toml:"sensorInventoryMapping"`
	}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMappingFile, err)
	}
	for k, v := range file.SensorInventoryMapping {
		m[k] = v
	}
	return m, nil
}
