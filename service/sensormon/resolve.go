// SPDX-License-Identifier: BSD-3-Clause

package sensormon

import (
	"context"
	"fmt"
	"strconv"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

// queryFunc fetches one raw NUT variable for a device, the shape of
// pkg/nutclient.Client.GetVariable. resolveSensors uses it to look up
// ambient.count / ambient.<n>.address / ambient.<port>.parent.serial while
// resolving EMP002 indices (§4.7).
type queryFunc func(ctx context.Context, host, name string) ([]string, error)

// resolveSensors rebuilds the sensor set from the current catalog
// snapshot, resolving each sensor asset's NUT host, ambient index and
// daisy-chain prefix (§4.7). It returns the new set together with
// whether any lookup failed communicating with NUT — a true value asks
// the caller to retry the rebuild on the next cycle rather than trust a
// partially-resolved set (mirrors Sensors::_sensorListError).
func resolveSensors(ctx context.Context, cat *catalog.AssetCatalog, get queryFunc, onReject func(error)) (map[string]*Sensor, bool) {
	reject := func(err error) {
		if onReject != nil {
			onReject(err)
		}
	}

	children := make(map[string]ChildrenMap)
	cat.RangeSensors(func(a *catalog.Asset) bool {
		if a.ParentName == "" {
			return true
		}
		if _, ok := cat.PowerDevice(a.ParentName); ok {
			return true
		}
		if _, ok := cat.Sensor(a.ParentName); ok {
			if !a.HasPort {
				return true
			}
			port := strconv.Itoa(a.Port)
			c, ok := children[a.ParentName]
			if !ok {
				c = make(ChildrenMap)
				children[a.ParentName] = c
			}
			c[port] = a.Name
		}
		return true
	})

	sensors := make(map[string]*Sensor)
	errored := false

	cat.RangeSensors(func(a *catalog.Asset) bool {
		if a.ParentName == "" {
			return true
		}
		parent, ok := cat.PowerDevice(a.ParentName)
		if !ok {
			// Either a GPI child of another sensor (handled above) or an
			// asset whose location is unknown/not monitored.
			return true
		}

		port := sensorPortString(a)
		kids := children[a.Name]
		chain := parent.DaisyChain

		if port == "0" {
			if chain == 0 {
				sensors[a.Name] = NewSensor(a.Name, a.FriendlyName, "", a.ParentName, port, subAddressOf(a), chain, a.ParentName, 0, kids)
			} else {
				master := cat.IPToMaster(parent.IP)
				if master == "" {
					reject(fmt.Errorf("%w: %s", ErrDaisyChainMasterNotFound, a.ParentName))
					return true
				}
				sensors[a.Name] = NewSensor(a.Name, a.FriendlyName, "", a.ParentName, port, subAddressOf(a), chain, master, 0, kids)
			}
			return true
		}

		// EMP002 sensor: resolve the ambient index by sub-address, or by
		// legacy port number when no modbus address was ever assigned.
		var master, prefix string
		if chain == 0 {
			master = a.ParentName
		} else {
			master = cat.IPToMaster(parent.IP)
			prefix = "device.1."
		}

		index := 0
		subAddress := subAddressOf(a)
		if subAddress != "" {
			countVals, err := get(ctx, master, prefix+"ambient.count")
			if err != nil {
				errored = true
				reject(err)
				return true
			}
			if len(countVals) > 0 {
				count, _ := strconv.Atoi(countVals[0])
				for i := 1; i <= count; i++ {
					addrVals, err := get(ctx, master, fmt.Sprintf("%sambient.%d.address", prefix, i))
					if err != nil {
						errored = true
						reject(err)
						continue
					}
					if len(addrVals) > 0 && addrVals[0] == subAddress {
						index = i
						break
					}
				}
			}
		} else if legacyIndex, err := strconv.Atoi(port); err == nil && legacyIndex > 0 {
			index = legacyIndex
			serialVals, err := get(ctx, master, fmt.Sprintf("%sambient.%s.parent.serial", prefix, port))
			if err != nil {
				errored = true
				reject(err)
			} else if len(serialVals) > 0 && serialVals[0] != "" && serialVals[0] != parent.Serial {
				if reparented, ok := findBySerial(cat, parent.IP, serialVals[0]); ok {
					parent = reparented
				}
			}
		}

		if index == 0 {
			return true
		}
		if chain == 0 {
			sensors[a.Name] = NewSensor(a.Name, a.FriendlyName, "", parent.Name, port, subAddress, chain, master, index, kids)
			return true
		}
		if master == "" {
			reject(fmt.Errorf("%w: %s", ErrDaisyChainMasterNotFound, a.ParentName))
			return true
		}
		sensors[a.Name] = NewSensor(a.Name, a.FriendlyName, "", parent.Name, port, subAddress, chain, master, index, kids)
		return true
	})

	return sensors, errored
}

// sensorPortString mirrors Sensor::port(): an asset's configured physical
// port, or "0" when it carries none.
func sensorPortString(a *catalog.Asset) string {
	if a.HasPort {
		return strconv.Itoa(a.Port)
	}
	return "0"
}

// subAddressOf returns a sensor asset's endpoint.1.sub_address, the modbus
// address an EMP002 device reports itself under.
func subAddressOf(a *catalog.Asset) string {
	if ep, ok := a.Endpoints[1]; ok {
		return ep.SubAddress
	}
	return ""
}

// findBySerial re-homes a legacy-indexed sensor onto the power device that
// actually answers for its reported parent.serial on the shared IP,
// covering ePDU replacement without reconfiguring the sensor asset.
func findBySerial(cat *catalog.AssetCatalog, ip, serial string) (*catalog.Asset, bool) {
	var found *catalog.Asset
	cat.RangePowerDevices(func(cand *catalog.Asset) bool {
		if cand.IP == ip && cand.Serial == serial {
			found = cand
			return false
		}
		return true
	})
	return found, found != nil
}
