// SPDX-License-Identifier: BSD-3-Clause

package catalog

// rackControllerParent is the synthetic parent name that marks a sensor as
// belonging to the management controller itself rather than a monitored
// device; such sensors are excluded from the catalog entirely.
const rackControllerParent = "rackcontroller-0"

// AssetCatalog is an immutable snapshot: three ordered sets of assets (power
// devices, sensors, and the licensing-gated allowed subset of power
// devices), an ip-to-daisy-chain-master index, and a global monitoring flag.
// Once published by a Writer.Commit, a catalog value is never mutated;
// Range/Get over it is safe for concurrent readers.
type AssetCatalog struct {
	powerDevices *orderedAssets
	sensors      *orderedAssets
	allowed      *orderedAssets

	ipToMaster        map[string]string
	monitoringEnabled bool
}

func newCatalog() *AssetCatalog {
	return &AssetCatalog{
		powerDevices: newOrderedAssets(),
		sensors:      newOrderedAssets(),
		allowed:      newOrderedAssets(),
		ipToMaster:   make(map[string]string),
	}
}

func (c *AssetCatalog) clone() *AssetCatalog {
	return &AssetCatalog{
		powerDevices:      c.powerDevices.clone(),
		sensors:           c.sensors.clone(),
		allowed:           c.allowed.clone(),
		ipToMaster:        cloneStringMap(c.ipToMaster),
		monitoringEnabled: c.monitoringEnabled,
	}
}

func cloneStringMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// PowerDevice looks up a power device asset by name.
func (c *AssetCatalog) PowerDevice(name string) (*Asset, bool) {
	return c.powerDevices.get(name)
}

// Sensor looks up a sensor asset by name.
func (c *AssetCatalog) Sensor(name string) (*Asset, bool) {
	return c.sensors.get(name)
}

// RangePowerDevices iterates all power devices in catalog order.
func (c *AssetCatalog) RangePowerDevices(fn func(*Asset) bool) {
	c.powerDevices.Range(fn)
}

// RangeSensors iterates all sensors in catalog order.
func (c *AssetCatalog) RangeSensors(fn func(*Asset) bool) {
	c.sensors.Range(fn)
}

// RangeAllowed iterates the licensing-allowed power-device subset.
func (c *AssetCatalog) RangeAllowed(fn func(*Asset) bool) {
	c.allowed.Range(fn)
}

// IsAllowed reports whether monitoring of the named power device is
// currently permitted by the licensing gate.
func (c *AssetCatalog) IsAllowed(name string) bool {
	_, ok := c.allowed.get(name)
	return ok
}

// MonitoringEnabled reports the current global licensing flag.
func (c *AssetCatalog) MonitoringEnabled() bool {
	return c.monitoringEnabled
}

// PowerDeviceCount returns the number of power devices in the snapshot.
func (c *AssetCatalog) PowerDeviceCount() int {
	return c.powerDevices.len()
}

// SensorCount returns the number of sensors in the snapshot.
func (c *AssetCatalog) SensorCount() int {
	return c.sensors.len()
}

// IPToMaster resolves a primary IPv4 address to the name of the
// daisy-chain-master asset that owns the NUT session on that address. It
// returns "" for orphan followers and unknown IPs.
func (c *AssetCatalog) IPToMaster(ip string) string {
	return c.ipToMaster[ip]
}

// upsertPowerDevice inserts or replaces a power device. Its ip-to-master
// contribution is not touched here; recomputeIndices rebuilds that index at
// commit.
func (c *AssetCatalog) upsertPowerDevice(a *Asset) {
	c.powerDevices.put(a)
}

// upsertSensor inserts or replaces a sensor unless it is owned by the
// management controller itself, in which case it is dropped silently.
func (c *AssetCatalog) upsertSensor(a *Asset) {
	if a.ParentName == rackControllerParent {
		c.sensors.remove(a.Name)
		return
	}
	c.sensors.put(a)
}

func (c *AssetCatalog) removeAsset(name string) {
	c.powerDevices.remove(name)
	c.sensors.remove(name)
	c.allowed.remove(name)
}

// recomputeIndices rebuilds ip-to-master and the allowed-devices set from
// the current power-device set and the monitoring flag. Called once per
// commit; never mutates a published snapshot.
func (c *AssetCatalog) recomputeIndices() {
	c.ipToMaster = make(map[string]string, c.powerDevices.len())
	c.powerDevices.Range(func(a *Asset) bool {
		if a.IsDaisyChainMaster() && a.IP != "" {
			c.ipToMaster[a.IP] = a.Name
		}
		return true
	})

	c.allowed = newOrderedAssets()
	if c.monitoringEnabled {
		c.powerDevices.Range(func(a *Asset) bool {
			c.allowed.put(a)
			return true
		})
	}
}
