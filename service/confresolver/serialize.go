// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

// Serialize renders a completed candidate as one ups.conf section (§6):
//
//	[asset-name]
//	    driver = ...
//	    port = ...
//	    key = value
//	    ...
//
// asset.Name is always used as the section header regardless of what the
// candidate's own "name" value holds, since a driver config file section
// name must match the asset it was resolved for. driver and port are
// emitted first when present, matching how ups.conf is hand-edited in
// practice; the remaining keys follow in sorted order so that two
// serializations of an unchanged candidate always compare byte-equal,
// which is what the driver manager's content-equality write gate depends
// on (§4.4).
func Serialize(asset *catalog.Asset, c *Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", asset.Name)

	rest := make([]string, 0, len(c.Values))
	for k := range c.Values {
		switch k {
		case "name", "driver", "port":
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)

	if v, ok := c.Values["driver"]; ok {
		fmt.Fprintf(&b, "\tdriver = %s\n", v)
	}
	if v, ok := c.Values["port"]; ok {
		fmt.Fprintf(&b, "\tport = %s\n", v)
	}
	for _, k := range rest {
		fmt.Fprintf(&b, "\t%s = %s\n", k, c.Values[k])
	}

	return b.String()
}
