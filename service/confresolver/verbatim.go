// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/u-bmc/nut-bridge/pkg/catalog"
)

// FromVerbatim builds a Candidate from an asset's verbatim NUT
// configuration block (§4.3 acquisition path 1). It returns
// ErrNoCandidate if the asset carries no verbatim block.
func FromVerbatim(asset *catalog.Asset) (*Candidate, error) {
	if asset.Verbatim == nil {
		return nil, ErrNoCandidate
	}

	payload := strings.ReplaceAll(asset.Verbatim.Payload, string(asset.Verbatim.Separator), "\n")
	if strings.TrimSpace(payload) == "" {
		c := newCandidate()
		c.Values["name"] = asset.Name
		return c, nil
	}

	if !strings.HasPrefix(strings.TrimLeft(payload, " \t"), "[") {
		payload = fmt.Sprintf("[%s]\n%s", asset.Name, payload)
	}

	return parseIniSection(payload)
}

// parseIniSection parses one `[name]\nkey = value\n...` NUT configuration
// section into a Candidate. The section header name is discarded; it is
// not a configuration key.
func parseIniSection(text string) (*Candidate, error) {
	c := newCandidate()

	scanner := bufio.NewScanner(strings.NewReader(text))
	sawHeader := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if sawHeader {
				// Only the first section of a verbatim block is honored.
				break
			}
			sawHeader = true
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: line %q has no '='", ErrMalformedVerbatim, line)
		}
		c.Values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVerbatim, err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("%w: missing section header", ErrMalformedVerbatim)
	}

	return c, nil
}
