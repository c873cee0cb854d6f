// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/arunsworld/nursery"

	"github.com/u-bmc/nut-bridge/pkg/credstore"
)

// DefaultScanTimeout bounds every individual scan attempt (§4.3 path 3:
// "Scan timeouts are bounded (typically 10 s)").
const DefaultScanTimeout = 10 * time.Second

// Scanner invokes one of the external NUT scanner binaries (nut-scanner
// -s for SNMP, nut-scanner -N for NetXML) and parses its INI-style stdout
// into candidates. The scanner binaries themselves are an external
// collaborator (§1); this package only knows how to drive and parse them.
type Scanner interface {
	ScanSNMP(ctx context.Context, ip string, doc *credstore.Document) ([]*Candidate, error)
	ScanNetXML(ctx context.Context, ip string) ([]*Candidate, error)
}

// execScanner shells out to nut-scanner(8), the external collaborator
// named in §1. No third-party Go binding for it exists in the retrieval
// pack, so this drives the binary the same way the upstream NUT tooling
// does and reinterprets its stdout.
type execScanner struct {
	binary  string
	timeout time.Duration
}

// NewExecScanner constructs a Scanner backed by the nut-scanner(8) binary
// found at binaryPath ("nut-scanner" if empty).
func NewExecScanner(binaryPath string, timeout time.Duration) Scanner {
	if binaryPath == "" {
		binaryPath = "nut-scanner"
	}
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	return &execScanner{binary: binaryPath, timeout: timeout}
}

func (s *execScanner) ScanSNMP(ctx context.Context, ip string, doc *credstore.Document) ([]*Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{"-s", "-I", ip, "-q"}
	switch doc.Type {
	case credstore.DocumentSNMPv3:
		args = append(args, "-L", doc.SecName, "-x", securityLevelArg(doc.SecLevel))
		if doc.AuthProtocol != "" {
			args = append(args, "-w", doc.AuthProtocol, "-A", doc.AuthPassword)
		}
		if doc.PrivProtocol != "" {
			args = append(args, "-z", doc.PrivProtocol, "-X", doc.PrivPassword)
		}
	default:
		args = append(args, "-c", doc.Community)
	}

	out, err := exec.CommandContext(ctx, s.binary, args...).Output()
	if err != nil {
		return nil, err
	}

	candidates := parseScannerOutput(string(out))
	for _, c := range candidates {
		c.CredentialDocIDs = append(c.CredentialDocIDs, doc.ID)
	}
	return candidates, nil
}

func (s *execScanner) ScanNetXML(ctx context.Context, ip string) ([]*Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.binary, "-N", "-I", ip, "-q").Output()
	if err != nil {
		return nil, err
	}
	return parseScannerOutput(string(out)), nil
}

func securityLevelArg(level credstore.SNMPv3Level) string {
	switch level {
	case credstore.LevelAuthPriv:
		return "authPriv"
	case credstore.LevelAuthNoPriv:
		return "authNoPriv"
	default:
		return "noAuthNoPriv"
	}
}

// parseScannerOutput reinterprets nut-scanner's "[name]\nkey = value"
// sections, one per discovered driver instance, the same format a
// verbatim block uses. Sections that fail to parse are skipped rather
// than aborting the whole scan.
func parseScannerOutput(text string) []*Candidate {
	var out []*Candidate
	for _, section := range splitIniSections(text) {
		c, err := parseIniSection(section)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// splitIniSections breaks a multi-section INI document into one string per
// "[name]" header, each carrying its own header line so parseIniSection can
// consume it directly.
func splitIniSections(text string) []string {
	var sections []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if h := strings.TrimSpace(line); strings.HasPrefix(h, "[") {
			if len(current) > 0 {
				sections = append(sections, strings.Join(current, "\n"))
			}
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

// ActiveScan implements acquisition path 3 (§4.3): parallel scans over
// {SNMPv3 credentials} x {SNMPv1 credentials} x {NetXML} against the
// asset's IP. SNMPv3 credentials are tried first and awaited; if any of
// them yields a result, SNMPv1 is skipped entirely. NetXML is always
// attempted, concurrently with whichever SNMP family runs.
func ActiveScan(ctx context.Context, ip string, docs []*credstore.Document, scanner Scanner) ([]*Candidate, error) {
	var v3, v1 []*credstore.Document
	for _, d := range docs {
		switch d.Type {
		case credstore.DocumentSNMPv3:
			v3 = append(v3, d)
		case credstore.DocumentSNMPv1:
			v1 = append(v1, d)
		}
	}

	v3Results := make([][]*Candidate, len(v3))
	if len(v3) > 0 {
		jobs := make([]nursery.ConcurrentJob, len(v3))
		for i, doc := range v3 {
			i, doc := i, doc
			jobs[i] = func(ctx context.Context, errCh chan error) {
				c, err := scanner.ScanSNMP(ctx, ip, doc)
				if err != nil {
					errCh <- nil
					return
				}
				v3Results[i] = c
			}
		}
		if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
			return nil, err
		}
	}

	v3Hit := false
	for _, c := range v3Results {
		if len(c) > 0 {
			v3Hit = true
			break
		}
	}
	if v3Hit {
		v1 = nil
	}

	v1Results := make([][]*Candidate, len(v1))
	var netXMLResult []*Candidate

	jobs := make([]nursery.ConcurrentJob, 0, len(v1)+1)
	for i, doc := range v1 {
		i, doc := i, doc
		jobs = append(jobs, func(ctx context.Context, errCh chan error) {
			c, err := scanner.ScanSNMP(ctx, ip, doc)
			if err != nil {
				errCh <- nil
				return
			}
			v1Results[i] = c
		})
	}
	jobs = append(jobs, func(ctx context.Context, errCh chan error) {
		c, err := scanner.ScanNetXML(ctx, ip)
		if err != nil {
			errCh <- nil
			return
		}
		netXMLResult = c
	})

	if err := nursery.RunConcurrentlyWithContext(ctx, jobs...); err != nil {
		return nil, err
	}

	var out []*Candidate
	for _, c := range v3Results {
		out = append(out, c...)
	}
	for _, c := range v1Results {
		out = append(out, c...)
	}
	out = append(out, netXMLResult...)
	return out, nil
}
