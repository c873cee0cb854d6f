// SPDX-License-Identifier: BSD-3-Clause

package confresolver

import "errors"

var (
	// ErrNoCandidate indicates none of the three acquisition paths produced
	// a usable configuration candidate for an asset.
	ErrNoCandidate = errors.New("confresolver: no configuration candidate")
	// ErrMalformedVerbatim indicates a verbatim block could not be
	// reinterpreted as an INI-style NUT section.
	ErrMalformedVerbatim = errors.New("confresolver: malformed verbatim block")
	// ErrNoTemplateMatch indicates a candidate matched no configuration-type
	// template.
	ErrNoTemplateMatch = errors.New("confresolver: no matching template")
	// ErrMissingAttribute indicates template instantiation referenced an
	// asset attribute that does not exist.
	ErrMissingAttribute = errors.New("confresolver: missing referenced attribute")
	// ErrCommunication wraps scan/credential-store/NUT failures encountered
	// while resolving an asset's configuration.
	ErrCommunication = errors.New("confresolver: communication error")
	// ErrMalformedRequest indicates a resolve request failed to decode.
	ErrMalformedRequest = errors.New("confresolver: malformed request")
)
