// SPDX-License-Identifier: BSD-3-Clause

package drivermgr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// store owns the on-disk per-asset configuration files. Neither of
// pkg/file's atomic helpers fit here: AtomicCreateFile refuses to replace
// an existing file, and AtomicUpdateFile only ever appends, while §4.4
// needs a full-replace write that is gated on the new text differing from
// what is already there. writeIfChanged implements that third mode
// directly: read-compare-rename, all within the store directory so the
// final os.Rename stays on one filesystem and is atomic.
type store struct {
	dir string
}

func newStore(dir string) *store {
	return &store{dir: dir}
}

func (s *store) path(assetName string) string {
	return filepath.Join(s.dir, assetName)
}

// writeIfChanged writes content to the asset's configuration file iff no
// file exists there yet or the existing content differs byte-for-byte. It
// reports whether a write happened.
func (s *store) writeIfChanged(assetName string, content []byte) (bool, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	target := s.path(assetName)
	existing, err := os.ReadFile(target)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+assetName+"-*")
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return true, nil
}

// remove deletes the asset's configuration file, if any.
func (s *store) remove(assetName string) error {
	if err := os.Remove(s.path(assetName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return nil
}

// pendingSet is a coalescing set of asset names: repeated inserts of the
// same name before the next drain collapse to one entry, matching §4.4's
// pending-start/pending-stop sets.
type pendingSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newPendingSet() *pendingSet {
	return &pendingSet{seen: make(map[string]struct{})}
}

func (p *pendingSet) add(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[name] = struct{}{}
}

// drain atomically swaps out the set and returns what it held.
func (p *pendingSet) drain() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.seen))
	for name := range p.seen {
		out = append(out, name)
	}
	p.seen = make(map[string]struct{})
	return out
}
