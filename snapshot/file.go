// SPDX-License-Identifier: MIT

package snapshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/katalvlaran/netmanager/topology"
)

// WriteFile stores r at path. The file is written to a temporary sibling and
// renamed into place, so a reader never sees a partial snapshot.
func WriteFile(path string, r topology.Records) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, r); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("failed to rename snapshot to %s: %w", path, err)
	}

	return nil
}

// ReadFile loads the snapshot stored at path.
func ReadFile(path string) (topology.Records, error) {
	f, err := os.Open(path)
	if err != nil {
		return topology.Records{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	r, err := Decode(bufio.NewReader(f))
	if err != nil {
		return topology.Records{}, fmt.Errorf("%s: %w", path, err)
	}

	return r, nil
}

// Save writes the current state of t to path.
func Save(path string, t *topology.Topology) error {
	return WriteFile(path, t.Records())
}

// Load reads path and builds a topology from it with opts. Stored energized
// flags are kept; call EnergizeNetwork to recompute them.
func Load(path string, opts ...topology.Option) (*topology.Topology, error) {
	r, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return topology.FromRecords(r, opts...)
}
