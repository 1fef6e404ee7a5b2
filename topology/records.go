// SPDX-License-Identifier: MIT
//
// File: records.go
// Role: the load/snapshot boundary. Records is the flat shape persisted by
// the snapshot codec and produced by the SQL loader.

package topology

import (
	"fmt"
	"maps"
	"time"
)

// Records is a self-contained description of a topology.
type Records struct {
	// DeviceTypes holds the distinct types in use, sorted by ID.
	DeviceTypes []DeviceType

	// Devices holds every device with its current flags, sorted by ID.
	Devices []Device

	// Edges holds each undirected adjacency once, canonical and sorted.
	Edges []Edge
}

// Records captures the whole topology under a single read lock.
// Complexity: O(V log V + E log E).
func (t *Topology) Records() Records {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Records{
		DeviceTypes: t.typesInUseLocked(),
		Devices:     sortedRecords(t.devices),
		Edges:       t.edgesLocked(),
	}
}

// FromRecords builds a topology from r: types are interned first, then every
// device is added, then every edge connected. Stored energized flags are kept
// as given; call EnergizeNetwork to make them authoritative.
//
// Errors: those of Add and Connect, plus ErrTypeConflict when a device's
// embedded type disagrees with r.DeviceTypes.
func FromRecords(r Records, opts ...Option) (*Topology, error) {
	t := New(opts...)
	start := time.Now()
	err := t.load(r)
	t.finish(OpLoadRecords, start, len(r.Devices), len(r.Devices), err)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Topology) load(r Records) error {
	if err := t.registerTypes(r.DeviceTypes); err != nil {
		return fmt.Errorf("load device types: %w", err)
	}
	if err := t.add(r.Devices); err != nil {
		return fmt.Errorf("load devices: %w", err)
	}
	if err := t.editEdges(r.Edges, true); err != nil {
		return fmt.Errorf("load edges: %w", err)
	}

	return nil
}

// registerTypes interns types ahead of the devices that reference them.
func (t *Topology) registerTypes(types []DeviceType) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := make(map[uint64]*DeviceType, len(types))
	for _, dt := range types {
		if _, err := t.internLocked(dt, pending); err != nil {
			return err
		}
	}
	maps.Copy(t.types, pending)

	return nil
}
