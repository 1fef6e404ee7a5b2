// SPDX-License-Identifier: MIT
//
// File: methods_devices.go
// Role: device registry lifecycle (Add, Remove) and read-only device queries.
//
// Determinism:
//   - Every enumeration is sorted by identifier ascending.
//
// Concurrency:
//   - Add/Remove take the write lock; queries take the read lock.
//   - Batches are validated in full before the first write, so a rejected
//     batch leaves the topology untouched.

package topology

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// Add registers devices, interning their types and indexing generators.
// Energization is not recomputed; call EnergizeNetwork afterwards.
//
// Errors:
//   - ErrDuplicateDevice: an ID already exists or repeats within the batch.
//   - ErrTypeConflict: a type ID arrives with a definition different from the interned one.
//
// Complexity: O(len(devices)).
func (t *Topology) Add(devices ...Device) error {
	start := time.Now()
	err := t.add(devices)
	t.finish(OpAdd, start, len(devices), len(devices), err)

	return err
}

func (t *Topology) add(devices []Device) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Stage 1: validate the whole batch.
	batch := make(map[uint64]struct{}, len(devices))
	pending := make(map[uint64]*DeviceType)
	for _, d := range devices {
		if _, exists := t.devices[d.ID]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateDevice, d.ID)
		}
		if _, dup := batch[d.ID]; dup {
			return fmt.Errorf("%w: %d repeated in batch", ErrDuplicateDevice, d.ID)
		}
		batch[d.ID] = struct{}{}

		if _, err := t.internLocked(d.Type, pending); err != nil {
			return err
		}
	}

	// Stage 2: commit.
	maps.Copy(t.types, pending)
	for _, d := range devices {
		n := &node{
			id:         d.ID,
			typ:        t.types[d.Type.ID],
			pos:        d.Position,
			canConduct: d.CanConduct,
			adjacent:   make(map[uint64]struct{}),
		}
		n.energized.Store(d.IsEnergized)
		t.devices[n.id] = n
		if n.isGenerator() {
			t.generators[n.id] = n
		}
	}

	return nil
}

// internLocked resolves dt against the interned types and the pending set of
// the current batch, staging it in pending when new. Caller holds the write lock.
func (t *Topology) internLocked(dt DeviceType, pending map[uint64]*DeviceType) (*DeviceType, error) {
	if known, ok := t.types[dt.ID]; ok {
		if *known != dt {
			return nil, fmt.Errorf("%w: type %d (%q vs %q)", ErrTypeConflict, dt.ID, known.Name, dt.Name)
		}

		return known, nil
	}
	if staged, ok := pending[dt.ID]; ok {
		if *staged != dt {
			return nil, fmt.Errorf("%w: type %d (%q vs %q)", ErrTypeConflict, dt.ID, staged.Name, dt.Name)
		}

		return staged, nil
	}
	interned := dt
	pending[dt.ID] = &interned

	return &interned, nil
}

// Remove deletes devices from the registry and the generator index, and
// scrubs them from the adjacency of their former neighbours so no dangling
// references remain. Interned types stay registered.
//
// Errors:
//   - ErrDeviceNotFound: an ID is unknown (nothing is removed).
//
// Complexity: O(Σ deg(v)) over removed devices.
func (t *Topology) Remove(ids ...uint64) error {
	start := time.Now()
	err := t.remove(ids)
	t.finish(OpRemove, start, len(ids), len(ids), err)

	return err
}

func (t *Topology) remove(ids []uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	targets, err := t.resolveLocked(ids)
	if err != nil {
		return err
	}

	for _, n := range targets {
		for nid := range n.adjacent {
			if nb, ok := t.devices[nid]; ok {
				delete(nb.adjacent, n.id)
			}
		}
		delete(t.devices, n.id)
		delete(t.generators, n.id)
	}

	return nil
}

// resolveLocked maps ids to nodes, dropping duplicates and preserving first
// occurrence order. Caller holds the lock in either mode.
func (t *Topology) resolveLocked(ids []uint64) ([]*node, error) {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]*node, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		n, ok := t.devices[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
		}
		out = append(out, n)
	}

	return out, nil
}

// Device returns a copy of the device with the given ID.
func (t *Topology) Device(id uint64) (Device, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.devices[id]
	if !ok {
		return Device{}, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}

	return n.record(), nil
}

// HasDevice reports whether id is registered.
func (t *Topology) HasDevice(id uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.devices[id]

	return ok
}

// DeviceType returns the interned device type with the given ID.
func (t *Topology) DeviceType(id uint64) (DeviceType, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	dt, ok := t.types[id]
	if !ok {
		return DeviceType{}, fmt.Errorf("%w: %d", ErrDeviceTypeNotFound, id)
	}

	return *dt, nil
}

// Neighbors returns the sorted IDs adjacent to id.
func (t *Topology) Neighbors(id uint64) ([]uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, id)
	}

	return slices.Sorted(maps.Keys(n.adjacent)), nil
}

// Devices returns copies of every device, sorted by ID.
// Complexity: O(V log V).
func (t *Topology) Devices() []Device {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return sortedRecords(t.devices)
}

// DeviceTypes returns the distinct types referenced by at least one device,
// sorted by ID.
func (t *Topology) DeviceTypes() []DeviceType {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.typesInUseLocked()
}

func (t *Topology) typesInUseLocked() []DeviceType {
	used := make(map[uint64]DeviceType)
	for _, n := range t.devices {
		used[n.typ.ID] = *n.typ
	}
	out := make([]DeviceType, 0, len(used))
	for _, id := range slices.Sorted(maps.Keys(used)) {
		out = append(out, used[id])
	}

	return out
}

// Generators returns the sorted IDs of all generator devices, conducting or not.
func (t *Topology) Generators() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Sorted(maps.Keys(t.generators))
}

// Stats returns device, edge and state counts.
// Complexity: O(V + E).
func (t *Topology) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		Devices:     len(t.devices),
		DeviceTypes: len(t.types),
		Generators:  len(t.generators),
	}
	degrees := 0
	for _, n := range t.devices {
		degrees += len(n.adjacent)
		if n.canConduct {
			s.Conducting++
		}
		if n.energized.Load() {
			s.Energized++
		}
	}
	s.Edges = degrees / 2

	return s
}

// sortedRecords copies the nodes of m into Device values ordered by ID.
func sortedRecords(m map[uint64]*node) []Device {
	out := make([]Device, 0, len(m))
	for _, id := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[id].record())
	}

	return out
}
