// Package topology maintains a live connectivity model of an electrical
// network: devices (switches, generators, service points) joined by physical
// edges, and the derived energized state of every device.
//
// A device is energized iff it is reachable from a conducting generator
// through conducting devices. The engine keeps that true under switching:
//
//	G ── A ── B        OpenDevices(A)   ⇒ {A, B} lose power
//	     │
//	G2 ──┘             … unless another source still reaches them.
//
// Components:
//
//   - Graph store: a single arena map[id]*node; adjacency is an ID set, the
//     generator index is maintained by Add/Remove.
//   - Traversal: one explicit-stack depth-first walk, parameterized by an edge
//     acceptance predicate and a visitor.
//   - Energization: EnergizeNetwork (full, parallel) and the incremental
//     Open/Close pair with their read-only Test* previews.
//   - Consistency checker: invariants below, evaluated over a view so a
//     proposed change is checked before it is committed.
//   - Concurrency guard: one sync.RWMutex. Test*, lookups and enumerations
//     share it; Add, Remove, Connect, Disconnect, Open, Close and
//     EnergizeNetwork hold it exclusively.
//
// Invariants (Validate reports them; WithVerification(true) panics on them):
//
//  1. A device that cannot conduct is never energized.
//  2. Every conducting generator is energized.
//  3. Adjacent conducting devices are both energized or both de-energized.
//  4. Adjacency is symmetric.
//  5. Every energized device is reachable from a conducting generator.
//
// Add, Remove, Connect and Disconnect do not recompute energization; call
// EnergizeNetwork after structural edits. Remove scrubs the removed devices
// from their neighbours' adjacency.
//
// Errors:
//
//	ErrDeviceNotFound      - unknown device identifier; the call changes nothing.
//	ErrDeviceTypeNotFound  - unknown device type identifier.
//	ErrDuplicateDevice     - Add with an ID already present or repeated.
//	ErrTypeConflict        - two definitions for one type ID.
//	ErrLoopNotAllowed      - Connect of a device to itself.
//	ErrNotEnergized        - TraceToSource on a de-energized device.
//	ErrNoSource            - TraceToSource found no generator (stale flags).
//	*InvariantError        - checker result; panic value in verification mode.
package topology
