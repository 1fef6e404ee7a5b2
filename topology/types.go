// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: public records (DeviceType, Device, Edge), the Topology aggregate,
// construction options and sentinel errors.
//
// Concurrency:
//   - A single sync.RWMutex (mu) guards every field reachable from Topology.
//   - Methods suffixed Locked expect the caller to hold mu in the mode noted
//     on the method; calling them without the lock is a programming error.
//   - node.energized is an atomic.Bool: EnergizeNetwork writes it from several
//     goroutines while holding the write lock.

package topology

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/katalvlaran/netmanager/geo"
)

// Sentinel errors for topology operations. Callers branch with errors.Is.
var (
	// ErrDeviceNotFound indicates an operation referenced an identifier that is not in the topology.
	ErrDeviceNotFound = errors.New("topology: device not found")

	// ErrDeviceTypeNotFound indicates a lookup of a device type that was never registered.
	ErrDeviceTypeNotFound = errors.New("topology: device type not found")

	// ErrDuplicateDevice indicates Add received an identifier that already exists
	// in the topology or appears twice in the same batch.
	ErrDuplicateDevice = errors.New("topology: duplicate device")

	// ErrTypeConflict indicates two different definitions were given for one type identifier.
	ErrTypeConflict = errors.New("topology: conflicting device type definition")

	// ErrLoopNotAllowed indicates Connect was asked to join a device to itself.
	ErrLoopNotAllowed = errors.New("topology: self-loop not allowed")

	// ErrNotEnergized indicates a source trace was requested for a de-energized device.
	ErrNotEnergized = errors.New("topology: device is not energized")

	// ErrNoSource indicates an energized device has no conducting path to a generator.
	// Seeing it means the stored energized flags are stale.
	ErrNoSource = errors.New("topology: no conducting path to a generator")
)

// Operation names reported to loggers and observers.
const (
	OpAdd         = "add"
	OpRemove      = "remove"
	OpConnect     = "connect"
	OpDisconnect  = "disconnect"
	OpEnergize    = "energize"
	OpOpen        = "open"
	OpClose       = "close"
	OpTestOpening = "test_opening"
	OpTestClosing = "test_closing"
	OpValidate    = "validate"
	OpTraceSource = "trace_source"
	OpLoadRecords = "load_records"
)

// defaultWorkers selects GOMAXPROCS for the parallel energize phases.
const defaultWorkers = 0

// DeviceType describes a class of devices. It is immutable once registered
// and interned per topology by ID.
type DeviceType struct {
	// ID is unique within a topology.
	ID uint64

	// Name is the descriptive name, e.g. "Circuit Breaker".
	Name string

	// IsSwitchable reports whether devices of this type can change state.
	IsSwitchable bool

	// IsGenerator reports whether devices of this type are energy sources.
	IsGenerator bool

	// IsServicePoint reports whether devices of this type are customer boundaries.
	IsServicePoint bool
}

// Device is a value record of one device. Records passed to Add are copied
// into the store and records returned by queries are copies taken under the
// lock; mutating them has no effect on the topology.
type Device struct {
	ID uint64

	// Type is the device's type; Add interns it by Type.ID.
	Type DeviceType

	// CanConduct reports whether the current switch position lets current flow.
	CanConduct bool

	// IsEnergized is derived state. On input it is stored as given and only
	// becomes authoritative after EnergizeNetwork.
	IsEnergized bool

	// Position is carried for the spatial collaborator; the engine ignores it.
	Position geo.LatLng
}

// Envelope returns the device's point envelope.
func (d Device) Envelope() geo.Envelope { return geo.PointEnvelope(d.Position) }

// Edge is an unordered adjacency between two devices. Canonical edges have A < B.
type Edge struct {
	A uint64
	B uint64
}

// NewEdge returns the canonical form of the pair {a, b}.
func NewEdge(a, b uint64) Edge {
	if a > b {
		a, b = b, a
	}

	return Edge{A: a, B: b}
}

// String renders the edge as "a-b".
func (e Edge) String() string { return fmt.Sprintf("%d-%d", e.A, e.B) }

// Segment carries the endpoint positions of one edge for spatial indexing.
type Segment struct {
	Edge Edge
	From geo.LatLng
	To   geo.LatLng
}

// Envelope returns the bounding box of both endpoints.
func (s Segment) Envelope() geo.Envelope { return geo.SegmentEnvelope(s.From, s.To) }

// Stats is a point-in-time count summary of a topology.
type Stats struct {
	Devices     int
	DeviceTypes int
	Edges       int
	Generators  int
	Conducting  int
	Energized   int
}

// Observer receives one notification per completed engine operation, after
// the topology lock has been released. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveOperation(op string, affected int, elapsed time.Duration, err error)
}

// node is the stored form of a device. Adjacency is kept as identifiers and
// resolved through Topology.devices.
type node struct {
	id         uint64
	typ        *DeviceType
	pos        geo.LatLng
	canConduct bool
	energized  atomic.Bool
	adjacent   map[uint64]struct{}
}

// isGenerator reports whether the node's type is an energy source.
func (n *node) isGenerator() bool { return n.typ.IsGenerator }

// record copies the node into a Device value.
func (n *node) record() Device {
	return Device{
		ID:          n.id,
		Type:        *n.typ,
		CanConduct:  n.canConduct,
		IsEnergized: n.energized.Load(),
		Position:    n.pos,
	}
}

// Topology is the aggregate root of an electrical network: the device
// registry, adjacency, the generator index and the lock that guards them.
//
// The zero value is not usable; construct with New or FromRecords.
type Topology struct {
	mu sync.RWMutex // guards everything below

	devices    map[uint64]*node       // device ID → node
	types      map[uint64]*DeviceType // interned device types
	generators map[uint64]*node       // subset of devices whose type is a generator

	verify      bool
	parallelism int
	logger      *slog.Logger
	observer    Observer
}

// Option configures a Topology at construction time.
type Option func(t *Topology)

// WithVerification enables the consistency checker after every energization
// change. A failed check panics with *InvariantError.
func WithVerification(enabled bool) Option {
	return func(t *Topology) { t.verify = enabled }
}

// WithParallelism bounds the number of goroutines used by EnergizeNetwork.
// n <= 0 selects runtime.GOMAXPROCS(0); n == 1 runs sequentially.
func WithParallelism(n int) Option {
	return func(t *Topology) { t.parallelism = n }
}

// WithLogger routes operation logs to l. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(t *Topology) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithObserver installs an operation observer (metrics, auditing).
func WithObserver(o Observer) Option {
	return func(t *Topology) { t.observer = o }
}

// New creates an empty topology.
// Complexity: O(len(opts)).
func New(opts ...Option) *Topology {
	t := &Topology{
		devices:     make(map[uint64]*node),
		types:       make(map[uint64]*DeviceType),
		generators:  make(map[uint64]*node),
		parallelism: defaultWorkers,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Verifying reports whether the consistency checker runs after mutations.
func (t *Topology) Verifying() bool { return t.verify }

// workers resolves the configured parallelism to a positive goroutine count.
func (t *Topology) workers() int {
	if t.parallelism > 0 {
		return t.parallelism
	}

	return runtime.GOMAXPROCS(0)
}

// finish logs the outcome of an operation and notifies the observer.
// It must be called after the lock is released.
func (t *Topology) finish(op string, start time.Time, requested, affected int, err error) {
	elapsed := time.Since(start)
	if err != nil {
		t.logger.Warn("topology operation rejected",
			slog.String("op", op),
			slog.Int("requested", requested),
			slog.Any("error", err))
	} else {
		t.logger.Debug("topology operation",
			slog.String("op", op),
			slog.Int("requested", requested),
			slog.Int("affected", affected),
			slog.Duration("elapsed", elapsed))
	}
	if t.observer != nil {
		t.observer.ObserveOperation(op, affected, elapsed, err)
	}
}
