// SPDX-License-Identifier: MIT
//
// Package loader reads a utility connectivity database into topology records.
//
// Source tables:
//
//	oms_metafeatures(id, name, switchable)                          device types
//	oms_connectivity(mslink, feature_id, normal_status,
//	                 x_coord, y_coord, node1, node2)                devices
//
// Two devices are adjacent when they share a non-zero node value. Rows without
// coordinates are skipped. Coordinates are Lambert Conformal Conic grid
// centimetres and are converted with geo.FromLCC.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/topology"
)

// Default type names that mark generators and service points.
const (
	DefaultGeneratorType    = "Circuit Breaker"
	DefaultServicePointType = "Service Point"
)

const (
	switchableFlag = "T"
	conductingFlag = "C"
)

// ErrUnknownDeviceType indicates a device row whose feature_id has no type row.
var ErrUnknownDeviceType = errors.New("loader: device references unknown type")

const (
	queryDeviceTypes = `SELECT id, name, switchable FROM oms_metafeatures WHERE id > 0 ORDER BY id`

	queryDevices = `SELECT mslink, feature_id, normal_status, x_coord, y_coord
		FROM oms_connectivity
		WHERE x_coord IS NOT NULL AND y_coord IS NOT NULL
		ORDER BY mslink`

	// Node value 0 means "unconnected"; NULLIF keeps it from matching.
	queryEdges = `SELECT DISTINCT lhs.mslink, rhs.mslink
		FROM oms_connectivity lhs
		INNER JOIN oms_connectivity rhs ON (
			NULLIF(lhs.node1, 0) = NULLIF(rhs.node1, 0)
			OR NULLIF(lhs.node1, 0) = NULLIF(rhs.node2, 0)
			OR NULLIF(lhs.node2, 0) = NULLIF(rhs.node1, 0)
			OR NULLIF(lhs.node2, 0) = NULLIF(rhs.node2, 0)
		)
		WHERE lhs.mslink < rhs.mslink
			AND lhs.x_coord IS NOT NULL AND lhs.y_coord IS NOT NULL
			AND rhs.x_coord IS NOT NULL AND rhs.y_coord IS NOT NULL
		ORDER BY lhs.mslink, rhs.mslink`
)

// Loader reads topology records from an open database.
type Loader struct {
	db            *sql.DB
	generators    map[string]struct{}
	servicePoints map[string]struct{}
	logger        *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithGeneratorTypes replaces the type names classified as generators.
func WithGeneratorTypes(names ...string) Option {
	return func(l *Loader) { l.generators = nameSet(names) }
}

// WithServicePointTypes replaces the type names classified as service points.
func WithServicePointTypes(names ...string) Option {
	return func(l *Loader) { l.servicePoints = nameSet(names) }
}

// WithLogger routes progress logs to logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New returns a Loader over db. The caller owns db.
func New(db *sql.DB, opts ...Option) *Loader {
	l := &Loader{
		db:            db,
		generators:    nameSet([]string{DefaultGeneratorType}),
		servicePoints: nameSet([]string{DefaultServicePointType}),
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Open opens the SQLite database at dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}

// Load reads device types, devices and edges. Energized flags are left false;
// callers energize after building the topology.
func (l *Loader) Load(ctx context.Context) (topology.Records, error) {
	start := time.Now()

	types, err := l.loadDeviceTypes(ctx)
	if err != nil {
		return topology.Records{}, fmt.Errorf("load device types: %w", err)
	}
	l.logger.Info("device types loaded", slog.Int("count", len(types)))

	devices, err := l.loadDevices(ctx, types)
	if err != nil {
		return topology.Records{}, fmt.Errorf("load devices: %w", err)
	}
	l.logger.Info("devices loaded", slog.Int("count", len(devices)))

	edges, err := l.loadEdges(ctx)
	if err != nil {
		return topology.Records{}, fmt.Errorf("load edges: %w", err)
	}
	l.logger.Info("devices connected",
		slog.Int("edges", len(edges)),
		slog.Duration("elapsed", time.Since(start)))

	return topology.Records{DeviceTypes: types, Devices: devices, Edges: edges}, nil
}

func (l *Loader) loadDeviceTypes(ctx context.Context) ([]topology.DeviceType, error) {
	rows, err := l.db.QueryContext(ctx, queryDeviceTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topology.DeviceType
	for rows.Next() {
		var (
			dt         topology.DeviceType
			switchable sql.NullString
		)
		if err := rows.Scan(&dt.ID, &dt.Name, &switchable); err != nil {
			return nil, err
		}
		dt.IsSwitchable = switchable.String == switchableFlag
		_, dt.IsGenerator = l.generators[dt.Name]
		_, dt.IsServicePoint = l.servicePoints[dt.Name]
		out = append(out, dt)
	}

	return out, rows.Err()
}

func (l *Loader) loadDevices(ctx context.Context, types []topology.DeviceType) ([]topology.Device, error) {
	byID := make(map[uint64]topology.DeviceType, len(types))
	for _, dt := range types {
		byID[dt.ID] = dt
	}

	rows, err := l.db.QueryContext(ctx, queryDevices)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topology.Device
	for rows.Next() {
		var (
			id, typeID uint64
			status     sql.NullString
			x, y       int64
		)
		if err := rows.Scan(&id, &typeID, &status, &x, &y); err != nil {
			return nil, err
		}
		dt, ok := byID[typeID]
		if !ok {
			return nil, fmt.Errorf("%w: device %d type %d", ErrUnknownDeviceType, id, typeID)
		}
		out = append(out, topology.Device{
			ID:         id,
			Type:       dt,
			CanConduct: status.String == conductingFlag,
			Position:   geo.FromLCC(x, y),
		})
	}

	return out, rows.Err()
}

func (l *Loader) loadEdges(ctx context.Context) ([]topology.Edge, error) {
	rows, err := l.db.QueryContext(ctx, queryEdges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []topology.Edge
	for rows.Next() {
		var a, b uint64
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		out = append(out, topology.Edge{A: a, B: b})
	}

	return out, rows.Err()
}

func nameSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}

	return out
}
