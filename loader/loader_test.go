package loader_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/loader"
	"github.com/katalvlaran/netmanager/topology"
)

const schema = `
CREATE TABLE oms_metafeatures (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	switchable TEXT
);
CREATE TABLE oms_connectivity (
	mslink        INTEGER PRIMARY KEY,
	feature_id    INTEGER NOT NULL,
	normal_status TEXT,
	x_coord       INTEGER,
	y_coord       INTEGER,
	node1         INTEGER NOT NULL DEFAULT 0,
	node2         INTEGER NOT NULL DEFAULT 0
);`

// A breaker feeds a switch, which feeds two service points sharing node 30.
// Switch 13 is open. Device 15 has no coordinates.
const rows = `
INSERT INTO oms_metafeatures (id, name, switchable) VALUES
	(0, 'Placeholder', 'F'),
	(1, 'Circuit Breaker', 'T'),
	(2, 'Switch', 'T'),
	(3, 'Service Point', 'F'),
	(4, 'Recloser', 'T');
INSERT INTO oms_connectivity (mslink, feature_id, normal_status, x_coord, y_coord, node1, node2) VALUES
	(10, 1, 'C', 100000000, 200000000, 1, 20),
	(11, 2, 'C', 100001000, 200000000, 20, 30),
	(12, 3, 'C', 100002000, 200000000, 30, 0),
	(14, 3, 'C', 100002000, 200001000, 0, 30),
	(13, 2, 'O', 100003000, 200000000, 40, 50),
	(15, 2, 'C', NULL, NULL, 30, 40),
	(16, 4, 'C', 100004000, 200000000, 0, 0);`

func openDB(t *testing.T, script string) *sql.DB {
	t.Helper()
	db, err := loader.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema + script)
	require.NoError(t, err)

	return db
}

func TestLoad(t *testing.T) {
	db := openDB(t, rows)

	rec, err := loader.New(db).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.DeviceTypes, 4, "id 0 is excluded")
	assert.Equal(t, topology.DeviceType{ID: 1, Name: "Circuit Breaker", IsSwitchable: true, IsGenerator: true}, rec.DeviceTypes[0])
	assert.Equal(t, topology.DeviceType{ID: 3, Name: "Service Point", IsServicePoint: true}, rec.DeviceTypes[2])

	ids := make([]uint64, len(rec.Devices))
	for i, d := range rec.Devices {
		ids[i] = d.ID
	}
	assert.Equal(t, []uint64{10, 11, 12, 13, 14, 16}, ids)
	assert.True(t, rec.Devices[0].CanConduct)
	assert.False(t, rec.Devices[3].CanConduct, "status 'O' is open")
	assert.Equal(t, geo.FromLCC(100000000, 200000000), rec.Devices[0].Position)
	assert.InDelta(t, -32.0, rec.Devices[0].Position.Latitude, 1e-6)
	assert.InDelta(t, 135.0, rec.Devices[0].Position.Longitude, 1e-6)

	assert.Equal(t, []topology.Edge{{A: 10, B: 11}, {A: 11, B: 12}, {A: 11, B: 14}, {A: 12, B: 14}}, rec.Edges)
}

func TestLoad_BuildsTopology(t *testing.T) {
	db := openDB(t, rows)
	rec, err := loader.New(db).Load(context.Background())
	require.NoError(t, err)

	topo, err := topology.FromRecords(rec, topology.WithVerification(true))
	require.NoError(t, err)
	topo.EnergizeNetwork()

	assert.Equal(t, topology.Stats{Devices: 6, DeviceTypes: 4, Edges: 4, Generators: 1, Conducting: 5, Energized: 4}, topo.Stats())
	assert.Equal(t, []uint64{10}, topo.Generators())
}

func TestLoad_CustomTypeNames(t *testing.T) {
	db := openDB(t, rows)

	rec, err := loader.New(db,
		loader.WithGeneratorTypes("Circuit Breaker", "Recloser"),
		loader.WithServicePointTypes(),
	).Load(context.Background())
	require.NoError(t, err)

	for _, dt := range rec.DeviceTypes {
		assert.False(t, dt.IsServicePoint, dt.Name)
		assert.Equal(t, dt.ID == 1 || dt.ID == 4, dt.IsGenerator, dt.Name)
	}
}

func TestLoad_UnknownType(t *testing.T) {
	db := openDB(t, `
INSERT INTO oms_metafeatures (id, name, switchable) VALUES (1, 'Switch', 'T');
INSERT INTO oms_connectivity (mslink, feature_id, normal_status, x_coord, y_coord) VALUES (1, 9, 'C', 1, 1);`)

	_, err := loader.New(db).Load(context.Background())
	assert.ErrorIs(t, err, loader.ErrUnknownDeviceType)
	assert.ErrorContains(t, err, "load devices")
}

func TestLoad_MissingSchema(t *testing.T) {
	db, err := loader.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = loader.New(db).Load(context.Background())
	assert.ErrorContains(t, err, "load device types")
}

func TestLoad_Canceled(t *testing.T) {
	db := openDB(t, rows)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.New(db).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
