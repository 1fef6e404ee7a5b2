package topology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/topology"
)

var (
	generatorType = topology.DeviceType{ID: 1, Name: "Circuit Breaker", IsSwitchable: true, IsGenerator: true}
	switchType    = topology.DeviceType{ID: 2, Name: "Switch", IsSwitchable: true}
	serviceType   = topology.DeviceType{ID: 3, Name: "Service Point", IsServicePoint: true}
)

func device(id uint64, typ topology.DeviceType, conducting bool) topology.Device {
	return topology.Device{ID: id, Type: typ, CanConduct: conducting}
}

// buildLine creates G(1) ── A(2) ── B(3), all conducting, energized.
func buildLine(t *testing.T, opts ...topology.Option) *topology.Topology {
	t.Helper()
	topo := topology.New(opts...)
	require.NoError(t, topo.Add(
		device(1, generatorType, true),
		device(2, switchType, true),
		device(3, serviceType, true),
	))
	require.NoError(t, topo.Connect(topology.NewEdge(1, 2), topology.NewEdge(2, 3)))
	topo.EnergizeNetwork()

	return topo
}

// buildTwoSources creates two independent paths into M:
//
//	G1(1) ── X(3) ── M(5)
//	G2(2) ── Y(4) ───┘
func buildTwoSources(t *testing.T, opts ...topology.Option) *topology.Topology {
	t.Helper()
	topo := topology.New(opts...)
	require.NoError(t, topo.Add(
		device(1, generatorType, true),
		device(2, generatorType, true),
		device(3, switchType, true),
		device(4, switchType, true),
		device(5, serviceType, true),
	))
	require.NoError(t, topo.Connect(
		topology.NewEdge(1, 3), topology.NewEdge(3, 5),
		topology.NewEdge(2, 4), topology.NewEdge(4, 5),
	))
	topo.EnergizeNetwork()

	return topo
}

func ids(devices []topology.Device) []uint64 {
	out := make([]uint64, len(devices))
	for i, d := range devices {
		out[i] = d.ID
	}

	return out
}

func energized(t *testing.T, topo *topology.Topology, id uint64) bool {
	t.Helper()
	d, err := topo.Device(id)
	require.NoError(t, err)

	return d.IsEnergized
}

func TestEnergizeNetwork_Line(t *testing.T) {
	topo := buildLine(t, topology.WithVerification(true))

	for _, id := range []uint64{1, 2, 3} {
		assert.True(t, energized(t, topo, id), "device %d", id)
	}
	require.NoError(t, topo.Validate())
}

func TestOpenDevices_DeenergizesDownstream(t *testing.T) {
	topo := buildLine(t, topology.WithVerification(true))

	out, err := topo.OpenDevices(2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids(out))
	for _, d := range out {
		assert.False(t, d.IsEnergized, "returned records reflect the new state")
	}

	a, err := topo.Device(2)
	require.NoError(t, err)
	assert.False(t, a.CanConduct)
	assert.False(t, a.IsEnergized)
	assert.False(t, energized(t, topo, 3))
	assert.True(t, energized(t, topo, 1))
	require.NoError(t, topo.Validate())
}

func TestOpenDevices_AlternateSourceKeepsLoadEnergized(t *testing.T) {
	topo := buildTwoSources(t, topology.WithVerification(true))

	out, err := topo.OpenDevices(3)
	require.NoError(t, err)
	// Only the opened switch itself loses power; M is still fed through G2 ── Y.
	assert.Equal(t, []uint64{3}, ids(out))
	assert.True(t, energized(t, topo, 5))
	assert.True(t, energized(t, topo, 4))

	// Opening the second path as well isolates M.
	out, err = topo.OpenDevices(4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4, 5}, ids(out))
	require.NoError(t, topo.Validate())
}

func TestOpenDevices_BothPathsAtOnce(t *testing.T) {
	topo := buildTwoSources(t, topology.WithVerification(true))

	out, err := topo.OpenDevices(3, 4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4, 5}, ids(out))
}

func TestOpenDevices_AlreadyOpenIsNoop(t *testing.T) {
	topo := buildLine(t)
	_, err := topo.OpenDevices(2)
	require.NoError(t, err)

	out, err := topo.OpenDevices(2, 2)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenDevices_Generator(t *testing.T) {
	topo := buildLine(t, topology.WithVerification(true))

	out, err := topo.OpenDevices(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids(out))
	assert.Zero(t, topo.Stats().Energized)
}

func TestCloseDevices_Reenergizes(t *testing.T) {
	topo := buildLine(t, topology.WithVerification(true))
	_, err := topo.OpenDevices(2)
	require.NoError(t, err)

	out, err := topo.CloseDevices(2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids(out))
	for _, d := range out {
		assert.True(t, d.CanConduct)
		assert.True(t, d.IsEnergized)
	}
	require.NoError(t, topo.Validate())
}

func TestCloseDevices_NoEnergizedNeighbor(t *testing.T) {
	topo := topology.New(topology.WithVerification(true))
	require.NoError(t, topo.Add(
		device(1, generatorType, true),
		device(2, switchType, false),
		device(3, switchType, false),
	))
	require.NoError(t, topo.Connect(topology.NewEdge(1, 2), topology.NewEdge(2, 3)))
	topo.EnergizeNetwork()

	// Switch 3 touches only the open switch 2.
	out, err := topo.CloseDevices(3)
	require.NoError(t, err)
	assert.Empty(t, out)

	d, err := topo.Device(3)
	require.NoError(t, err)
	assert.True(t, d.CanConduct)
	assert.False(t, d.IsEnergized)
}

func TestCloseDevices_ChainOfOpenSwitches(t *testing.T) {
	topo := topology.New(topology.WithVerification(true))
	require.NoError(t, topo.Add(
		device(1, generatorType, true),
		device(2, switchType, false),
		device(3, switchType, false),
		device(4, serviceType, true),
	))
	require.NoError(t, topo.Connect(topology.NewEdge(1, 2), topology.NewEdge(2, 3), topology.NewEdge(3, 4)))
	topo.EnergizeNetwork()

	out, err := topo.CloseDevices(3, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4}, ids(out))
}

func TestCloseDevices_Generator(t *testing.T) {
	topo := topology.New(topology.WithVerification(true))
	require.NoError(t, topo.Add(device(1, generatorType, false), device(2, switchType, true)))
	require.NoError(t, topo.Connect(topology.NewEdge(1, 2)))
	topo.EnergizeNetwork()
	assert.Zero(t, topo.Stats().Energized)

	out, err := topo.CloseDevices(1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(out))
}

func TestUnknownDevice_NoMutation(t *testing.T) {
	topo := buildLine(t)
	before := topo.Records()

	_, err := topo.OpenDevices(2, 99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
	_, err = topo.CloseDevices(99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
	_, err = topo.TestOpeningDevices(99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
	_, err = topo.TestClosingDevices(99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
	assert.ErrorIs(t, topo.Connect(topology.NewEdge(1, 3), topology.NewEdge(3, 99)), topology.ErrDeviceNotFound)
	assert.ErrorIs(t, topo.Disconnect(topology.NewEdge(1, 99)), topology.ErrDeviceNotFound)
	assert.ErrorIs(t, topo.Remove(3, 99), topology.ErrDeviceNotFound)
	_, err = topo.Device(99)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)

	assert.Equal(t, before, topo.Records())
}

func TestAdd_Errors(t *testing.T) {
	topo := buildLine(t)

	assert.ErrorIs(t, topo.Add(device(3, switchType, true)), topology.ErrDuplicateDevice)
	assert.ErrorIs(t, topo.Add(device(7, switchType, true), device(7, switchType, true)), topology.ErrDuplicateDevice)

	renamed := switchType
	renamed.Name = "Fuse"
	assert.ErrorIs(t, topo.Add(device(8, renamed, true)), topology.ErrTypeConflict)
	assert.ErrorIs(t, topo.Add(
		device(9, topology.DeviceType{ID: 40, Name: "A"}, true),
		device(10, topology.DeviceType{ID: 40, Name: "B"}, true),
	), topology.ErrTypeConflict)

	assert.False(t, topo.HasDevice(7))
	assert.False(t, topo.HasDevice(9))
	_, err := topo.DeviceType(40)
	assert.ErrorIs(t, err, topology.ErrDeviceTypeNotFound)
}

func TestConnect_Symmetry(t *testing.T) {
	topo := topology.New()
	require.NoError(t, topo.Add(device(1, switchType, true), device(2, switchType, true)))

	require.NoError(t, topo.Connect(topology.Edge{A: 2, B: 1}))
	n1, err := topo.Neighbors(1)
	require.NoError(t, err)
	n2, err := topo.Neighbors(2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, n1)
	assert.Equal(t, []uint64{1}, n2)
	assert.Equal(t, []topology.Edge{{A: 1, B: 2}}, topo.Edges())

	require.NoError(t, topo.Disconnect(topology.NewEdge(1, 2)))
	n1, _ = topo.Neighbors(1)
	n2, _ = topo.Neighbors(2)
	assert.Empty(t, n1)
	assert.Empty(t, n2)

	require.NoError(t, topo.Disconnect(topology.NewEdge(1, 2)), "non-adjacent pair is a no-op")
	assert.ErrorIs(t, topo.Connect(topology.NewEdge(1, 1)), topology.ErrLoopNotAllowed)
}

func TestRemove_ScrubsAdjacencyAndGenerators(t *testing.T) {
	topo := buildLine(t, topology.WithVerification(true))

	require.NoError(t, topo.Remove(1, 1))
	assert.False(t, topo.HasDevice(1))
	assert.Empty(t, topo.Generators())

	n, err := topo.Neighbors(2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, n)
	assert.Equal(t, []topology.Edge{{A: 2, B: 3}}, topo.Edges())

	// The former feed is gone; a full recompute de-energizes the rest.
	topo.EnergizeNetwork()
	assert.Zero(t, topo.Stats().Energized)
	require.NoError(t, topo.Validate())
}

func TestQueries(t *testing.T) {
	topo := topology.New()
	require.NoError(t, topo.Add(
		topology.Device{ID: 5, Type: switchType, CanConduct: true, Position: geo.LatLng{Latitude: -35, Longitude: 138}},
		topology.Device{ID: 2, Type: generatorType, CanConduct: true, Position: geo.LatLng{Latitude: -34, Longitude: 139}},
	))
	require.NoError(t, topo.Connect(topology.NewEdge(5, 2)))

	assert.Equal(t, []uint64{2, 5}, ids(topo.Devices()))
	assert.Equal(t, []topology.DeviceType{generatorType, switchType}, topo.DeviceTypes())
	assert.Equal(t, []uint64{2}, topo.Generators())

	dt, err := topo.DeviceType(2)
	require.NoError(t, err)
	assert.Equal(t, switchType, dt)

	segs := topo.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, topology.Edge{A: 2, B: 5}, segs[0].Edge)
	assert.Equal(t, geo.Envelope{MinLatitude: -35, MinLongitude: 138, MaxLatitude: -34, MaxLongitude: 139}, segs[0].Envelope())

	d, err := topo.Device(5)
	require.NoError(t, err)
	assert.Equal(t, geo.PointEnvelope(geo.LatLng{Latitude: -35, Longitude: 138}), d.Envelope())

	assert.Equal(t, topology.Stats{Devices: 2, DeviceTypes: 2, Edges: 1, Generators: 1, Conducting: 2}, topo.Stats())
}

func TestRecords_RoundTrip(t *testing.T) {
	topo := buildTwoSources(t)
	_, err := topo.OpenDevices(3)
	require.NoError(t, err)

	rec := topo.Records()
	assert.Len(t, rec.DeviceTypes, 3)
	assert.Len(t, rec.Edges, 4)

	clone, err := topology.FromRecords(rec)
	require.NoError(t, err)
	assert.Equal(t, rec, clone.Records())
}

func TestFromRecords_TypeConflict(t *testing.T) {
	conflicting := switchType
	conflicting.IsGenerator = true

	_, err := topology.FromRecords(topology.Records{
		DeviceTypes: []topology.DeviceType{switchType},
		Devices:     []topology.Device{device(1, conflicting, true)},
	})
	assert.ErrorIs(t, err, topology.ErrTypeConflict)
}

func TestTraceToSource(t *testing.T) {
	topo := buildTwoSources(t)

	path, err := topo.TraceToSource(5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 3, 1}, path, "ties broken by lowest neighbour ID")

	path, err = topo.TraceToSource(2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, path)

	_, err = topo.OpenDevices(3)
	require.NoError(t, err)
	path, err = topo.TraceToSource(5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 4, 2}, path)

	_, err = topo.TraceToSource(3)
	assert.ErrorIs(t, err, topology.ErrNotEnergized)
	_, err = topo.TraceToSource(42)
	assert.ErrorIs(t, err, topology.ErrDeviceNotFound)
}
