package snapshot_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/netmanager/fixture"
	"github.com/katalvlaran/netmanager/snapshot"
	"github.com/katalvlaran/netmanager/topology"
)

func fixtureRecords(t *testing.T) topology.Records {
	t.Helper()
	topo, layout, err := fixture.Build(nil,
		[]fixture.Option{fixture.WithSeed(5), fixture.WithOpenProbability(0.2)},
		fixture.Feeder(5), fixture.Random(60, 0.05))
	require.NoError(t, err)
	_, err = topo.OpenDevices(layout.Switches[0])
	require.NoError(t, err)

	return topo.Records()
}

func TestMarshal_PreservesRecords(t *testing.T) {
	want := fixtureRecords(t)

	data, err := snapshot.Marshal(want)
	require.NoError(t, err)
	got, err := snapshot.Unmarshal(data)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	r := fixtureRecords(t)

	a, err := snapshot.Marshal(r)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, snapshot.Encode(&buf, r))

	assert.Equal(t, a, buf.Bytes())
}

func TestUnmarshal_Errors(t *testing.T) {
	type device struct {
		ID     uint64 `cbor:"1,keyasint"`
		TypeID uint64 `cbor:"2,keyasint"`
	}
	type doc struct {
		Version uint16   `cbor:"1,keyasint"`
		Devices []device `cbor:"3,keyasint"`
	}

	data, err := cbor.Marshal(doc{Version: snapshot.Version, Devices: []device{{ID: 1, TypeID: 9}}})
	require.NoError(t, err)
	_, err = snapshot.Unmarshal(data)
	assert.ErrorIs(t, err, snapshot.ErrUnknownDeviceType)

	data, err = cbor.Marshal(doc{Version: snapshot.Version + 1})
	require.NoError(t, err)
	_, err = snapshot.Unmarshal(data)
	assert.ErrorIs(t, err, snapshot.ErrUnsupportedVersion)

	_, err = snapshot.Unmarshal([]byte{0xff})
	assert.Error(t, err)
}

func TestFile_SaveLoad(t *testing.T) {
	topo, _, err := fixture.Build(nil, nil, fixture.Ring(6))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "net.cbor")

	require.NoError(t, snapshot.Save(path, topo))
	loaded, err := snapshot.Load(path, topology.WithVerification(true))
	require.NoError(t, err)
	loaded.EnergizeNetwork()

	if diff := cmp.Diff(topo.Records(), loaded.Records()); diff != "" {
		t.Fatalf("records mismatch (-saved +loaded):\n%s", diff)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".snapshot-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temporary file left behind")
}

func TestReadFile_Missing(t *testing.T) {
	_, err := snapshot.ReadFile(filepath.Join(t.TempDir(), "absent.cbor"))
	assert.Error(t, err)
}
