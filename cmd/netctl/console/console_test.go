package console_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/netmanager/cmd/netctl/console"
	"github.com/katalvlaran/netmanager/fixture"
	"github.com/katalvlaran/netmanager/snapshot"
)

func TestExec(t *testing.T) {
	topo, _, err := fixture.Build(nil, nil, fixture.Feeder(3))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "net.cbor")
	c := console.New(topo, path)

	run := func(line string) string {
		var buf bytes.Buffer
		assert.False(t, c.Exec(line, &buf))

		return buf.String()
	}

	assert.Equal(t, "devices=7 types=4 edges=6 generators=1 conducting=7 energized=7\n", run("stats"))
	assert.Equal(t, "4 device(s) would de-energize: 4 5 6 7\n", run("test-open 4"))
	assert.Equal(t, "4 device(s) de-energized: 4 5 6 7\n", run("open 4"))
	assert.Equal(t, "0 device(s) de-energized: (none)\n", run("open 4"))
	assert.Equal(t, "2 5 6\n", run("neighbors 4"))
	assert.Contains(t, run("show 4"), "conducting  false")
	assert.Equal(t, "3 -> 2 -> 1\n", run("trace 3"))
	assert.Equal(t, "consistent\n", run("check"))
	assert.Equal(t, "4 device(s) energized: 4 5 6 7\n", run("close 4,4"))
	assert.Equal(t, "saved "+path+"\n", run("save"))

	assert.Contains(t, run("trace 99"), "error: topology: device not found")
	assert.Contains(t, run("open"), "error: at least one device id is required")
	assert.Contains(t, run("show x"), `error: invalid device id "x"`)
	assert.Contains(t, run("frobnicate"), "unknown command")
	assert.Empty(t, run("   "))
	assert.True(t, c.Exec("quit", &bytes.Buffer{}))

	rec, err := snapshot.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, topo.Records(), rec)
}
