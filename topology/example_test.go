package topology_test

import (
	"fmt"

	"github.com/katalvlaran/netmanager/topology"
)

// ExampleTopology_OpenDevices opens the switch feeding a service point and
// closes it again.
func ExampleTopology_OpenDevices() {
	breaker := topology.DeviceType{ID: 1, Name: "Circuit Breaker", IsSwitchable: true, IsGenerator: true}
	sw := topology.DeviceType{ID: 2, Name: "Switch", IsSwitchable: true}
	sp := topology.DeviceType{ID: 3, Name: "Service Point", IsServicePoint: true}

	topo := topology.New()
	_ = topo.Add(
		topology.Device{ID: 1, Type: breaker, CanConduct: true},
		topology.Device{ID: 2, Type: sw, CanConduct: true},
		topology.Device{ID: 3, Type: sp, CanConduct: true},
	)
	_ = topo.Connect(topology.NewEdge(1, 2), topology.NewEdge(2, 3))
	topo.EnergizeNetwork()

	lost, _ := topo.OpenDevices(2)
	for _, d := range lost {
		fmt.Printf("de-energized %d (%s)\n", d.ID, d.Type.Name)
	}
	gained, _ := topo.CloseDevices(2)
	fmt.Println("re-energized", len(gained))

	path, _ := topo.TraceToSource(3)
	fmt.Println("path", path)

	// Output:
	// de-energized 2 (Switch)
	// de-energized 3 (Service Point)
	// re-energized 2
	// path [3 2 1]
}
