// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// config.go - fixture knobs, standard device types and the shared plan.

package fixture

import (
	"math/rand"

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/topology"
)

// Standard device types used by every constructor.
var (
	GeneratorType    = topology.DeviceType{ID: 1, Name: "Circuit Breaker", IsSwitchable: true, IsGenerator: true}
	SwitchType       = topology.DeviceType{ID: 2, Name: "Switch", IsSwitchable: true}
	ConductorType    = topology.DeviceType{ID: 3, Name: "Conductor"}
	ServicePointType = topology.DeviceType{ID: 4, Name: "Service Point", IsServicePoint: true}
)

// Synthetic positions are laid out on a small grid around this origin.
const (
	originLatitude  = -34.9285
	originLongitude = 138.6007
	gridStep        = 0.0005
	gridWidth       = 64

	defaultFirstID = 1
)

// config aggregates all fixture knobs; passed by value to constructors.
type config struct {
	firstID  uint64
	rng      *rand.Rand
	openProb float64
	energize bool
}

// Option customizes a Build.
type Option func(*config)

// WithSeed freezes the random source used by stochastic constructors.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithFirstID sets the first allocated device identifier. Panics on zero.
func WithFirstID(id uint64) Option {
	if id == 0 {
		panic("fixture: WithFirstID(0)")
	}

	return func(c *config) { c.firstID = id }
}

// WithOpenProbability makes Random leave each switch open with probability p.
// Panics when p is outside [0,1].
func WithOpenProbability(p float64) Option {
	if p < 0 || p > 1 {
		panic("fixture: WithOpenProbability out of [0,1]")
	}

	return func(c *config) { c.openProb = p }
}

// WithoutEnergize returns the topology with stored flags as built (all false).
func WithoutEnergize() Option {
	return func(c *config) { c.energize = false }
}

func newConfig(opts ...Option) config {
	cfg := config{firstID: defaultFirstID, energize: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// plan accumulates devices and edges before loading.
type plan struct {
	next    uint64
	devices []topology.Device
	edges   []topology.Edge
	layout  Layout
}

func newPlan(first uint64) *plan { return &plan{next: first} }

// device allocates the next identifier for a device of type dt.
func (p *plan) device(dt topology.DeviceType, conducting bool) uint64 {
	id := p.next
	p.next++
	idx := len(p.devices)
	p.devices = append(p.devices, topology.Device{
		ID:         id,
		Type:       dt,
		CanConduct: conducting,
		Position: geo.LatLng{
			Latitude:  originLatitude - float64(idx/gridWidth)*gridStep,
			Longitude: originLongitude + float64(idx%gridWidth)*gridStep,
		},
	})

	switch {
	case dt.IsGenerator:
		p.layout.Generators = append(p.layout.Generators, id)
	case dt.IsServicePoint:
		p.layout.ServicePoints = append(p.layout.ServicePoints, id)
	case dt.IsSwitchable:
		p.layout.Switches = append(p.layout.Switches, id)
	default:
		p.layout.Conductors = append(p.layout.Conductors, id)
	}

	return id
}

func (p *plan) connect(a, b uint64) { p.edges = append(p.edges, topology.NewEdge(a, b)) }

func (p *plan) records() topology.Records {
	return topology.Records{
		DeviceTypes: []topology.DeviceType{GeneratorType, SwitchType, ConductorType, ServicePointType},
		Devices:     p.devices,
		Edges:       p.edges,
	}
}
