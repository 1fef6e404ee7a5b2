// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// impl_ring.go - closed ring of switches fed from two opposite sources, so
// every switch has two independent supply paths.

package fixture

import "fmt"

const (
	methodRing  = "Ring"
	minRingSize = 3
)

// Ring returns a Constructor for an n-switch ring with generators attached at
// switch 0 and switch n/2.
func Ring(n int) Constructor {
	return func(p *plan, _ config) error {
		if n < minRingSize {
			return fmt.Errorf("%s: n=%d < min=%d: %w", methodRing, n, minRingSize, ErrTooFewDevices)
		}

		g1 := p.device(GeneratorType, true)
		g2 := p.device(GeneratorType, true)
		ring := make([]uint64, n)
		for i := range ring {
			ring[i] = p.device(SwitchType, true)
		}
		for i := range ring {
			p.connect(ring[i], ring[(i+1)%n])
		}
		p.connect(g1, ring[0])
		p.connect(g2, ring[n/2])

		return nil
	}
}
