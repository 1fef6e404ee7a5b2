// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// impl_feeder.go - radial feeder: a source, a chain of switches, one service
// point tapped off each switch.
//
//	G ── S1 ── S2 ── … ── Sn
//	     │     │          │
//	     P1    P2         Pn

package fixture

import "fmt"

const (
	methodFeeder  = "Feeder"
	minFeederSpan = 1
)

// Feeder returns a Constructor for a radial feeder of length switches, all closed.
func Feeder(length int) Constructor {
	return func(p *plan, _ config) error {
		if length < minFeederSpan {
			return fmt.Errorf("%s: length=%d < min=%d: %w", methodFeeder, length, minFeederSpan, ErrTooFewDevices)
		}

		prev := p.device(GeneratorType, true)
		for i := 0; i < length; i++ {
			sw := p.device(SwitchType, true)
			p.connect(prev, sw)
			p.connect(sw, p.device(ServicePointType, true))
			prev = sw
		}

		return nil
	}
}
