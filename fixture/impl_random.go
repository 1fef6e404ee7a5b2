// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// impl_random.go - random sparse network of switches with a handful of sources.
//
// Contract:
//   - n ≥ 1, p ∈ [0,1]; a seeded source (WithSeed) is required.
//   - Edge trials run i asc, j asc (j > i), then one generator per
//     sourceEvery switches is attached to a random switch.
//   - Each switch is left open with probability WithOpenProbability.

package fixture

import "fmt"

const (
	methodRandom     = "Random"
	minRandomDevices = 1
	sourceEvery      = 32
	randomProbMin    = 0.0
	randomProbMax    = 1.0
)

// Random returns a Constructor sampling an Erdős–Rényi-style switch network.
func Random(n int, p float64) Constructor {
	return func(pl *plan, cfg config) error {
		if n < minRandomDevices {
			return fmt.Errorf("%s: n=%d < min=%d: %w", methodRandom, n, minRandomDevices, ErrTooFewDevices)
		}
		if p < randomProbMin || p > randomProbMax {
			return fmt.Errorf("%s: p=%.4f not in [0,1]: %w", methodRandom, p, ErrInvalidProbability)
		}
		if cfg.rng == nil {
			return fmt.Errorf("%s: %w", methodRandom, ErrNeedRandSource)
		}

		ids := make([]uint64, n)
		for i := range ids {
			ids[i] = pl.device(SwitchType, cfg.rng.Float64() >= cfg.openProb)
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if cfg.rng.Float64() < p {
					pl.connect(ids[i], ids[j])
				}
			}
		}
		for k := 0; k < (n+sourceEvery-1)/sourceEvery; k++ {
			g := pl.device(GeneratorType, true)
			pl.connect(g, ids[cfg.rng.Intn(n)])
		}

		return nil
	}
}
