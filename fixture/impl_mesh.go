// SPDX-License-Identifier: MIT
// Package: netmanager/fixture
//
// impl_mesh.go - rows×cols grid of conductors fed at the (0,0) corner.
// Row-major allocation: conductor (r,c) is Layout.Conductors[r*cols+c].

package fixture

import "fmt"

const (
	methodMesh = "Mesh"
	minMeshDim = 1
)

// Mesh returns a Constructor for an orthogonal grid of conductors.
func Mesh(rows, cols int) Constructor {
	return func(p *plan, _ config) error {
		if rows < minMeshDim || cols < minMeshDim {
			return fmt.Errorf("%s: rows=%d, cols=%d (each must be ≥ %d): %w",
				methodMesh, rows, cols, minMeshDim, ErrTooFewDevices)
		}

		src := p.device(GeneratorType, true)
		cells := make([]uint64, rows*cols)
		for i := range cells {
			cells[i] = p.device(ConductorType, true)
		}
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if c+1 < cols {
					p.connect(cells[r*cols+c], cells[r*cols+c+1])
				}
				if r+1 < rows {
					p.connect(cells[r*cols+c], cells[(r+1)*cols+c])
				}
			}
		}
		p.connect(src, cells[0])

		return nil
	}
}
