// SPDX-License-Identifier: MIT
//
// Package geo holds the positional data the topology exposes to spatial
// collaborators: geographic points, conversion from the utility's projected
// grid coordinates, and axis-aligned envelopes for devices and edges.
//
// The spatial index itself (viewport range queries) lives outside this module;
// everything here is a pure value computation.
package geo

import "math"

// LatLng is a geographic position in decimal degrees.
type LatLng struct {
	Latitude  float64
	Longitude float64
}

// Envelope is an axis-aligned bounding box over latitude and longitude.
// The zero Envelope is a degenerate box at (0,0).
type Envelope struct {
	MinLatitude  float64
	MinLongitude float64
	MaxLatitude  float64
	MaxLongitude float64
}

// PointEnvelope returns the degenerate envelope enclosing a single position.
func PointEnvelope(p LatLng) Envelope {
	return Envelope{
		MinLatitude:  p.Latitude,
		MinLongitude: p.Longitude,
		MaxLatitude:  p.Latitude,
		MaxLongitude: p.Longitude,
	}
}

// SegmentEnvelope returns the smallest envelope enclosing both endpoints.
func SegmentEnvelope(a, b LatLng) Envelope {
	return PointEnvelope(a).Expand(b)
}

// Expand returns e grown to include p.
func (e Envelope) Expand(p LatLng) Envelope {
	return Envelope{
		MinLatitude:  math.Min(e.MinLatitude, p.Latitude),
		MinLongitude: math.Min(e.MinLongitude, p.Longitude),
		MaxLatitude:  math.Max(e.MaxLatitude, p.Latitude),
		MaxLongitude: math.Max(e.MaxLongitude, p.Longitude),
	}
}

// Contains reports whether p lies inside e, borders included.
func (e Envelope) Contains(p LatLng) bool {
	return p.Latitude >= e.MinLatitude && p.Latitude <= e.MaxLatitude &&
		p.Longitude >= e.MinLongitude && p.Longitude <= e.MaxLongitude
}

// Intersects reports whether e and o share at least one point.
func (e Envelope) Intersects(o Envelope) bool {
	return e.MinLatitude <= o.MaxLatitude && o.MinLatitude <= e.MaxLatitude &&
		e.MinLongitude <= o.MaxLongitude && o.MinLongitude <= e.MaxLongitude
}
