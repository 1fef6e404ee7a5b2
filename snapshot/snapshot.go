// SPDX-License-Identifier: MIT
//
// Package snapshot persists topology records as CBOR.
//
// The encoding is deterministic (canonical key order, integer keys), so two
// snapshots of the same topology are byte-identical. Devices reference their
// type by ID; types are stored once.
//
//	{1: version, 2: [types…], 3: [devices…], 4: [edges…]}
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/topology"
)

// Version is the snapshot format written by Encode.
const Version uint16 = 1

var (
	// ErrUnsupportedVersion indicates a snapshot written in an unknown format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported format version")

	// ErrUnknownDeviceType indicates a device referencing a type absent from the snapshot.
	ErrUnknownDeviceType = errors.New("snapshot: device references unknown type")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsEmpty,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

type wireSnapshot struct {
	Version     uint16       `cbor:"1,keyasint"`
	DeviceTypes []wireType   `cbor:"2,keyasint"`
	Devices     []wireDevice `cbor:"3,keyasint"`
	Edges       []wireEdge   `cbor:"4,keyasint"`
}

type wireType struct {
	ID             uint64 `cbor:"1,keyasint"`
	Name           string `cbor:"2,keyasint"`
	IsSwitchable   bool   `cbor:"3,keyasint,omitempty"`
	IsGenerator    bool   `cbor:"4,keyasint,omitempty"`
	IsServicePoint bool   `cbor:"5,keyasint,omitempty"`
}

type wireDevice struct {
	ID          uint64  `cbor:"1,keyasint"`
	TypeID      uint64  `cbor:"2,keyasint"`
	CanConduct  bool    `cbor:"3,keyasint,omitempty"`
	IsEnergized bool    `cbor:"4,keyasint,omitempty"`
	Latitude    float64 `cbor:"5,keyasint,omitempty"`
	Longitude   float64 `cbor:"6,keyasint,omitempty"`
}

type wireEdge struct {
	A uint64 `cbor:"1,keyasint"`
	B uint64 `cbor:"2,keyasint"`
}

// Marshal encodes r as a snapshot.
func Marshal(r topology.Records) ([]byte, error) {
	return encMode.Marshal(toWire(r))
}

// Unmarshal decodes a snapshot produced by Marshal or Encode.
//
// Errors: ErrUnsupportedVersion, ErrUnknownDeviceType, or a CBOR decode error.
func Unmarshal(data []byte) (topology.Records, error) {
	var w wireSnapshot
	if err := decMode.Unmarshal(data, &w); err != nil {
		return topology.Records{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return fromWire(w)
}

// Encode writes r to w as one CBOR data item.
func Encode(w io.Writer, r topology.Records) error {
	if err := encMode.NewEncoder(w).Encode(toWire(r)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return nil
}

// Decode reads one snapshot from r.
func Decode(r io.Reader) (topology.Records, error) {
	var w wireSnapshot
	if err := decMode.NewDecoder(r).Decode(&w); err != nil {
		return topology.Records{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return fromWire(w)
}

func toWire(r topology.Records) wireSnapshot {
	w := wireSnapshot{
		Version:     Version,
		DeviceTypes: make([]wireType, len(r.DeviceTypes)),
		Devices:     make([]wireDevice, len(r.Devices)),
		Edges:       make([]wireEdge, len(r.Edges)),
	}
	for i, dt := range r.DeviceTypes {
		w.DeviceTypes[i] = wireType{
			ID:             dt.ID,
			Name:           dt.Name,
			IsSwitchable:   dt.IsSwitchable,
			IsGenerator:    dt.IsGenerator,
			IsServicePoint: dt.IsServicePoint,
		}
	}
	for i, d := range r.Devices {
		w.Devices[i] = wireDevice{
			ID:          d.ID,
			TypeID:      d.Type.ID,
			CanConduct:  d.CanConduct,
			IsEnergized: d.IsEnergized,
			Latitude:    d.Position.Latitude,
			Longitude:   d.Position.Longitude,
		}
	}
	for i, e := range r.Edges {
		w.Edges[i] = wireEdge{A: e.A, B: e.B}
	}

	return w
}

func fromWire(w wireSnapshot) (topology.Records, error) {
	if w.Version != Version {
		return topology.Records{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, w.Version)
	}

	r := topology.Records{
		DeviceTypes: make([]topology.DeviceType, len(w.DeviceTypes)),
		Devices:     make([]topology.Device, len(w.Devices)),
		Edges:       make([]topology.Edge, len(w.Edges)),
	}
	types := make(map[uint64]topology.DeviceType, len(w.DeviceTypes))
	for i, wt := range w.DeviceTypes {
		dt := topology.DeviceType{
			ID:             wt.ID,
			Name:           wt.Name,
			IsSwitchable:   wt.IsSwitchable,
			IsGenerator:    wt.IsGenerator,
			IsServicePoint: wt.IsServicePoint,
		}
		r.DeviceTypes[i] = dt
		types[dt.ID] = dt
	}
	for i, wd := range w.Devices {
		dt, ok := types[wd.TypeID]
		if !ok {
			return topology.Records{}, fmt.Errorf("%w: device %d type %d", ErrUnknownDeviceType, wd.ID, wd.TypeID)
		}
		r.Devices[i] = topology.Device{
			ID:          wd.ID,
			Type:        dt,
			CanConduct:  wd.CanConduct,
			IsEnergized: wd.IsEnergized,
			Position:    geo.LatLng{Latitude: wd.Latitude, Longitude: wd.Longitude},
		}
	}
	for i, we := range w.Edges {
		r.Edges[i] = topology.NewEdge(we.A, we.B)
	}

	return r, nil
}
