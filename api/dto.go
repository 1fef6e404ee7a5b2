// SPDX-License-Identifier: MIT

package api

import "github.com/katalvlaran/netmanager/topology"

// DeviceTypeDTO is the JSON form of a device type.
type DeviceTypeDTO struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	IsSwitchable   bool   `json:"isSwitchable"`
	IsGenerator    bool   `json:"isGenerator"`
	IsServicePoint bool   `json:"isServicePoint"`
}

// DeviceDTO is the JSON form of a device; its type is referenced by ID.
type DeviceDTO struct {
	ID           uint64  `json:"id"`
	DeviceTypeID uint64  `json:"deviceTypeId"`
	CanConduct   bool    `json:"canConduct"`
	IsEnergized  bool    `json:"isEnergized"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// EdgeDTO is the JSON form of an edge with both endpoint positions.
type EdgeDTO struct {
	LHS          uint64  `json:"lhs"`
	RHS          uint64  `json:"rhs"`
	LHSLatitude  float64 `json:"lhsLatitude"`
	LHSLongitude float64 `json:"lhsLongitude"`
	RHSLatitude  float64 `json:"rhsLatitude"`
	RHSLongitude float64 `json:"rhsLongitude"`
}

// ElementsDTO is the set of devices and edges inside a viewport.
type ElementsDTO struct {
	Devices []DeviceDTO `json:"devices"`
	Edges   []EdgeDTO   `json:"edges"`
}

// ValidationDTO reports a consistency check.
type ValidationDTO struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

// TraceDTO is a conducting path from a device to its source, device first.
type TraceDTO struct {
	Path []uint64 `json:"path"`
}

// StatsDTO is the JSON form of topology.Stats.
type StatsDTO struct {
	Devices     int `json:"devices"`
	DeviceTypes int `json:"deviceTypes"`
	Edges       int `json:"edges"`
	Generators  int `json:"generators"`
	Conducting  int `json:"conducting"`
	Energized   int `json:"energized"`
}

func statsDTO(s topology.Stats) StatsDTO {
	return StatsDTO(s)
}

// ErrorDTO is the body of every non-2xx response.
type ErrorDTO struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func deviceTypeDTO(dt topology.DeviceType) DeviceTypeDTO {
	return DeviceTypeDTO{
		ID:             dt.ID,
		Name:           dt.Name,
		IsSwitchable:   dt.IsSwitchable,
		IsGenerator:    dt.IsGenerator,
		IsServicePoint: dt.IsServicePoint,
	}
}

func deviceDTO(d topology.Device) DeviceDTO {
	return DeviceDTO{
		ID:           d.ID,
		DeviceTypeID: d.Type.ID,
		CanConduct:   d.CanConduct,
		IsEnergized:  d.IsEnergized,
		Latitude:     d.Position.Latitude,
		Longitude:    d.Position.Longitude,
	}
}

func deviceDTOs(devices []topology.Device) []DeviceDTO {
	out := make([]DeviceDTO, len(devices))
	for i, d := range devices {
		out[i] = deviceDTO(d)
	}

	return out
}

func edgeDTO(s topology.Segment) EdgeDTO {
	return EdgeDTO{
		LHS:          s.Edge.A,
		RHS:          s.Edge.B,
		LHSLatitude:  s.From.Latitude,
		LHSLongitude: s.From.Longitude,
		RHSLatitude:  s.To.Latitude,
		RHSLongitude: s.To.Longitude,
	}
}
