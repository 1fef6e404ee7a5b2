// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/katalvlaran/netmanager/geo"
	"github.com/katalvlaran/netmanager/topology"
)

// errBadRequest marks client input errors.
var errBadRequest = errors.New("bad request")

func (s *Server) handleDeviceTypes(w http.ResponseWriter, r *http.Request) {
	types := s.topo.DeviceTypes()
	out := make([]DeviceTypeDTO, len(types))
	for i, dt := range types {
		out[i] = deviceTypeDTO(dt)
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.topo.Device(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, deviceDTO(d))
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	path, err := s.topo.TraceToSource(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, TraceDTO{Path: path})
}

// switching adapts one of the four switching operations to a handler.
func (s *Server) switching(op func(ids ...uint64) ([]topology.Device, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := queryIDs(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out, err := op(ids...)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, deviceDTOs(out))
	}
}

func (s *Server) handleEnergize(w http.ResponseWriter, r *http.Request) {
	s.topo.EnergizeNetwork()
	s.writeJSON(w, r, http.StatusOK, statsDTO(s.topo.Stats()))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, statsDTO(s.topo.Stats()))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	err := s.topo.Validate()
	var ie *topology.InvariantError
	switch {
	case err == nil:
		s.writeJSON(w, r, http.StatusOK, ValidationDTO{Valid: true})
	case errors.As(err, &ie):
		out := ValidationDTO{Violations: make([]string, len(ie.Violations))}
		for i, v := range ie.Violations {
			out.Violations[i] = v.String()
		}
		loggerFrom(r.Context(), s.logger).Warn("topology inconsistent", slog.Int("violations", len(ie.Violations)))
		s.writeJSON(w, r, http.StatusConflict, out)
	default:
		s.writeError(w, r, err)
	}
}

// handleGeography answers a viewport query by scanning devices and edges.
func (s *Server) handleGeography(w http.ResponseWriter, r *http.Request) {
	var bounds [4]float64
	for i, name := range []string{"minLat", "minLng", "maxLat", "maxLng"} {
		v, err := strconv.ParseFloat(r.PathValue(name), 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %s %q", errBadRequest, name, r.PathValue(name)))
			return
		}
		bounds[i] = v
	}
	view := geo.Envelope{MinLatitude: bounds[0], MinLongitude: bounds[1], MaxLatitude: bounds[2], MaxLongitude: bounds[3]}

	out := ElementsDTO{Devices: []DeviceDTO{}, Edges: []EdgeDTO{}}
	for _, d := range s.topo.Devices() {
		if view.Contains(d.Position) {
			out.Devices = append(out.Devices, deviceDTO(d))
		}
	}
	for _, seg := range s.topo.Segments() {
		if view.Intersects(seg.Envelope()) {
			out.Edges = append(out.Edges, edgeDTO(seg))
		}
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func pathID(r *http.Request) (uint64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: device id %q", errBadRequest, raw)
	}

	return id, nil
}

// queryIDs accepts repeated ids parameters, comma-separated lists, or both.
func queryIDs(r *http.Request) ([]uint64, error) {
	var out []uint64
	for _, raw := range r.URL.Query()["ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: device id %q", errBadRequest, part)
			}
			out = append(out, id)
		}
	}

	return out, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, topology.ErrDeviceNotFound), errors.Is(err, topology.ErrDeviceTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrNotEnergized), errors.Is(err, topology.ErrNoSource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	logger := loggerFrom(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("error", err))
	} else {
		logger.Debug("request rejected", slog.Int("status", status), slog.Any("error", err))
	}
	s.writeJSON(w, r, status, ErrorDTO{Error: err.Error(), RequestID: w.Header().Get(RequestIDHeader)})
}

// writeJSON sends v with status. The header is already out when encoding
// fails, so the failure is only logged.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFrom(r.Context(), s.logger).Debug("response encode failed",
			slog.Int("status", status),
			slog.Any("error", err))
	}
}
