package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homesim/internal/device"
)

// maxQueryParamLen bounds identifiers accepted from the URL.
const maxQueryParamLen = 128

// handleListDevices returns the status of every device in registry order,
// optionally filtered by ?kind=.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var devices []device.StatusRecord

	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		kind, err := device.ParseKind(kindStr)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		devices = s.registry.StatusByKind(kind)
	} else {
		devices = s.registry.StatusReport()
	}

	if devices == nil {
		devices = []device.StatusRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device's status.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid device ID")
		return
	}

	for _, rec := range s.registry.StatusReport() {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeNotFound(w, "device not found")
}

// handleDeviceStats returns registry statistics.
func (s *Server) handleDeviceStats(w http.ResponseWriter, _ *http.Request) {
	stats := s.registry.GetStats()

	byKind := make(map[string]int, len(stats.ByKind))
	for k, n := range stats.ByKind {
		byKind[string(k)] = n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":      stats.TotalDevices,
		"capacity":   stats.Capacity,
		"powered_on": stats.PoweredOn,
		"by_kind":    byKind,
	})
}
