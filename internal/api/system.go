package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/homesim/internal/device"
	"github.com/nerrad567/homesim/internal/simulation"
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Simulation    *SimulationStatus `json:"simulation,omitempty"`
	Devices       DeviceSummary     `json:"devices"`
	WebSocket     WSMetrics         `json:"websocket"`
	Runtime       RuntimeMetrics    `json:"runtime"`
}

// SimulationStatus mirrors simulation.Status with the time rendered the way
// the console shows it.
type SimulationStatus struct {
	Mode        string `json:"mode"`
	Ticks       int    `json:"ticks"`
	Temperature int    `json:"temperature"`
	SimTime     string `json:"sim_time"`
	Step        string `json:"step"`
}

// DeviceSummary contains device registry statistics.
type DeviceSummary struct {
	Total     int `json:"total"`
	PoweredOn int `json:"powered_on"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns the simulation state plus process statistics.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := s.registry.GetStats()
	resp := StatusResponse{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Devices: DeviceSummary{
			Total:     stats.TotalDevices,
			PoweredOn: stats.PoweredOn,
		},
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		resp.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.sim != nil {
		resp.Simulation = simulationStatus(s.sim.Status())
	}

	writeJSON(w, http.StatusOK, resp)
}

func simulationStatus(st simulation.Status) *SimulationStatus {
	return &SimulationStatus{
		Mode:        st.Mode,
		Ticks:       st.Ticks,
		Temperature: st.Temperature,
		SimTime:     st.SimTime.Format(device.TimeLayout),
		Step:        st.Step,
	}
}
