package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime"
	"time"
)

var startTime = time.Now()

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store        Pinger
	storeBackend string
	storePath    string
}

// NewHealthHandler creates a new health handler. storePath is the on-disk
// location of file and sqlite stores and may be empty.
func NewHealthHandler(store Pinger, storeBackend, storePath string) *HealthHandler {
	return &HealthHandler{
		store:        store,
		storeBackend: storeBackend,
		storePath:    storePath,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /ready - the token store must be reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "error",
			Store:  h.storeBackend,
			Error:  err.Error(),
		})
		return
	}
	writeHealth(w, http.StatusOK, HealthResponse{Status: "ok", Store: h.storeBackend})
}

func writeHealth(w http.ResponseWriter, status int, resp HealthResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// SystemStats contains process and store disk statistics.
type SystemStats struct {
	Uptime         int64   `json:"uptime_seconds"`
	UptimeHuman    string  `json:"uptime_human"`
	MemAllocMB     int64   `json:"mem_alloc_mb"`
	MemSysMB       int64   `json:"mem_sys_mb"`
	NumGoroutines  int     `json:"num_goroutines"`
	NumCPU         int     `json:"num_cpu"`
	CPUPct         float64 `json:"cpu_pct"`
	StoreBackend   string  `json:"store_backend"`
	StorePath      string  `json:"store_path,omitempty"`
	DiskTotalBytes int64   `json:"disk_total_bytes,omitempty"`
	DiskFreeBytes  int64   `json:"disk_free_bytes,omitempty"`
	DiskUsedPct    float64 `json:"disk_used_pct,omitempty"`
}

// Stats handles GET /stats.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)
	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		CPUPct:        getCPUUsage(),
		StoreBackend:  h.storeBackend,
		StorePath:     h.storePath,
	}
	if h.storePath != "" {
		total, free, _, pct := getDiskStats(filepath.Dir(h.storePath))
		stats.DiskTotalBytes = total
		stats.DiskFreeBytes = free
		stats.DiskUsedPct = pct
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
