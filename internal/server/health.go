// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

type healthStatus struct {
	Status                string       `json:"status"`
	Service               string       `json:"service"`
	Version               string       `json:"version"`
	Backend               string       `json:"backend"`
	OutputDirectory       string       `json:"output_directory"`
	OutputDirectoryExists bool         `json:"output_directory_exists"`
	UptimeSeconds         int64        `json:"uptime_seconds"`
	Process               *processInfo `json:"process,omitempty"`
}

type processInfo struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}

type serviceInfo struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, serviceInfo{
		Message: serviceName + " API",
		Status:  "running",
		Version: Version,
		Endpoints: map[string]string{
			"health":  "/health",
			"process": "/process",
			"audio":   "/audio/{filename}",
			"files":   "/files",
			"batches": "/batches",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	info, err := os.Stat(s.store.Dir())
	status := healthStatus{
		Status:                "healthy",
		Service:               serviceName,
		Version:               Version,
		Backend:               "operational",
		OutputDirectory:       s.store.Dir(),
		OutputDirectoryExists: err == nil && info.IsDir(),
		UptimeSeconds:         int64(time.Since(s.started).Seconds()),
		Process:               selfStats(),
	}
	if !status.OutputDirectoryExists {
		status.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, status)
}

// selfStats reports memory and CPU of this process, or nil when the
// platform does not expose them.
func selfStats() *processInfo {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return nil
	}
	cpu, _ := p.CPUPercent()
	return &processInfo{PID: p.Pid, RSSBytes: mem.RSS, CPUPercent: cpu}
}
