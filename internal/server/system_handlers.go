package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/1ucian0/client-superstaq/internal/clients/superstaq"
	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/1ucian0/client-superstaq/internal/scheduler"
)

// BalanceFetcher reports the remote account balance for the status
// endpoint. Nil values and errors degrade gracefully.
type BalanceFetcher interface {
	Balance(ctx context.Context) (*superstaq.BalanceResponse, error)
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log            zerolog.Logger
	dataDir        string
	historyDB      *database.DB
	jobsDB         *database.DB
	scheduler      *scheduler.Scheduler
	balanceFetcher BalanceFetcher

	// Jobs (set after registration in main.go)
	priceSyncJob  scheduler.Job
	jobRefreshJob scheduler.Job

	startedAt time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	historyDB, jobsDB *database.DB,
	sched *scheduler.Scheduler,
	balanceFetcher BalanceFetcher,
) *SystemHandlers {
	return &SystemHandlers{
		log:            log.With().Str("component", "system_handlers").Logger(),
		dataDir:        dataDir,
		historyDB:      historyDB,
		jobsDB:         jobsDB,
		scheduler:      sched,
		balanceFetcher: balanceFetcher,
		startedAt:      time.Now(),
	}
}

// SetJobs registers job instances for manual triggering
func (h *SystemHandlers) SetJobs(priceSync, jobRefresh scheduler.Job) {
	h.priceSyncJob = priceSync
	h.jobRefreshJob = jobRefresh
}

// SystemStatusResponse is the system status payload.
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	Goroutines    int     `json:"goroutines"`
	RemoteBalance string  `json:"remote_balance,omitempty"`
	RemoteError   string  `json:"remote_error,omitempty"`
}

// HandleSystemStatus returns process and host health.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuAvg, ramPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		CPUPercent:    cpuAvg,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	if h.balanceFetcher != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if balance, err := h.balanceFetcher.Balance(ctx); err != nil {
			resp.RemoteError = err.Error()
		} else {
			resp.RemoteBalance = balance.Balance.StringFixed(2)
		}
	}

	h.writeJSON(w, resp)
}

// HandleDatabaseStats returns per-database health and size info.
// GET /api/system/databases
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})
	for _, db := range []*database.DB{h.historyDB, h.jobsDB} {
		if db == nil {
			continue
		}
		s, err := db.GetStats()
		if err != nil {
			stats[db.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		stats[db.Name()] = s
	}
	h.writeJSON(w, stats)
}

// DiskUsageResponse reports data directory sizes in MB.
type DiskUsageResponse struct {
	DataDirMB float64 `json:"data_dir_mb"`
	LogsDirMB float64 `json:"logs_dir_mb"`
	TotalMB   float64 `json:"total_mb"`
}

// HandleDiskUsage returns disk usage of the data directory.
// GET /api/system/disk
func (h *SystemHandlers) HandleDiskUsage(w http.ResponseWriter, r *http.Request) {
	dataDirSize := h.getDirSize(h.dataDir)
	logsDirSize := h.getDirSize(filepath.Join(h.dataDir, "logs"))

	h.writeJSON(w, DiskUsageResponse{
		DataDirMB: dataDirSize,
		LogsDirMB: logsDirSize,
		TotalMB:   dataDirSize + logsDirSize,
	})
}

// HandleTriggerPriceSync runs the price sync job immediately.
// POST /api/system/jobs/price-sync
func (h *SystemHandlers) HandleTriggerPriceSync(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.priceSyncJob)
}

// HandleTriggerJobRefresh runs the job refresh job immediately.
// POST /api/system/jobs/job-refresh
func (h *SystemHandlers) HandleTriggerJobRefresh(w http.ResponseWriter, r *http.Request) {
	h.triggerJob(w, h.jobRefreshJob)
}

func (h *SystemHandlers) triggerJob(w http.ResponseWriter, job scheduler.Job) {
	if job == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		h.writeJSON(w, map[string]string{"error": "job not registered"})
		return
	}
	if err := h.scheduler.RunNow(job); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.writeJSON(w, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, map[string]string{"status": "ok", "job": job.Name()})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a short interval so the status endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
