package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// SysHealth represents real-time system metrics.
type SysHealth struct {
	Status       string `json:"status"`
	Database     string `json:"database,omitempty"`
	Uptime       string `json:"uptime,omitempty"`
	AllocMB      uint64 `json:"allocMb"`
	TotalAllocMB uint64 `json:"totalAllocMb"`
	SysMB        uint64 `json:"sysMb"`
	NumGC        uint32 `json:"numGc"`
	Goroutines   int    `json:"goroutines"`
	DataDiskSize string `json:"dataDiskSize"`
}

// GetSysHealth collects runtime stats and the size of dataPath.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		Status:       "ok",
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: calculateDirSize(dataPath),
	}
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker adds database reachability and uptime to GetSysHealth.
type HealthChecker struct {
	dataPath string
	db       Pinger
	started  time.Time
	now      func() time.Time
}

// NewHealthChecker creates a checker for the data directory and database.
// db may be nil.
func NewHealthChecker(dataPath string, db Pinger) *HealthChecker {
	return &HealthChecker{dataPath: dataPath, db: db, started: time.Now(), now: time.Now}
}

// Check reports "degraded" when the database does not answer.
func (h *HealthChecker) Check(ctx context.Context) SysHealth {
	health := GetSysHealth(h.dataPath)
	health.Uptime = h.now().Sub(h.started).Round(time.Second).String()
	if h.db != nil {
		health.Database = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			health.Status = "degraded"
			health.Database = err.Error()
		}
	}
	return health
}

func calculateDirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
