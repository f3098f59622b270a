package metrics

import (
	"fmt"
	"os"
	"runtime"
)

// SysHealth is the process snapshot reported by the health endpoint.
type SysHealth struct {
	AllocMB      uint64 `json:"alloc_mb"`
	SysMB        uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	Goroutines   int    `json:"goroutines"`
	DatabaseSize string `json:"database_size"`
}

// GetSysHealth collects real-time health data. A missing database file
// reports its size as "unknown".
func GetSysHealth(databasePath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	size := "unknown"
	if info, err := os.Stat(databasePath); err == nil {
		size = humanBytes(info.Size())
	}

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DatabaseSize: size,
	}
}

func humanBytes(size int64) string {
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
