package conversation

import (
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

const mb = 1024 * 1024

func logResourceUsage(stage string) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Debug("unable to inspect process", "stage", stage, "error", err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		slog.Debug("unable to read memory usage", "stage", stage, "error", err)
		return
	}

	// Percent(0) reports usage since the previous call without sleeping.
	cpu, err := proc.Percent(0)
	if err != nil {
		slog.Debug("unable to read cpu usage", "stage", stage, "error", err)
	}

	slog.Debug("resource usage", "stage", stage, "rss_mb", float64(mem.RSS)/mb, "vms_mb", float64(mem.VMS)/mb, "cpu_percent", cpu)
}
