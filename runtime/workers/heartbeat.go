package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"lovefindme/observability"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker periodically samples the process' own memory and CPU usage
// and feeds it to the monitoring snapshot exposed by the debug inspector.
type HeartbeatWorker struct {
	log        *slog.Logger
	interval   time.Duration
	monitoring *observability.Monitoring
	online     func() int
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration,
	monitoring *observability.Monitoring, online func() int) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, monitoring: monitoring, online: online}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.monitoring.SetProcessStats(rss, cpu)
			w.log.Debug("Heartbeat",
				"rss_mb", rss/(1024*1024),
				"cpu_percent", cpu,
				"online_users", w.online(),
				"delivered", w.monitoring.Delivered())
		}
	}
}

// selfStats retrieves memory and CPU metrics for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
