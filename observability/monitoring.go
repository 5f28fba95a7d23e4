// Package observability aggregates runtime counters for the debug inspector
// and the heartbeat log line.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Monitoring collects delivery counters and the latest process stats.
// Counters are atomic so the hot send path never takes a lock.
type Monitoring struct {
	delivered uint64
	blocked   uint64
	failed    uint64

	mu        sync.RWMutex
	rssBytes  uint64
	cpu       float64
	startedAt time.Time
}

func NewMonitoring() *Monitoring {
	return &Monitoring{startedAt: time.Now().UTC()}
}

func (m *Monitoring) IncrDelivered() { atomic.AddUint64(&m.delivered, 1) }
func (m *Monitoring) IncrBlocked()   { atomic.AddUint64(&m.blocked, 1) }
func (m *Monitoring) IncrFailed()    { atomic.AddUint64(&m.failed, 1) }

func (m *Monitoring) Delivered() uint64 { return atomic.LoadUint64(&m.delivered) }
func (m *Monitoring) Blocked() uint64   { return atomic.LoadUint64(&m.blocked) }
func (m *Monitoring) Failed() uint64    { return atomic.LoadUint64(&m.failed) }

// SetProcessStats stores the latest self metrics reported by the heartbeat.
func (m *Monitoring) SetProcessStats(rssBytes uint64, cpu float64) {
	m.mu.Lock()
	m.rssBytes = rssBytes
	m.cpu = cpu
	m.mu.Unlock()
}

// Stats snapshots everything for the debug dashboard.
func (m *Monitoring) Stats() map[string]any {
	m.mu.RLock()
	rss, cpu := m.rssBytes, m.cpu
	m.mu.RUnlock()

	return map[string]any{
		"Delivered": m.Delivered(),
		"Blocked":   m.Blocked(),
		"Failed":    m.Failed(),
		"RssMb":     rss / (1024 * 1024),
		"Cpu":       cpu,
		"Uptime":    time.Since(m.startedAt).Round(time.Second).String(),
	}
}
