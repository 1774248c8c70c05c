// Package health reports the state of running monitors over HTTP.
package health

import (
	"sync"

	"github.com/vietddude/taskwatch/internal/monitor"
)

// SystemStatus represents the overall health state of the system or a monitor.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// StatsSource is anything that can report monitor counters.
type StatsSource interface {
	Stats() monitor.Stats
}

// MonitorHealth contains health data for one monitor.
type MonitorHealth struct {
	monitor.Stats
	Status SystemStatus `json:"status"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus             `json:"system_status"`
	Monitors     map[string]MonitorHealth `json:"monitors"`
}

// Checker aggregates the status of registered monitors.
type Checker struct {
	mu      sync.RWMutex
	sources map[string]StatsSource
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{sources: make(map[string]StatsSource)}
}

// Register adds a monitor under name, replacing any previous one.
func (c *Checker) Register(name string, src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = src
}

// Check builds a report. The worst monitor status wins.
func (c *Checker) Check() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := Report{
		SystemStatus: StatusHealthy,
		Monitors:     make(map[string]MonitorHealth, len(c.sources)),
	}
	for name, src := range c.sources {
		st := src.Stats()
		h := MonitorHealth{Stats: st, Status: Evaluate(st)}
		report.Monitors[name] = h
		report.SystemStatus = worst(report.SystemStatus, h.Status)
	}
	return report
}

// Evaluate derives a status from monitor counters: any error is critical,
// warnings or sink failures are degraded.
func Evaluate(st monitor.Stats) SystemStatus {
	switch {
	case st.Errors > 0:
		return StatusCritical
	case st.Warnings > 0 || st.SinkErrors > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

func worst(a, b SystemStatus) SystemStatus {
	if a == StatusCritical || b == StatusCritical {
		return StatusCritical
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}
