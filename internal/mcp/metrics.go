package mcp

import (
	"sync"
	"time"
)

// ReloadMetrics tracks ancestry graph rebuilds. Safe for concurrent use.
type ReloadMetrics struct {
	lastReloadTime     time.Time
	lastReloadDuration time.Duration
	lastReloadError    string
	totalReloads       int64
	successfulReloads  int64
	failedReloads      int64
	currentClassCount  int
	mu                 sync.RWMutex
}

// MetricsSnapshot is a copy of the reload metrics at one point in time.
type MetricsSnapshot struct {
	LastReloadTime     time.Time     `json:"last_reload_time"`
	LastReloadDuration time.Duration `json:"last_reload_duration_ns"`
	LastReloadError    string        `json:"last_reload_error,omitempty"`
	TotalReloads       int64         `json:"total_reloads"`
	SuccessfulReloads  int64         `json:"successful_reloads"`
	FailedReloads      int64         `json:"failed_reloads"`
	CurrentClassCount  int           `json:"current_class_count"`
}

// NewReloadMetrics creates a new ReloadMetrics instance with zero values.
func NewReloadMetrics() *ReloadMetrics {
	return &ReloadMetrics{}
}

// RecordReload records the outcome of one rebuild. A failed rebuild keeps
// the previous class count, since the previous graph stays in service.
func (m *ReloadMetrics) RecordReload(duration time.Duration, err error, classCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastReloadTime = time.Now()
	m.lastReloadDuration = duration
	m.totalReloads++

	if err != nil {
		m.failedReloads++
		m.lastReloadError = err.Error()
		return
	}
	m.successfulReloads++
	m.lastReloadError = ""
	m.currentClassCount = classCount
}

// GetMetrics returns a snapshot of the current metrics.
func (m *ReloadMetrics) GetMetrics() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		LastReloadTime:     m.lastReloadTime,
		LastReloadDuration: m.lastReloadDuration,
		LastReloadError:    m.lastReloadError,
		TotalReloads:       m.totalReloads,
		SuccessfulReloads:  m.successfulReloads,
		FailedReloads:      m.failedReloads,
		CurrentClassCount:  m.currentClassCount,
	}
}
