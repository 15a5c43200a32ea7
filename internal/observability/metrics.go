package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	classifications map[string]int64
	resolutions     map[string]*latency
}

type latency struct {
	count int64
	total time.Duration
	max   time.Duration
}

// LatencySnapshot summarizes recorded resolution latencies for one priority.
type LatencySnapshot struct {
	Count        int64   `json:"count"`
	AverageHours float64 `json:"averageHours"`
	MaxHours     float64 `json:"maxHours"`
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests        map[string]int64           `json:"requests"`
	Errors          map[string]int64           `json:"errors"`
	Classifications map[string]int64           `json:"classifications"`
	Resolutions     map[string]LatencySnapshot `json:"resolutions"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		classifications: make(map[string]int64),
		resolutions:     make(map[string]*latency),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordClassification counts classifier outcomes, e.g. "category|ok" or "priority|default".
func (m *Metrics) RecordClassification(kind, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications[kind+"|"+outcome]++
}

// RecordResolution tracks the time from ticket creation to resolution.
func (m *Metrics) RecordResolution(priority string, d time.Duration) {
	if m == nil || d < 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.resolutions[priority]
	if !ok {
		l = &latency{}
		m.resolutions[priority] = l
	}
	l.count++
	l.total += d
	if d > l.max {
		l.max = d
	}
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:        copyCounts(m.requestCount),
		Errors:          copyCounts(m.errorCount),
		Classifications: copyCounts(m.classifications),
		Resolutions:     make(map[string]LatencySnapshot, len(m.resolutions)),
	}
	for priority, l := range m.resolutions {
		snap.Resolutions[priority] = LatencySnapshot{
			Count:        l.count,
			AverageHours: (l.total / time.Duration(l.count)).Hours(),
			MaxHours:     l.max.Hours(),
		}
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
