package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, time.Millisecond)
	m.RecordError("/api/tickets", "POST", "VALIDATION_FAILED")
	m.RecordClassification("category", "default")
	m.RecordResolution("high", 2*time.Hour)
	m.RecordResolution("high", 4*time.Hour)
	m.RecordResolution("low", -time.Hour)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/tickets|POST|VALIDATION_FAILED"])
	assert.Equal(t, int64(1), snap.Classifications["category|default"])
	assert.Equal(t, LatencySnapshot{Count: 2, AverageHours: 3, MaxHours: 4}, snap.Resolutions["high"])
	assert.NotContains(t, snap.Resolutions, "low")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordClassification("priority", "ok")
		m.RecordResolution("urgent", time.Minute)
	})
}
