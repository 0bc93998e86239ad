package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gachi-analyzer/domain/screen"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.FrameSampled(screen.Loading)
	r.FrameSampled(screen.Loading)
	r.FrameSampled(screen.Unknown)
	r.FrameSkipped(42)
	r.WorkerStarted()
	r.WorkerStarted()
	r.WorkerFinished()
	r.RecordResult(7, 2)
	r.ObserveStage("sample", 1500*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.framesSampled.WithLabelValues("Loading")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesSampled.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.framesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.activeWorkers))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.eventsCollapsed))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.battlesDetected))
	assert.Equal(t, 1, testutil.CollectAndCount(r.stageDuration))
}

func TestRecorderWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RecordResult(3, 1)

	path := filepath.Join(t.TempDir(), "gachi.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "gachi_battles_detected_total 1"), string(data))
	assert.Contains(t, string(data), "gachi_timeline_events 3")
}
