package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ProgressDecisions(t *testing.T) {
	t.Parallel()

	r := New()
	r.ProgressForwarded()
	r.ProgressForwarded()
	r.ProgressSuppressed()

	assert.InDelta(t, 2, testutil.ToFloat64(r.progress.WithLabelValues(DecisionForwarded)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.progress.WithLabelValues(DecisionSuppressed)), 0)
}

func TestRecorder_KeysResolved(t *testing.T) {
	t.Parallel()

	r := New()
	r.KeyResolved()
	assert.InDelta(t, 1, testutil.ToFloat64(r.keys), 0)
}

func TestRecorder_InteractionFinished(t *testing.T) {
	t.Parallel()

	r := New()
	r.InteractionFinished("completed", 2*time.Second)
	r.InteractionFinished("failed", time.Second)
	r.InteractionFinished("bogus", time.Second)

	assert.InDelta(t, 1, testutil.ToFloat64(r.interactions.WithLabelValues("completed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.interactions.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.interactions.WithLabelValues("unknown")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))

	expected := `
# HELP zipsign_keys_resolved_total Total number of signing key announcements
# TYPE zipsign_keys_resolved_total counter
zipsign_keys_resolved_total 0
`
	require.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "zipsign_keys_resolved_total"))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.WriteTextfile(""), "empty path disables output")

	r.InteractionFinished("canceled", 100*time.Millisecond)
	path := filepath.Join(t.TempDir(), "zipsign.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	assert.Contains(t, string(data), `zipsign_interactions_total{outcome="canceled"} 1`)
	assert.Contains(t, string(data), "zipsign_interaction_duration_seconds_count 1")
}
