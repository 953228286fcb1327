package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/wordchain/game"
)

func TestMonitor_RecordsGameEvents(t *testing.T) {
	m := NewMonitor("wordchain")
	m.TrackRooms(func() int { return 4 })

	m.GameStarted("g1")
	m.MoveAccepted("g1", false, time.Millisecond)
	m.MoveAccepted("g1", true, time.Millisecond)
	m.MoveRejected("g1", game.ReasonSelfChain)
	m.MoveRejected("g1", game.ReasonSelfChain)
	m.MoveRejected("g1", game.ReasonAlreadyUsed)
	m.HintServed("g1", true)
	m.HintServed("g1", false)

	metrics := m.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GamesStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MovesAccepted))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChainRestarts))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MovesRejected.WithLabelValues("self_chain")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MovesRejected.WithLabelValues("already_used")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Hints.WithLabelValues("true")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.ActiveRooms))
}

func TestMonitor_IndependentRegistries(t *testing.T) {
	// two monitors in one process must not collide on registration
	a := NewMonitor("wordchain")
	b := NewMonitor("wordchain")

	a.IncOnlineSessions()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().OnlineSessions))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Metrics().OnlineSessions))
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("wordchain")
	m.GameStarted("g1")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "wordchain_games_started_total 1"))
	assert.Contains(t, body, "wordchain_uptime_seconds")
}
