package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/combatlog/internal/match"
	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func testEvent() match.IngestEvent {
	return match.IngestEvent{
		MatchID: 1,
		Stats:   combatlog.Stats{Lines: 4, Events: 3, Ignored: 1},
		Entries: []combatlog.Entry{
			{MatchID: 1, Timestamp: 10, Event: combatlog.HeroKilledEvt{Actor: "mars", Target: "rubick"}},
			{MatchID: 1, Timestamp: 20, Event: combatlog.DamageDealtEvt{Actor: "mars", Target: "rubick", Ability: "mars_spear", Damage: 40}},
			{MatchID: 1, Timestamp: 30, Event: combatlog.DamageDealtEvt{Actor: "mars", Target: "rubick", Ability: "mars_spear", Damage: 2}},
		},
	}
}

func TestObserve(t *testing.T) {
	metrics := New(prometheus.NewRegistry(), broadcaster.New[match.EventType, match.IngestEvent]())

	metrics.observe(testEvent())
	metrics.observe(match.IngestEvent{Err: combatlog.ErrEmptyLog})

	collector := metrics.collector
	require.InDelta(t, 1, testutil.ToFloat64(collector.MatchCounter.WithLabelValues("ingested")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(collector.MatchCounter.WithLabelValues("rejected")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(collector.EventCounter.WithLabelValues("HERO_KILLED")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(collector.EventCounter.WithLabelValues("DAMAGE_DONE")), 0)
	require.InDelta(t, 42, testutil.ToFloat64(collector.DamageCounter), 0)
	require.InDelta(t, 1, testutil.ToFloat64(collector.LineCounter.WithLabelValues("ignored")), 0)
}

func TestObserveBoundedSeries(t *testing.T) {
	metrics := New(prometheus.NewRegistry(), broadcaster.New[match.EventType, match.IngestEvent]())

	event := match.IngestEvent{MatchID: 1, Stats: combatlog.Stats{Events: 5000}}
	for idx := range 5000 {
		event.Entries = append(event.Entries, combatlog.Entry{
			MatchID: 1,
			Event:   combatlog.DamageDealtEvt{Actor: "a", Target: fmt.Sprintf("b_%d", idx), Ability: fmt.Sprintf("junk_%d", idx), Damage: 1},
		})
	}

	metrics.observe(event)

	require.Equal(t, 1, testutil.CollectAndCount(metrics.collector.DamageCounter))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.collector.EventCounter))
	require.InDelta(t, 5000, testutil.ToFloat64(metrics.collector.DamageCounter), 0)
}

func TestStartConsumesBroadcast(t *testing.T) {
	events := broadcaster.New[match.EventType, match.IngestEvent]()
	metrics := New(prometheus.NewRegistry(), events)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	go func() {
		metrics.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		events.Emit(match.MatchRejected, match.IngestEvent{Err: errors.New("failed")})

		return testutil.ToFloat64(metrics.collector.MatchCounter.WithLabelValues("rejected")) > 0
	}, time.Second*5, time.Millisecond*10)

	cancel()
	<-done
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := New(registry, broadcaster.New[match.EventType, match.IngestEvent]())
	metrics.observe(testEvent())

	engine := gin.New()
	NewHandler(engine, registry)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/metrics", nil)
	engine.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `combatlog_events_total{kind="HERO_KILLED"} 1`)
}
