package metrics

import (
	"context"
	"log/slog"

	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/leighmacdonald/combatlog/internal/match"
	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/prometheus/client_golang/prometheus"
)

type collector struct {
	MatchCounter    *prometheus.CounterVec
	EventCounter    *prometheus.CounterVec
	DamageCounter   prometheus.Counter
	LineCounter     *prometheus.CounterVec
	MatchEventsHist prometheus.Histogram
}

type Metrics struct {
	collector *collector
	eb        *broadcaster.Broadcaster[match.EventType, match.IngestEvent]
}

// New creates the collectors and registers them with registerer, usually prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer, events *broadcaster.Broadcaster[match.EventType, match.IngestEvent]) Metrics {
	return Metrics{collector: newMetricCollector(registerer), eb: events}
}

// Start begins processing ingestion events and updating any associated metrics. It blocks until ctx is done.
func (u Metrics) Start(ctx context.Context) {
	eventChan := make(chan match.IngestEvent)
	if errRegister := u.eb.Consume(eventChan); errRegister != nil {
		slog.Error("Failed to register event consumer", log.ErrAttr(errRegister))

		return
	}

	defer func() {
		// Keep receiving so a pending Emit cannot block the unregister.
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-eventChan:
				case <-done:
					return
				}
			}
		}()

		_ = u.eb.Unregister(eventChan)

		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case newEvent := <-eventChan:
			u.observe(newEvent)
		}
	}
}

func (u Metrics) observe(event match.IngestEvent) {
	if event.Err != nil {
		u.collector.MatchCounter.With(prometheus.Labels{"status": "rejected"}).Inc()

		return
	}

	u.collector.MatchCounter.With(prometheus.Labels{"status": "ingested"}).Inc()
	u.collector.MatchEventsHist.Observe(float64(event.Stats.Events))
	u.collector.LineCounter.With(prometheus.Labels{"result": "parsed"}).Add(float64(event.Stats.Events))
	u.collector.LineCounter.With(prometheus.Labels{"result": "ignored"}).Add(float64(event.Stats.Ignored))
	u.collector.LineCounter.With(prometheus.Labels{"result": "malformed"}).Add(float64(event.Stats.Malformed))
	u.collector.LineCounter.With(prometheus.Labels{"result": "duplicate"}).Add(float64(event.Stats.Duplicates))

	for _, entry := range event.Entries {
		u.collector.EventCounter.With(prometheus.Labels{"kind": entry.Kind().String()}).Inc()

		if evt, ok := entry.Event.(combatlog.DamageDealtEvt); ok {
			u.collector.DamageCounter.Add(float64(evt.Damage))
		}
	}
}

func newMetricCollector(registerer prometheus.Registerer) *collector {
	collector := &collector{
		MatchCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "combatlog_matches_total", Help: "Total combat logs submitted"},
			[]string{"status"}),

		EventCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "combatlog_events_total", Help: "Total events stored"},
			[]string{"kind"}),

		// Unlabelled since every name in an uploaded log is client controlled.
		DamageCounter: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "combatlog_damage_total", Help: "Total damage dealt"}),

		LineCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "combatlog_lines_total", Help: "Candidate lines by parse result"},
			[]string{"result"}),

		MatchEventsHist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "combatlog_match_events",
			Help:    "Events per ingested match",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}

	for _, metric := range []prometheus.Collector{
		collector.MatchCounter,
		collector.EventCounter,
		collector.DamageCounter,
		collector.LineCounter,
		collector.MatchEventsHist,
	} {
		if errRegister := registerer.Register(metric); errRegister != nil {
			slog.Warn("Failed to register metric", log.ErrAttr(errRegister))
		}
	}

	return collector
}
