package arcade

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/germanamz/gridrop/pkg/game"
	"github.com/germanamz/gridrop/pkg/session"
)

// Metrics records controller activity as Prometheus collectors. It
// implements session.Observer.
type Metrics struct {
	moves           *prometheus.CounterVec
	finished        *prometheus.CounterVec
	inconsistencies *prometheus.CounterVec
	persistErrors   *prometheus.CounterVec
	aiLatency       *prometheus.HistogramVec
}

var _ session.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors under namespace and registers them with
// reg. A nil reg skips registration.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Move requests by game, acting side and outcome.",
		}, []string{"game", "actor", "status"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by game and result.",
		}, []string{"game", "result"}),
		inconsistencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_inconsistencies_total",
			Help:      "Sessions failed because the engine contradicted itself.",
		}, []string{"game"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Checkpoints that could not be written.",
		}, []string{"game"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_move_seconds",
			Help:      "Time the AI spent choosing a move.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"game"}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("arcade: register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.moves, m.finished, m.inconsistencies, m.persistErrors, m.aiLatency}
}

// Observe updates the collectors for e.
func (m *Metrics) Observe(_ context.Context, e session.Event) {
	g := string(e.Game)

	switch e.Kind {
	case session.EventMoveAccepted:
		m.moves.WithLabelValues(g, actorLabel(e.Outcome), "accepted").Inc()
		if e.Outcome.ByAI {
			m.aiLatency.WithLabelValues(g).Observe(e.Elapsed.Seconds())
		}
	case session.EventMoveRejected:
		m.moves.WithLabelValues(g, actorLabel(e.Outcome), "rejected").Inc()
	case session.EventGameOver:
		m.finished.WithLabelValues(g, resultLabel(e.Outcome.Result)).Inc()
	case session.EventError:
		if errors.Is(e.Err, game.ErrEngineInconsistency) {
			m.inconsistencies.WithLabelValues(g).Inc()
		} else {
			m.persistErrors.WithLabelValues(g).Inc()
		}
	}
}

func actorLabel(o session.Outcome) string {
	if o.ByAI {
		return "ai"
	}
	return "human"
}

func resultLabel(r game.Result) string {
	if r.Status == game.Win {
		return "win_" + r.Winner.String()
	}

	return r.Status.String()
}
