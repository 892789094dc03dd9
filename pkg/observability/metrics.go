package observability

import (
	"context"
	"errors"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "switchboard"

// Metrics holds the router collectors.
type Metrics struct {
	Turns        *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	ToolCalls    *prometheus.CounterVec
	Approvals    *prometheus.CounterVec
	Handoffs     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Registering twice on the same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns handled, by outcome.",
		}, []string{"outcome"}),
		TurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of SubmitTurn and ResumeTurn calls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Executed tool calls, by tool and status.",
		}, []string{"tool", "status"}),
		Approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Decisions on suspended sensitive batches.",
		}, []string{"decision"}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Dialog stack transitions, by target controller and direction.",
		}, []string{"controller", "direction"}),
	}

	var err error
	if m.Turns, err = register(reg, m.Turns); err != nil {
		return nil, err
	}
	if m.TurnDuration, err = register(reg, m.TurnDuration); err != nil {
		return nil, err
	}
	if m.ToolCalls, err = register(reg, m.ToolCalls); err != nil {
		return nil, err
	}
	if m.Approvals, err = register(reg, m.Approvals); err != nil {
		return nil, err
	}
	if m.Handoffs, err = register(reg, m.Handoffs); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// Hooks feeds the collectors from router events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(e.Outcome)).Inc()
			m.TurnDuration.Observe(e.Duration.Seconds())
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			status := "ok"
			if e.IsError {
				status = "error"
			}
			m.ToolCalls.WithLabelValues(e.ToolName, status).Inc()
		},
		OnApproval: func(_ context.Context, e *domain.ApprovalEvent) {
			decision := "denied"
			if e.Approved {
				decision = "approved"
			}
			m.Approvals.WithLabelValues(decision).Inc()
		},
		OnHandoff: func(_ context.Context, e *domain.HandoffEvent) {
			m.Handoffs.WithLabelValues(e.To, string(e.Direction)).Inc()
		},
	}
}
