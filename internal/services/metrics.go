package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "social"

var (
	friendOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "friends",
		Name:      "operations_total",
		Help:      "Friend relationship operations by operation and result.",
	}, []string{"operation", "result"})

	notificationDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "notifications",
		Name:      "deliveries_total",
		Help:      "Notification deliveries by channel (store, websocket, push) and result.",
	}, []string{"channel", "result"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "websocket",
		Name:      "connections",
		Help:      "Currently registered WebSocket connections.",
	})

	messagesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "messages",
		Name:      "sent_total",
		Help:      "Direct messages persisted.",
	})
)

// resultLabel maps an error to a low-cardinality metric label
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func observeFriendOp(operation string, err error) {
	friendOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}
