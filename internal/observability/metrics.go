package observability

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandExecutions counts dispatcher command executions by command and outcome.
	CommandExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gather_command_executions_total",
		Help: "Total number of dispatcher command executions",
	}, []string{"command", "outcome"})

	// LoginAttempts counts login attempts by outcome (success, not_found, banned, bad_password).
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gather_login_attempts_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// PersistenceWrites counts gateway SaveAll calls by collection and outcome.
	PersistenceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gather_persistence_writes_total",
		Help: "Total number of persistence gateway writes",
	}, []string{"collection", "outcome"})

	// SessionErrors counts session registry failures by operation.
	SessionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gather_session_errors_total",
		Help: "Total number of session registry errors by operation",
	}, []string{"operation"})
)

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the HTTP metrics middleware for the given service
// name. The middleware registers collectors globally, so the instance is
// created once and shared.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New(serviceName)
	})
	return promMiddleware
}
