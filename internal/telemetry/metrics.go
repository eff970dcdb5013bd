package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики mindci. Регистрируются в default registry через promauto,
// экспортируются promhttp-хендлером каждого сервиса.
var (
	// WebhooksTotal — количество принятых webhook-запросов по результату:
	// accepted, ignored, invalid_command, unauthorized, error.
	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindci_webhooks_total",
		Help: "GitHub webhook deliveries by outcome",
	}, []string{"outcome"})

	// RunsTotal — количество завершённых runs по статусу.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindci_runs_total",
		Help: "Finished runs by terminal status",
	}, []string{"status"})

	// StepDuration — длительность выполнения шагов по типу.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mindci_step_duration_seconds",
		Help:    "Step execution duration by step type",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600, 7200},
	}, []string{"type"})

	// StepsTotal — количество выполненных шагов по типу и статусу.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindci_steps_total",
		Help: "Executed steps by type and terminal status",
	}, []string{"type", "status"})
)
