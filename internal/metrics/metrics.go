// Package metrics регистрирует счётчики Prometheus движка аудита.
// Значения отдаются обработчиком promhttp на маршруте /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuditsStarted — количество принятых в работу аудитов.
	AuditsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_engine_audits_started_total",
		Help: "Number of audits accepted for execution.",
	})

	// AuditsFinished — количество завершённых аудитов по конечным состояниям.
	AuditsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_engine_audits_finished_total",
		Help: "Number of audits per terminal status.",
	}, []string{"status"})

	// QuotaDenied — количество отказов по исчерпанной квоте.
	QuotaDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_engine_quota_denied_total",
		Help: "Number of submissions rejected because the monthly quota was exhausted.",
	})

	// CheckDuration — длительность выполнения проверок по категориям.
	CheckDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audit_engine_check_duration_seconds",
		Help:    "Duration of category checks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"})

	// CheckUnavailable — количество отказов внешних анализаторов.
	// Отдельный счётчик нужен для алертинга о недоступности коллабораторов.
	CheckUnavailable = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_engine_check_unavailable_total",
		Help: "Number of failed calls to external check backends.",
	}, []string{"category"})

	// ReportsMaterialized — количество сформированных отчётов.
	ReportsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_engine_reports_materialized_total",
		Help: "Number of generated reports.",
	})
)
