package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	casesCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jetlex_cases_created_total",
			Help: "Total number of cases created, by procedure type.",
		},
		[]string{"procedure_type"},
	)

	phaseAlertsRaisedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jetlex_phase_alerts_raised_total",
			Help: "Total number of phases that crossed the alert threshold.",
		},
	)

	decisionClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jetlex_decision_classifications_total",
			Help: "Total number of decision classifications, by resulting level.",
		},
		[]string{"level"},
	)

	// MonitoringAlertsCreatedTotal counts stored monitoring alerts by source and priority
	MonitoringAlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jetlex_monitoring_alerts_created_total",
			Help: "Total number of monitoring alerts stored, by source and priority.",
		},
		[]string{"source", "priority"},
	)

	emailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jetlex_emails_sent_total",
			Help: "Total number of emails handed to the provider, by outcome.",
		},
		[]string{"outcome"},
	)
)
