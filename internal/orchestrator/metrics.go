// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbackd_events_triggered_total",
			Help: "Total TriggerFeedback calls accepted, by event name.",
		},
		[]string{"event"},
	)

	feedbackEndTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbackd_feedback_end_total",
			Help: "Total finalized events, by end reason.",
		},
		[]string{"reason"},
	)

	activeEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedbackd_active_events",
			Help: "Number of events currently running.",
		},
	)

	deviceDriveErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbackd_device_drive_errors_total",
			Help: "Total device drive errors, by device kind.",
		},
		[]string{"device"},
	)

	clientDisconnectCascadeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbackd_client_disconnect_cascade_total",
			Help: "Total events cancelled by a client bus-name loss.",
		},
	)
)
