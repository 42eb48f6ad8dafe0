// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldCorrelationID   = "correlation_id"
	FieldRequestID       = "request_id"
	FieldClientRequestID = "client_request_id"
	FieldJobID           = "job_id"

	// Domain fields
	FieldEvent       = "event"
	FieldComponent   = "component"
	FieldAppID       = "app_id"
	FieldEventName   = "event_name"
	FieldFeedbackID  = "feedback_id"
	FieldFeedbackKind = "feedback_kind"
	FieldDevice      = "device"
	FieldProfile     = "profile"
	FieldTheme       = "theme"
	FieldEndReason   = "end_reason"
	FieldClientBusID = "client_bus_id"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath = "path"
)
