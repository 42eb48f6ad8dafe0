// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// Hints is the validated set of recognized TriggerFeedback hint keys (§4.1).
// Unknown keys are dropped at the RPC boundary; the core never sees an
// untyped map (§9 "Dynamic property bag").
type Hints struct {
	Profile    ProfileLevel // zero value means "not requested"
	Important  bool
	SoundFile  string // absolute path override, empty means "not set"
}

// Event is the runtime record for one TriggerFeedback call.
type Event struct {
	ID        uint32
	AppID     string
	Name      string
	Hints     Hints
	TimeoutS  int32 // >0 stop after N seconds; -1 and 0 arm no timer and feedbacks run their natural length (0 does not repeat them)
	State     EventState
	EndReason EndReason

	Feedbacks []*Feedback

	CorrelationID string
}

// ApplyEndReason updates e.EndReason under the precedence ordering in
// EndReason.Precedence, keeping the highest-priority reason seen so far.
func (e *Event) ApplyEndReason(reason EndReason) {
	if reason.Precedence() > e.EndReason.Precedence() {
		e.EndReason = reason
	}
}

// AllEnded reports whether every constituent feedback has reached FeedbackEnded.
func (e *Event) AllEnded() bool {
	for _, f := range e.Feedbacks {
		if f.State != FeedbackEnded {
			return false
		}
	}
	return true
}

// AnyRan reports whether at least one feedback ever left FeedbackNone.
func (e *Event) AnyRan() bool {
	for _, f := range e.Feedbacks {
		if f.everRan {
			return true
		}
	}
	return false
}

// Feedback is one concrete output action belonging to an Event.
type Feedback struct {
	Index int
	Kind  FeedbackKind
	State FeedbackState

	Sound         *SoundSpec
	VibraRumble   *VibraRumbleSpec
	VibraPeriodic *VibraPeriodicSpec
	VibraPattern  *VibraPatternSpec
	Led           *LedSpec

	everRan bool
	cancel  func() // variant-supplied stop hook, set by the runner
}

// MarkRunning records that the feedback has started driving its device.
func (f *Feedback) MarkRunning() {
	f.State = FeedbackRunning
	f.everRan = true
}

// Clone returns a fresh per-event copy of a theme-owned Feedback template,
// with runtime state reset. Theme entries are shared, read-only data
// referenced by every event that triggers that (profile, event-name) pair;
// without cloning, two concurrently-triggered events for the same event
// name would mutate the same Feedback.State through separate Aggregators.
// The variant spec (Sound/VibraRumble/.../Led) is never mutated after
// parsing, so it is safe to share by pointer across clones.
func (f *Feedback) Clone() *Feedback {
	c := *f
	c.State = FeedbackNone
	c.everRan = false
	c.cancel = nil
	return &c
}

type SoundSpec struct {
	EventName    string
	MediaRole    string // default "event"
	FileOverride string
}

type VibraRumbleSpec struct {
	Count      uint32
	PauseMs    uint32
	DurationMs uint32
	Magnitude  float64
}

type VibraPeriodicSpec struct {
	Magnitude float64
}

type VibraPatternSpec struct {
	Magnitudes  []float64
	DurationsMs []uint32
}

type LedSpec struct {
	Color             ColorTag
	RGB               [3]uint8 // the RGB value of Color, for named colors as well as ColorRGB
	FrequencyMHz      uint32
	MaxBrightnessPct  uint32 // default 100
}

// CompletionMsg is posted by a running feedback when it finishes, is
// cancelled, or errors (§9 "Async completions without callbacks-into-owner").
type CompletionMsg struct {
	EventID       uint32
	FeedbackIndex int
	Reason        EndReason
	At            time.Time
}

// VibratePoint is one (magnitude, duration) step of a direct Haptic.Vibrate
// pattern (§4.6), matching the wire tuple a(du). Lives in model rather than
// internal/sessionbus so internal/orchestrator can accept it without
// importing the bus-transport package.
type VibratePoint struct {
	DurationMs uint32
	Magnitude  float64
}
