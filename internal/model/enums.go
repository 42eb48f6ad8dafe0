// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the runtime data types shared by the orchestrator,
// theme resolver and device drivers: events, feedback variants, profile
// levels and end reasons.
package model

// ProfileLevel is the daemon-wide or per-app noise level.
type ProfileLevel string

const (
	ProfileFull   ProfileLevel = "full"
	ProfileQuiet  ProfileLevel = "quiet"
	ProfileSilent ProfileLevel = "silent"
)

// Valid reports whether l is one of the three recognized levels.
func (l ProfileLevel) Valid() bool {
	switch l {
	case ProfileFull, ProfileQuiet, ProfileSilent:
		return true
	}
	return false
}

// ProfilesToSearch returns the profiles consulted, in order, when resolving
// an event at the given active level (§4.2/§4.4).
func (l ProfileLevel) ProfilesToSearch() []ProfileLevel {
	switch l {
	case ProfileFull:
		return []ProfileLevel{ProfileFull, ProfileQuiet, ProfileSilent}
	case ProfileQuiet:
		return []ProfileLevel{ProfileQuiet, ProfileSilent}
	case ProfileSilent:
		return []ProfileLevel{ProfileSilent}
	default:
		return []ProfileLevel{ProfileSilent}
	}
}

// EventState is the lifecycle state of a runtime Event.
type EventState int

const (
	EventNone EventState = iota
	EventRunning
	EventEnded
	EventErrored
)

func (s EventState) String() string {
	switch s {
	case EventNone:
		return "none"
	case EventRunning:
		return "running"
	case EventEnded:
		return "ended"
	case EventErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// EndReason explains why an Event's feedback run ended. The numeric values
// match the Feedback.FeedbackEnded signal encoding in §6.
type EndReason int

const (
	ReasonNatural EndReason = iota
	ReasonExpired
	ReasonExplicit
	ReasonNotFound
)

func (r EndReason) String() string {
	switch r {
	case ReasonNatural:
		return "natural"
	case ReasonExpired:
		return "expired"
	case ReasonExplicit:
		return "explicit"
	case ReasonNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Precedence returns the priority of r under NotFound > Expired > Explicit >
// Natural (§4.1, §8 property 4). Higher wins.
func (r EndReason) Precedence() int {
	switch r {
	case ReasonNotFound:
		return 3
	case ReasonExpired:
		return 2
	case ReasonExplicit:
		return 1
	default:
		return 0
	}
}

// FeedbackState is the lifecycle state of a single Feedback instance.
type FeedbackState int

const (
	FeedbackNone FeedbackState = iota
	FeedbackRunning
	FeedbackEnding
	FeedbackEnded
)

func (s FeedbackState) String() string {
	switch s {
	case FeedbackNone:
		return "none"
	case FeedbackRunning:
		return "running"
	case FeedbackEnding:
		return "ending"
	case FeedbackEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// FeedbackKind tags the concrete variant carried by a Feedback.
type FeedbackKind string

const (
	KindDummy         FeedbackKind = "dummy"
	KindSound         FeedbackKind = "sound"
	KindVibraRumble   FeedbackKind = "vibra-rumble"
	KindVibraPeriodic FeedbackKind = "vibra-periodic"
	KindVibraPattern  FeedbackKind = "vibra-pattern"
	KindLed           FeedbackKind = "led"
)

// ColorTag names a requested or supported LED color.
type ColorTag string

const (
	ColorWhite ColorTag = "white"
	ColorRed   ColorTag = "red"
	ColorGreen ColorTag = "green"
	ColorBlue  ColorTag = "blue"
	ColorFlash ColorTag = "flash"
	ColorRGB   ColorTag = "rgb"
)

// LEDVariant is the sysfs driving strategy a probed LED device uses.
type LEDVariant int

const (
	LEDPlain LEDVariant = iota
	LEDFlash
	LEDMulticolor
	LEDVendorQCOM
	LEDVendorQCOMMulti
)

func (v LEDVariant) String() string {
	switch v {
	case LEDPlain:
		return "plain"
	case LEDFlash:
		return "flash"
	case LEDMulticolor:
		return "multicolor"
	case LEDVendorQCOM:
		return "qcom-single"
	case LEDVendorQCOMMulti:
		return "qcom-multicolor"
	default:
		return "unknown"
	}
}
