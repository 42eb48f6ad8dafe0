// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package device defines the capability contracts feedback variants drive:
// LED sets, a single haptic (vibrator) device, and a sound player. The
// shape mirrors the teacher's exec.Factory abstraction (Tuner/Transcoder)
// generalized to this daemon's heterogeneous backends.
package device

import (
	"context"

	"github.com/PhoshMobi/feedbackd/internal/model"
)

// LEDSet owns every probed LED and answers color-capability queries.
type LEDSet interface {
	// FindForColor implements §4.5 find_for_color: the first LED supporting
	// color, else the first non-FLASH LED, else an error.
	FindForColor(color model.ColorTag) (LED, error)
	// Devices returns every probed LED, sorted by priority descending.
	Devices() []LED
	Close() error
}

// LED drives one physical LED device through its sysfs attributes.
type LED interface {
	Variant() model.LEDVariant
	Priority() int
	SupportsColor(color model.ColorTag) bool
	// Blink starts a periodic pattern at the given frequency and brightness
	// percentage, optionally tinted to rgb for multicolor variants.
	Blink(ctx context.Context, rgb [3]uint8, frequencyMHz, maxBrightnessPct uint32) error
	// Off sets brightness to 0, disabling any running pattern (§4.5 "Stop").
	Off(ctx context.Context) error
}

// HapticDevice owns exactly one force-feedback node; only one uploaded
// effect is ever playing (§3 "Haptic device").
type HapticDevice interface {
	// PlayRumble uploads (or reuses) a periodic effect of the given
	// magnitude/duration and plays it repeatCount times with pauseMs gaps
	// between repetitions. done is closed when the sequence completes
	// naturally; ctx cancellation stops playback early.
	PlayRumble(ctx context.Context, magnitude float64, durationMs, pauseMs uint32, repeatCount uint32) (done <-chan struct{}, err error)
	// PlayPeriodic starts an indefinite periodic effect; it runs until ctx
	// is cancelled or Stop is called.
	PlayPeriodic(ctx context.Context, magnitude float64) error
	// PlayPattern sequences steps back-to-back, uploading a new effect at
	// each boundary; done closes after the last step completes naturally.
	PlayPattern(ctx context.Context, magnitudes []float64, durationsMs []uint32) (done <-chan struct{}, err error)
	// Stop halts whatever effect is currently playing. Idempotent.
	Stop() error
}

// SoundPlayer plays named sound-theme events or explicit files and supports
// per-playback cancellation (§4.7).
type SoundPlayer interface {
	// Play starts playback identified by handle for later cancellation via
	// Cancel. done is closed on natural completion.
	Play(ctx context.Context, handle string, eventName, mediaRole, fileOverride string) (done <-chan struct{}, err error)
	Cancel(handle string) error
	// SetTheme re-applies the sound theme's canberra-style context
	// attribute before the next playback (§4.7).
	SetTheme(name string)
}

// Factory constructs the concrete device backends for the running host.
// A StubFactory exists for tests and virtualized environments where no
// sysfs/ioctl devices are present.
type Factory interface {
	NewLEDSet() (LEDSet, error)
	// NewHapticDevice returns nil, nil when no vibrator hardware is present
	// — the Haptic bus interface is then not published (§4.6).
	NewHapticDevice() (HapticDevice, error)
	NewSoundPlayer() (SoundPlayer, error)
}
