// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package feedback implements the run/end/on_done contract for each
// Feedback variant (§4.3) as a tagged interface sum, constructed by
// branching on the theme-declared kind — no inheritance, per §9
// "Polymorphic feedbacks".
package feedback

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/PhoshMobi/feedbackd/internal/device"
	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

// OnDone is invoked exactly once when a running variant finishes,
// cancels, or errors, delivered from the orchestrator's single dispatcher
// goroutine via the completion bus (§9).
type OnDone func(reason model.EndReason)

// Variant is the run/end contract every Feedback kind implements.
type Variant interface {
	// Run starts the feedback. It must not block; completion is reported
	// asynchronously through OnDone.
	Run(ctx context.Context) error
	// End requests a stop, reporting reason when the stop is observed.
	// Idempotent, safe before or after OnDone fires.
	End(ctx context.Context, reason model.EndReason) error
}

// Devices bundles the process-wide device singletons a variant may need.
// Any field may be nil (e.g. no haptic hardware); variants that need a
// missing device report ferrors.ErrNoDeviceForFeedback.
type Devices struct {
	LEDs   device.LEDSet
	Haptic device.HapticDevice
	Sound  device.SoundPlayer
}

// New constructs the Variant for fb, or an error if fb's kind requires a
// device that devices does not have.
func New(fb *model.Feedback, devices Devices, onDone OnDone, handle string) (Variant, error) {
	switch fb.Kind {
	case model.KindDummy:
		return &dummy{onDone: onDone}, nil
	case model.KindSound:
		if devices.Sound == nil {
			return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no sound device", nil)
		}
		return &sound{spec: fb.Sound, player: devices.Sound, onDone: onDone, handle: handle}, nil
	case model.KindVibraRumble:
		if devices.Haptic == nil {
			return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no haptic device", nil)
		}
		return &vibraRumble{spec: fb.VibraRumble, haptic: devices.Haptic, onDone: onDone}, nil
	case model.KindVibraPeriodic:
		if devices.Haptic == nil {
			return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no haptic device", nil)
		}
		return &vibraPeriodic{spec: fb.VibraPeriodic, haptic: devices.Haptic, onDone: onDone}, nil
	case model.KindVibraPattern:
		if devices.Haptic == nil {
			return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no haptic device", nil)
		}
		return &vibraPattern{spec: fb.VibraPattern, haptic: devices.Haptic, onDone: onDone}, nil
	case model.KindLed:
		if devices.LEDs == nil {
			return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no led device", nil)
		}
		return &ledFeedback{spec: fb.Led, leds: devices.LEDs, onDone: onDone}, nil
	default:
		return nil, ferrors.Wrap(ferrors.ErrInvalidArgument, "unknown feedback kind", nil)
	}
}

// once wraps an OnDone so it fires at most once, guarding against a
// completion race between natural finish and an explicit End call.
type once struct {
	fired  int32
	onDone OnDone
}

func (o *once) fire(reason model.EndReason) {
	if atomic.CompareAndSwapInt32(&o.fired, 0, 1) {
		o.onDone(reason)
	}
}

// dummy schedules an immediate on_done(Natural) on the next dispatcher turn
// (§4.3 "Dummy").
type dummy struct {
	onDone OnDone
	once   once
}

func (d *dummy) Run(ctx context.Context) error {
	d.once.onDone = d.onDone
	go func() {
		select {
		case <-ctx.Done():
			d.once.fire(model.ReasonExplicit)
		default:
			d.once.fire(model.ReasonNatural)
		}
	}()
	return nil
}

func (d *dummy) End(ctx context.Context, reason model.EndReason) error {
	d.once.fire(reason)
	return nil
}

// sound delegates to the sound device (§4.3 "Sound").
type sound struct {
	spec   *model.SoundSpec
	player device.SoundPlayer
	onDone OnDone
	handle string
	once   once
	mu     sync.Mutex
	done   <-chan struct{}
}

func (s *sound) Run(ctx context.Context) error {
	s.once.onDone = s.onDone
	done, err := s.player.Play(ctx, s.handle, s.spec.EventName, s.spec.MediaRole, s.spec.FileOverride)
	if err != nil {
		log.L().Warn().Err(err).Str("event", s.spec.EventName).Msg("sound playback failed to start")
		s.once.fire(model.ReasonNatural)
		return nil
	}
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()

	go func() {
		select {
		case <-done:
			s.once.fire(model.ReasonNatural)
		case <-ctx.Done():
			s.once.fire(model.ReasonExplicit)
		}
	}()
	return nil
}

func (s *sound) End(ctx context.Context, reason model.EndReason) error {
	_ = s.player.Cancel(s.handle)
	s.once.fire(reason)
	return nil
}

// vibraRumble plays count repetitions of duration×magnitude with pauseMs
// gaps (§4.3 "VibraRumble").
type vibraRumble struct {
	spec   *model.VibraRumbleSpec
	haptic device.HapticDevice
	onDone OnDone
	once   once
}

func (v *vibraRumble) Run(ctx context.Context) error {
	v.once.onDone = v.onDone
	done, err := v.haptic.PlayRumble(ctx, v.spec.Magnitude, v.spec.DurationMs, v.spec.PauseMs, v.spec.Count)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "vibra-rumble", err)
	}
	go func() {
		select {
		case <-done:
			v.once.fire(model.ReasonNatural)
		case <-ctx.Done():
			v.once.fire(model.ReasonExplicit)
		}
	}()
	return nil
}

func (v *vibraRumble) End(ctx context.Context, reason model.EndReason) error {
	_ = v.haptic.Stop()
	v.once.fire(reason)
	return nil
}

// vibraPeriodic runs until End or timeout (§4.3 "VibraPeriodic").
type vibraPeriodic struct {
	spec   *model.VibraPeriodicSpec
	haptic device.HapticDevice
	onDone OnDone
	once   once
}

func (v *vibraPeriodic) Run(ctx context.Context) error {
	v.once.onDone = v.onDone
	if err := v.haptic.PlayPeriodic(ctx, v.spec.Magnitude); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "vibra-periodic", err)
	}
	return nil
}

func (v *vibraPeriodic) End(ctx context.Context, reason model.EndReason) error {
	_ = v.haptic.Stop()
	v.once.fire(reason)
	return nil
}

// vibraPattern sequences magnitude/duration steps back-to-back (§4.3
// "VibraPattern").
type vibraPattern struct {
	spec   *model.VibraPatternSpec
	haptic device.HapticDevice
	onDone OnDone
	once   once
}

func (v *vibraPattern) Run(ctx context.Context) error {
	v.once.onDone = v.onDone
	done, err := v.haptic.PlayPattern(ctx, v.spec.Magnitudes, v.spec.DurationsMs)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "vibra-pattern", err)
	}
	go func() {
		select {
		case <-done:
			v.once.fire(model.ReasonNatural)
		case <-ctx.Done():
			v.once.fire(model.ReasonExplicit)
		}
	}()
	return nil
}

func (v *vibraPattern) End(ctx context.Context, reason model.EndReason) error {
	_ = v.haptic.Stop()
	v.once.fire(reason)
	return nil
}

// ledFeedback acquires a color-matching LED and blinks it; it only
// completes via End (§4.3 "Led": "infinite otherwise").
type ledFeedback struct {
	spec   *model.LedSpec
	leds   device.LEDSet
	onDone OnDone
	once   once
	mu     sync.Mutex
	led    device.LED
}

func (l *ledFeedback) Run(ctx context.Context) error {
	l.once.onDone = l.onDone
	led, err := l.leds.FindForColor(l.spec.Color)
	if err != nil {
		return ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "led", err)
	}
	l.mu.Lock()
	l.led = led
	l.mu.Unlock()

	if err := led.Blink(ctx, l.spec.RGB, l.spec.FrequencyMHz, l.spec.MaxBrightnessPct); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "led blink", err)
	}
	return nil
}

func (l *ledFeedback) End(ctx context.Context, reason model.EndReason) error {
	l.mu.Lock()
	led := l.led
	l.mu.Unlock()
	if led != nil {
		_ = led.Off(ctx)
	}
	l.once.fire(reason)
	return nil
}
