// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"sync"
	"time"

	"github.com/PhoshMobi/feedbackd/internal/model"
)

// StubFactory builds in-memory device backends that simulate completion
// with timers instead of touching sysfs/ioctl, the way the teacher's
// StubFactory simulates tuner/transcoder timing for tests and virtual mode.
type StubFactory struct{}

func (StubFactory) NewLEDSet() (LEDSet, error) {
	return &stubLEDSet{leds: []*stubLED{
		{variant: model.LEDPlain, priority: 10, colors: map[model.ColorTag]bool{model.ColorWhite: true}},
		{variant: model.LEDMulticolor, priority: 5, colors: map[model.ColorTag]bool{
			model.ColorRed: true, model.ColorGreen: true, model.ColorBlue: true, model.ColorRGB: true,
		}},
	}}, nil
}

func (StubFactory) NewHapticDevice() (HapticDevice, error) {
	return &stubHaptic{}, nil
}

func (StubFactory) NewSoundPlayer() (SoundPlayer, error) {
	return &stubSound{cancels: map[string]context.CancelFunc{}}, nil
}

type stubLEDSet struct {
	leds []*stubLED
}

func (s *stubLEDSet) Devices() []LED {
	out := make([]LED, len(s.leds))
	for i, l := range s.leds {
		out[i] = l
	}
	return out
}

func (s *stubLEDSet) FindForColor(color model.ColorTag) (LED, error) {
	return findForColor(s.Devices(), color)
}

func (s *stubLEDSet) Close() error { return nil }

type stubLED struct {
	variant model.LEDVariant
	priority int
	colors  map[model.ColorTag]bool
	mu      sync.Mutex
	on      bool
}

func (l *stubLED) Variant() model.LEDVariant { return l.variant }
func (l *stubLED) Priority() int             { return l.priority }
func (l *stubLED) SupportsColor(c model.ColorTag) bool {
	return l.colors[c]
}
func (l *stubLED) Blink(_ context.Context, _ [3]uint8, _ uint32, _ uint32) error {
	l.mu.Lock()
	l.on = true
	l.mu.Unlock()
	return nil
}
func (l *stubLED) Off(_ context.Context) error {
	l.mu.Lock()
	l.on = false
	l.mu.Unlock()
	return nil
}

type stubHaptic struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

func (h *stubHaptic) PlayRumble(ctx context.Context, _ float64, durationMs, pauseMs uint32, repeatCount uint32) (<-chan struct{}, error) {
	runCtx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	done := make(chan struct{})
	total := time.Duration(repeatCount) * (time.Duration(durationMs)*time.Millisecond + time.Duration(pauseMs)*time.Millisecond)
	go func() {
		defer close(done)
		select {
		case <-time.After(total):
		case <-runCtx.Done():
		}
	}()
	return done, nil
}

func (h *stubHaptic) PlayPeriodic(ctx context.Context, _ float64) error {
	_, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	return nil
}

func (h *stubHaptic) PlayPattern(ctx context.Context, magnitudes []float64, durationsMs []uint32) (<-chan struct{}, error) {
	runCtx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	var total time.Duration
	for _, d := range durationsMs {
		total += time.Duration(d) * time.Millisecond
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-time.After(total):
		case <-runCtx.Done():
		}
	}()
	return done, nil
}

func (h *stubHaptic) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	return nil
}

type stubSound struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	theme   string
}

func (s *stubSound) Play(ctx context.Context, handle string, _ string, _ string, _ string) (<-chan struct{}, error) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancels[handle] = cancel
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-time.After(300 * time.Millisecond):
		case <-runCtx.Done():
		}
	}()
	return done, nil
}

func (s *stubSound) Cancel(handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[handle]; ok {
		cancel()
		delete(s.cancels, handle)
	}
	return nil
}

func (s *stubSound) SetTheme(name string) {
	s.mu.Lock()
	s.theme = name
	s.mu.Unlock()
}

// findForColor implements §4.5 find_for_color and is shared by the stub and
// sysfs-backed LED sets.
func findForColor(leds []LED, color model.ColorTag) (LED, error) {
	var best LED
	for _, l := range leds {
		if l.SupportsColor(color) {
			if best == nil || l.Priority() > best.Priority() {
				best = l
			}
		}
	}
	if best != nil {
		return best, nil
	}
	for _, l := range leds {
		if !l.SupportsColor(model.ColorFlash) {
			if best == nil || l.Priority() > best.Priority() {
				best = l
			}
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, errNoLEDForColor
}
