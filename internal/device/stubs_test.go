// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

func TestFindForColor_PrefersSupportingLED(t *testing.T) {
	set, err := StubFactory{}.NewLEDSet()
	require.NoError(t, err)

	led, err := set.FindForColor(model.ColorRed)
	require.NoError(t, err)
	assert.Equal(t, model.LEDMulticolor, led.Variant())
}

func TestFindForColor_FallsBackToFirstNonFlash(t *testing.T) {
	leds := []LED{
		&stubLED{variant: model.LEDPlain, priority: 1, colors: map[model.ColorTag]bool{model.ColorFlash: true}},
		&stubLED{variant: model.LEDPlain, priority: 2, colors: map[model.ColorTag]bool{}},
	}
	led, err := findForColor(leds, model.ColorGreen)
	require.NoError(t, err)
	assert.Equal(t, 2, led.Priority())
}

func TestFindForColor_NoneAvailable(t *testing.T) {
	leds := []LED{
		&stubLED{variant: model.LEDPlain, priority: 1, colors: map[model.ColorTag]bool{model.ColorFlash: true}},
	}
	_, err := findForColor(leds, model.ColorGreen)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrNoDeviceForFeedback))
}

func TestStubHaptic_PlayRumbleCompletesAfterDuration(t *testing.T) {
	h := &stubHaptic{}
	done, err := h.PlayRumble(context.Background(), 0.5, 10, 0, 1)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rumble did not complete in time")
	}
}

func TestStubHaptic_StopCancelsInFlight(t *testing.T) {
	h := &stubHaptic{}
	done, err := h.PlayRumble(context.Background(), 0.5, 5*1000, 0, 1)
	require.NoError(t, err)

	require.NoError(t, h.Stop())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not unblock in-flight rumble")
	}
}

func TestStubHaptic_StopIdempotent(t *testing.T) {
	h := &stubHaptic{}
	assert.NoError(t, h.Stop())
	assert.NoError(t, h.Stop())
}

func TestStubSound_PlayAndCancel(t *testing.T) {
	s := &stubSound{cancels: map[string]context.CancelFunc{}}
	done, err := s.Play(context.Background(), "h1", "click", "event", "")
	require.NoError(t, err)

	require.NoError(t, s.Cancel("h1"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancel did not unblock playback")
	}
}

func TestStubSound_SetTheme(t *testing.T) {
	s := &stubSound{cancels: map[string]context.CancelFunc{}}
	s.SetTheme("ubuntu")
	assert.Equal(t, "ubuntu", s.theme)
}
