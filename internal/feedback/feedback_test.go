// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package feedback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoshMobi/feedbackd/internal/device"
	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

func stubDevices(t *testing.T) Devices {
	t.Helper()
	leds, err := device.StubFactory{}.NewLEDSet()
	require.NoError(t, err)
	haptic, err := device.StubFactory{}.NewHapticDevice()
	require.NoError(t, err)
	sound, err := device.StubFactory{}.NewSoundPlayer()
	require.NoError(t, err)
	return Devices{LEDs: leds, Haptic: haptic, Sound: sound}
}

type doneRecorder struct {
	mu      sync.Mutex
	reasons []model.EndReason
	ch      chan model.EndReason
}

func newDoneRecorder() *doneRecorder {
	return &doneRecorder{ch: make(chan model.EndReason, 8)}
}

func (d *doneRecorder) onDone(reason model.EndReason) {
	d.mu.Lock()
	d.reasons = append(d.reasons, reason)
	d.mu.Unlock()
	d.ch <- reason
}

func (d *doneRecorder) waitOne(t *testing.T) model.EndReason {
	t.Helper()
	select {
	case r := <-d.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("onDone never fired")
		return 0
	}
}

func (d *doneRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.reasons)
}

func TestNew_MissingDeviceErrors(t *testing.T) {
	empty := Devices{}

	cases := []*model.Feedback{
		{Kind: model.KindSound, Sound: &model.SoundSpec{}},
		{Kind: model.KindVibraRumble, VibraRumble: &model.VibraRumbleSpec{}},
		{Kind: model.KindVibraPeriodic, VibraPeriodic: &model.VibraPeriodicSpec{}},
		{Kind: model.KindVibraPattern, VibraPattern: &model.VibraPatternSpec{}},
		{Kind: model.KindLed, Led: &model.LedSpec{}},
	}
	for _, fb := range cases {
		_, err := New(fb, empty, func(model.EndReason) {}, "h")
		require.Error(t, err)
		assert.True(t, ferrors.Is(err, ferrors.ErrNoDeviceForFeedback))
	}
}

func TestNew_UnknownKindErrors(t *testing.T) {
	_, err := New(&model.Feedback{Kind: model.FeedbackKind("bogus")}, Devices{}, func(model.EndReason) {}, "h")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrInvalidArgument))
}

func TestDummy_RunFiresNatural(t *testing.T) {
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindDummy}, Devices{}, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	assert.Equal(t, model.ReasonNatural, rec.waitOne(t))
}

func TestDummy_EndFiresOnceWithGivenReason(t *testing.T) {
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindDummy}, Devices{}, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.End(context.Background(), model.ReasonExplicit))
	require.NoError(t, v.End(context.Background(), model.ReasonNotFound))

	assert.Equal(t, model.ReasonExplicit, rec.waitOne(t))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "onDone must fire at most once")
}

func TestSound_RunThenNaturalCompletion(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindSound, Sound: &model.SoundSpec{EventName: "click", MediaRole: "event"}}, devices, rec.onDone, "h1")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	assert.Equal(t, model.ReasonNatural, rec.waitOne(t))
}

func TestSound_EndCancelsAndFiresReason(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindSound, Sound: &model.SoundSpec{EventName: "click"}}, devices, rec.onDone, "h1")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	require.NoError(t, v.End(context.Background(), model.ReasonExplicit))

	assert.Equal(t, model.ReasonExplicit, rec.waitOne(t))
}

func TestVibraRumble_RunCompletesNaturally(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindVibraRumble, VibraRumble: &model.VibraRumbleSpec{
		Count: 1, DurationMs: 5, PauseMs: 0, Magnitude: 0.5,
	}}, devices, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	assert.Equal(t, model.ReasonNatural, rec.waitOne(t))
}

func TestVibraPeriodic_RunThenEndStops(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindVibraPeriodic, VibraPeriodic: &model.VibraPeriodicSpec{Magnitude: 0.3}}, devices, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	require.NoError(t, v.End(context.Background(), model.ReasonExplicit))
	assert.Equal(t, model.ReasonExplicit, rec.waitOne(t))
}

func TestVibraPattern_RunCompletesNaturally(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindVibraPattern, VibraPattern: &model.VibraPatternSpec{
		Magnitudes: []float64{0.2, 0.4}, DurationsMs: []uint32{5, 5},
	}}, devices, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	assert.Equal(t, model.ReasonNatural, rec.waitOne(t))
}

func TestLed_RunThenEndTurnsOff(t *testing.T) {
	devices := stubDevices(t)
	rec := newDoneRecorder()
	v, err := New(&model.Feedback{Kind: model.KindLed, Led: &model.LedSpec{Color: model.ColorRed}}, devices, rec.onDone, "h")
	require.NoError(t, err)

	require.NoError(t, v.Run(context.Background()))
	require.NoError(t, v.End(context.Background(), model.ReasonExplicit))
	assert.Equal(t, model.ReasonExplicit, rec.waitOne(t))
}

type emptyLEDSet struct{}

func (emptyLEDSet) FindForColor(model.ColorTag) (device.LED, error) {
	return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no led supports the requested color", nil)
}
func (emptyLEDSet) Devices() []device.LED { return nil }
func (emptyLEDSet) Close() error          { return nil }

func TestLed_RunNoMatchingColorErrors(t *testing.T) {
	devices := Devices{LEDs: emptyLEDSet{}}
	v, err := New(&model.Feedback{Kind: model.KindLed, Led: &model.LedSpec{Color: model.ColorFlash}}, devices, func(model.EndReason) {}, "h")
	require.NoError(t, err)

	err = v.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ErrNoDeviceForFeedback))
}
