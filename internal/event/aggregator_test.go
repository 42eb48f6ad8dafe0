// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoshMobi/feedbackd/internal/device"
	"github.com/PhoshMobi/feedbackd/internal/feedback"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

func stubDevices(t *testing.T) feedback.Devices {
	t.Helper()
	leds, err := device.StubFactory{}.NewLEDSet()
	require.NoError(t, err)
	haptic, err := device.StubFactory{}.NewHapticDevice()
	require.NoError(t, err)
	sound, err := device.StubFactory{}.NewSoundPlayer()
	require.NoError(t, err)
	return feedback.Devices{LEDs: leds, Haptic: haptic, Sound: sound}
}

type endedRecorder struct {
	mu      sync.Mutex
	ids     []uint32
	reasons []model.EndReason
	ch      chan struct{}
}

func newEndedRecorder() *endedRecorder {
	return &endedRecorder{ch: make(chan struct{}, 8)}
}

func (r *endedRecorder) onEnded(id uint32, reason model.EndReason) {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.reasons = append(r.reasons, reason)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *endedRecorder) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("onEnded never fired")
	}
}

func (r *endedRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

func (r *endedRecorder) lastReason() model.EndReason {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reasons[len(r.reasons)-1]
}

func TestAggregator_Start_EmptyFeedbacksEndsWithNotFound(t *testing.T) {
	rec := newEndedRecorder()
	ev := &model.Event{ID: 1}
	agg := New(context.Background(), ev, func(model.CompletionMsg) {}, rec.onEnded)

	agg.Start(feedback.Devices{})

	rec.waitOne(t)
	assert.Equal(t, model.ReasonNotFound, rec.lastReason())
	assert.Equal(t, model.EventEnded, ev.State)
}

func TestAggregator_Start_DummyFeedbackEndsNaturally(t *testing.T) {
	rec := newEndedRecorder()
	ev := &model.Event{ID: 2, Feedbacks: []*model.Feedback{{Index: 0, Kind: model.KindDummy}}}

	var agg *Aggregator
	agg = New(context.Background(), ev, func(msg model.CompletionMsg) {
		agg.HandleCompletion(msg.FeedbackIndex, msg.Reason)
	}, rec.onEnded)

	agg.Start(feedback.Devices{})

	rec.waitOne(t)
	assert.Equal(t, model.ReasonNatural, rec.lastReason())
}

func TestAggregator_Start_AllFeedbacksMustSettleBeforeFinalize(t *testing.T) {
	rec := newEndedRecorder()
	ev := &model.Event{ID: 3, Feedbacks: []*model.Feedback{
		{Index: 0, Kind: model.KindDummy},
		{Index: 1, Kind: model.KindDummy},
	}}

	var agg *Aggregator
	agg = New(context.Background(), ev, func(msg model.CompletionMsg) {
		agg.HandleCompletion(msg.FeedbackIndex, msg.Reason)
	}, rec.onEnded)

	agg.Start(feedback.Devices{})

	rec.waitOne(t)
	assert.Equal(t, 1, rec.count(), "finalize fires exactly once for the whole event")
}

func TestAggregator_End_IsIdempotent(t *testing.T) {
	rec := newEndedRecorder()
	devices := stubDevices(t)
	ev := &model.Event{ID: 4, Feedbacks: []*model.Feedback{{Index: 0, Kind: model.KindLed, Led: &model.LedSpec{Color: model.ColorRed}}}}

	var agg *Aggregator
	agg = New(context.Background(), ev, func(msg model.CompletionMsg) {
		agg.HandleCompletion(msg.FeedbackIndex, msg.Reason)
	}, rec.onEnded)

	agg.Start(devices)
	agg.End(model.ReasonExplicit)
	agg.End(model.ReasonNotFound) // must not override or double-fire

	rec.waitOne(t)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, model.ReasonExplicit, rec.lastReason())
}

func TestAggregator_Start_TimeoutExpiresEvent(t *testing.T) {
	rec := newEndedRecorder()
	devices := stubDevices(t)
	ev := &model.Event{
		ID:       5,
		TimeoutS: 1,
		Feedbacks: []*model.Feedback{
			{Index: 0, Kind: model.KindLed, Led: &model.LedSpec{Color: model.ColorRed}},
		},
	}

	var agg *Aggregator
	agg = New(context.Background(), ev, func(msg model.CompletionMsg) {
		agg.HandleCompletion(msg.FeedbackIndex, msg.Reason)
	}, rec.onEnded)

	agg.Start(devices)

	select {
	case <-rec.ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout never expired the event")
	}
	assert.Equal(t, model.ReasonExpired, rec.lastReason())
}

func TestAggregator_HandleCompletion_IgnoresDuplicateForAlreadyEndedFeedback(t *testing.T) {
	rec := newEndedRecorder()
	ev := &model.Event{ID: 6, Feedbacks: []*model.Feedback{{Index: 0, Kind: model.KindDummy}}}

	var agg *Aggregator
	agg = New(context.Background(), ev, func(msg model.CompletionMsg) {
		agg.HandleCompletion(msg.FeedbackIndex, msg.Reason)
	}, rec.onEnded)

	agg.Start(feedback.Devices{})
	rec.waitOne(t)

	agg.HandleCompletion(0, model.ReasonExplicit)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "onEnded must not fire twice")
}
