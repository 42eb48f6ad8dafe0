// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package event implements the per-Event feedback aggregator (§4.4,
// component F): it holds the concrete Variant for every Feedback belonging
// to one triggered Event, starts them concurrently, tracks which have
// acknowledged on_done, and emits the Event's single FeedbackEnded signal
// once every constituent feedback has settled.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PhoshMobi/feedbackd/internal/feedback"
	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

// EndedFunc is invoked exactly once per Event, strictly after every
// constituent feedback has fired on_done (§5 "Ordering guarantees").
type EndedFunc func(eventID uint32, reason model.EndReason)

// Publish posts a feedback completion so the orchestrator's single
// dispatcher goroutine can apply it without reentering the aggregator from
// an arbitrary device callback goroutine (§9 "Async completions without
// callbacks-into-owner").
type Publish func(model.CompletionMsg)

// Aggregator owns one Event's runtime feedbacks and timeout.
type Aggregator struct {
	Event   *model.Event
	onEnded EndedFunc
	publish Publish

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	variants map[int]feedback.Variant
	ended    bool
	ending   bool
	timer    *time.Timer
}

// New constructs an Aggregator for ev. ctx is the parent dispatcher
// context; cancelling it force-ends every feedback (client disconnect or
// daemon shutdown). publish is how constructed feedbacks report completion
// back to the owning dispatcher loop.
func New(parent context.Context, ev *model.Event, publish Publish, onEnded EndedFunc) *Aggregator {
	ctx, cancel := context.WithCancel(parent)
	return &Aggregator{
		Event:    ev,
		onEnded:  onEnded,
		publish:  publish,
		ctx:      ctx,
		cancel:   cancel,
		variants: map[int]feedback.Variant{},
	}
}

// Start constructs and runs every feedback concurrently. If ev.Feedbacks is
// empty, the Event ends immediately with NotFound, without transitioning
// through Running, and the FeedbackEnded emission happens on the next
// dispatcher turn rather than reentrantly (§4.1 "TriggerFeedback").
func (a *Aggregator) Start(devices feedback.Devices) {
	if len(a.Event.Feedbacks) == 0 {
		a.Event.State = model.EventEnded
		a.Event.ApplyEndReason(model.ReasonNotFound)
		go a.finalize()
		return
	}

	a.Event.State = model.EventRunning

	if a.Event.TimeoutS > 0 {
		a.timer = time.AfterFunc(time.Duration(a.Event.TimeoutS)*time.Second, func() {
			a.End(model.ReasonExpired)
		})
	}

	for _, fb := range a.Event.Feedbacks {
		fb := fb
		handle := fmt.Sprintf("%d.%d", a.Event.ID, fb.Index)
		v, err := feedback.New(fb, devices, func(reason model.EndReason) {
			a.publish(model.CompletionMsg{EventID: a.Event.ID, FeedbackIndex: fb.Index, Reason: reason, At: time.Now()})
		}, handle)
		if err != nil {
			log.L().Warn().Err(err).Uint32("event_id", a.Event.ID).Int("feedback", fb.Index).Msg("feedback construction failed")
			a.HandleCompletion(fb.Index, model.ReasonNatural)
			continue
		}

		a.mu.Lock()
		a.variants[fb.Index] = v
		a.mu.Unlock()

		if err := v.Run(a.ctx); err != nil {
			log.L().Warn().Err(err).Uint32("event_id", a.Event.ID).Int("feedback", fb.Index).Msg("feedback run failed")
			a.HandleCompletion(fb.Index, model.ReasonNatural)
			continue
		}
		fb.MarkRunning()
	}
}

// HandleCompletion applies one feedback's on_done delivery (drained from
// the completion bus by the orchestrator's dispatcher loop) and, once every
// feedback has settled, finalizes the Event (§4.4).
func (a *Aggregator) HandleCompletion(index int, reason model.EndReason) {
	a.mu.Lock()
	for _, fb := range a.Event.Feedbacks {
		if fb.Index == index {
			if fb.State == model.FeedbackEnded {
				a.mu.Unlock()
				return
			}
			fb.State = model.FeedbackEnded
			break
		}
	}
	a.Event.ApplyEndReason(reason)
	allEnded := a.Event.AllEnded()
	a.mu.Unlock()

	if allEnded {
		a.finalize()
	}
}

// End transitions every non-ended feedback to Ending and invokes its
// variant-specific stop, reporting reason to whichever feedbacks have not
// yet naturally completed (§4.1 "EndFeedback", §5 "Cancellation").
// Idempotent: only the first call has effect; a later call, whether the
// Event is still ending or has already ended, is a no-op (§8 property 8).
func (a *Aggregator) End(reason model.EndReason) {
	a.mu.Lock()
	if a.ended || a.ending {
		a.mu.Unlock()
		return
	}
	a.ending = true
	for _, fb := range a.Event.Feedbacks {
		if fb.State == model.FeedbackEnded {
			continue
		}
		fb.State = model.FeedbackEnding
	}
	variants := make(map[int]feedback.Variant, len(a.variants))
	for k, v := range a.variants {
		variants[k] = v
	}
	a.mu.Unlock()

	for idx, v := range variants {
		go func(idx int, v feedback.Variant) {
			_ = v.End(a.ctx, reason)
		}(idx, v)
	}
}

// finalize emits FeedbackEnded exactly once (§8 property 2) and releases
// the aggregator's context.
func (a *Aggregator) finalize() {
	a.mu.Lock()
	if a.ended {
		a.mu.Unlock()
		return
	}
	a.ended = true
	if a.timer != nil {
		a.timer.Stop()
	}
	reason := a.Event.EndReason
	a.mu.Unlock()

	a.Event.State = model.EventEnded
	a.cancel()
	a.onEnded(a.Event.ID, reason)
}
