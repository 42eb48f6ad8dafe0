// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package orchestrator implements the Feedback Manager (§4.1, component
// G): it receives RPC, resolves the effective profile and theme, selects
// feedbacks, constructs and runs the per-event Aggregator, tracks
// per-client ownership for disconnect cascade-cancel, and arms timeouts.
// Shaped after the teacher's worker.Orchestrator — a single struct
// subscribing to a bus, dispatching into per-entity goroutines, and
// tracking active work in a registerActive/unregisterActive map guarded by
// one mutex — generalized from sessions to feedback events.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/PhoshMobi/feedbackd/internal/bus"
	"github.com/PhoshMobi/feedbackd/internal/device"
	"github.com/PhoshMobi/feedbackd/internal/event"
	"github.com/PhoshMobi/feedbackd/internal/feedback"
	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
	"github.com/PhoshMobi/feedbackd/internal/theme"
)

// FeedbackEndedFunc is invoked once per Event, after every constituent
// feedback has settled; the session bus layer wires this to emit the
// Feedback.FeedbackEnded D-Bus signal.
type FeedbackEndedFunc func(eventID uint32, reason model.EndReason)

// ProfileChangedFunc is invoked whenever the Profile property changes,
// wired to the Feedback.Profile property-changed notification.
type ProfileChangedFunc func(level model.ProfileLevel)

// Orchestrator is the daemon's single owned root for event/feedback state
// (§9 "Global state"): the event table and the client registration table.
type Orchestrator struct {
	Factory     device.Factory
	Bus         bus.Bus
	ThemeLoader *theme.Loader

	OnFeedbackEnded   FeedbackEndedFunc
	OnProfileChanged  ProfileChangedFunc

	devices  feedback.Devices
	themeMu  sync.RWMutex
	theme    *model.Theme

	profileMu sync.RWMutex
	profile   model.Profile

	nextID uint32 // atomic

	mu       sync.Mutex
	events   map[uint32]*event.Aggregator
	clients  map[string]*model.ClientRegistration

	reloadCh chan struct{}
}

// New constructs an Orchestrator. Call Init (or Run) before issuing any RPC.
func New(factory device.Factory, b bus.Bus, loader *theme.Loader) *Orchestrator {
	return &Orchestrator{
		Factory:     factory,
		Bus:         b,
		ThemeLoader: loader,
		events:      map[uint32]*event.Aggregator{},
		clients:     map[string]*model.ClientRegistration{},
		reloadCh:    make(chan struct{}, 1),
		profile:     model.Profile{ActiveLevel: model.ProfileFull, PerApp: map[string]model.ProfileLevel{}},
	}
}

// Init probes devices and loads the initial theme. It must complete
// before the session bus interfaces are published, so a broken theme or
// missing required devices fail daemon startup fast (§4.1).
func (o *Orchestrator) Init() error {
	leds, err := o.Factory.NewLEDSet()
	if err != nil {
		return fmt.Errorf("init led set: %w", err)
	}
	haptic, err := o.Factory.NewHapticDevice()
	if err != nil {
		return fmt.Errorf("init haptic device: %w", err)
	}
	sound, err := o.Factory.NewSoundPlayer()
	if err != nil {
		return fmt.Errorf("init sound player: %w", err)
	}
	o.devices = feedback.Devices{LEDs: leds, Haptic: haptic, Sound: sound}

	if err := o.reloadTheme(); err != nil {
		return fmt.Errorf("init theme: %w", err)
	}
	return nil
}

// Run calls Init then Loop; convenience for callers (tests, simple
// embedders) that don't need to publish a bus service in between.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Init(); err != nil {
		return err
	}
	return o.Loop(ctx)
}

// Loop drains the completion bus and the reload/shutdown signals until ctx
// is cancelled (SIGTERM/SIGINT path, §5 "Cancellation"). Init must have
// run first.
func (o *Orchestrator) Loop(ctx context.Context) error {
	sub, err := o.Bus.Subscribe(ctx, bus.TopicCompletion)
	if err != nil {
		return fmt.Errorf("subscribe completion bus: %w", err)
	}
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			o.cancelAll(model.ReasonExplicit)
			o.releaseDevices()
			return ctx.Err()
		case <-o.reloadCh:
			if err := o.reloadTheme(); err != nil {
				log.L().Error().Err(err).Msg("theme reload failed, keeping previous theme")
			}
		case msg, ok := <-sub.C():
			if !ok {
				return nil
			}
			completion, ok := msg.(model.CompletionMsg)
			if !ok {
				continue
			}
			o.dispatchCompletion(completion)
		}
	}
}

func (o *Orchestrator) dispatchCompletion(c model.CompletionMsg) {
	o.mu.Lock()
	agg, ok := o.events[c.EventID]
	o.mu.Unlock()
	if !ok {
		return
	}
	agg.HandleCompletion(c.FeedbackIndex, c.Reason)
}

// HasHapticDevice reports whether the Haptic bus interface should be
// published (§4.6).
func (o *Orchestrator) HasHapticDevice() bool {
	return o.devices.Haptic != nil
}

// Reload requests a theme reload on the next dispatcher turn (SIGHUP, §4.2
// "SIGHUP path").
func (o *Orchestrator) Reload() {
	select {
	case o.reloadCh <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) reloadTheme() error {
	t, err := o.ThemeLoader.Load()
	if err != nil {
		return err
	}
	o.themeMu.Lock()
	o.theme = t
	o.themeMu.Unlock()
	return nil
}

// TriggerFeedback implements the Feedback.TriggerFeedback RPC (§4.1).
func (o *Orchestrator) TriggerFeedback(ctx context.Context, busName, appID, eventName string, hints model.Hints, timeoutS int32) (uint32, error) {
	if appID == "" || eventName == "" {
		return 0, ferrors.Wrap(ferrors.ErrInvalidArgument, "app_id and event_name are required", nil)
	}

	id := atomic.AddUint32(&o.nextID, 1)
	eventsTriggeredTotal.WithLabelValues(eventName).Inc()

	o.profileMu.RLock()
	level := o.profile.EffectiveLevel(appID, hints)
	o.profileMu.RUnlock()

	o.themeMu.RLock()
	feedbacks := o.theme.Lookup(level, eventName)
	o.themeMu.RUnlock()
	for i, fb := range feedbacks {
		fb.Index = i
	}

	ev := &model.Event{
		ID:            id,
		AppID:         appID,
		Name:          eventName,
		Hints:         hints,
		TimeoutS:      timeoutS,
		Feedbacks:     feedbacks,
		CorrelationID: uuid.NewString(),
	}

	ctx = log.ContextWithCorrelationID(ctx, ev.CorrelationID)
	logger := log.WithContext(ctx, log.WithComponent("orchestrator"))
	logger.Info().Uint32("event_id", id).Str("app_id", appID).Str("event", eventName).
		Str("profile", string(level)).Int("feedbacks", len(feedbacks)).Msg("feedback triggered")

	agg := event.New(ctx, ev, o.publish, o.onAggregatorEnded)

	o.mu.Lock()
	o.events[id] = agg
	reg, ok := o.clients[busName]
	if !ok {
		reg = model.NewClientRegistration(busName)
		o.clients[busName] = reg
	}
	reg.ActiveEventIDs[id] = struct{}{}
	activeEvents.Set(float64(len(o.events)))
	o.mu.Unlock()

	agg.Start(o.devices)

	return id, nil
}

func (o *Orchestrator) publish(msg model.CompletionMsg) {
	_ = o.Bus.Publish(context.Background(), bus.TopicCompletion, msg)
}

// EndFeedback implements Feedback.EndFeedback (§4.1): unknown ids are
// silently ignored (idempotent, §7 "UnknownEventId").
func (o *Orchestrator) EndFeedback(id uint32) {
	o.mu.Lock()
	agg, ok := o.events[id]
	o.mu.Unlock()
	if !ok {
		return
	}
	agg.End(model.ReasonExplicit)
}

// onAggregatorEnded removes the event from both tables and forwards to the
// bus-layer callback, exactly once per event (§8 property 2).
func (o *Orchestrator) onAggregatorEnded(id uint32, reason model.EndReason) {
	feedbackEndTotal.WithLabelValues(reason.String()).Inc()

	o.mu.Lock()
	delete(o.events, id)
	for _, reg := range o.clients {
		delete(reg.ActiveEventIDs, id)
	}
	activeEvents.Set(float64(len(o.events)))
	o.mu.Unlock()

	if o.OnFeedbackEnded != nil {
		o.OnFeedbackEnded(id, reason)
	}
}

// NotifyClientGone cascades EndFeedback across every event owned by
// busName and forgets the registration (§5 "Cancellation", §8 property 7).
func (o *Orchestrator) NotifyClientGone(busName string) {
	o.mu.Lock()
	reg, ok := o.clients[busName]
	if ok {
		delete(o.clients, busName)
	}
	var ids []uint32
	if ok {
		for id := range reg.ActiveEventIDs {
			ids = append(ids, id)
		}
	}
	o.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	clientDisconnectCascadeTotal.Inc()
	log.AuditInfo(context.Background(), "client.disconnect_cascade", "client bus name lost, cancelling owned events",
		map[string]any{"bus_name": busName, "event_count": len(ids)})

	for _, id := range ids {
		o.EndFeedback(id)
	}
}

// cancelAll force-ends every live event, used on daemon shutdown.
func (o *Orchestrator) cancelAll(reason model.EndReason) {
	o.mu.Lock()
	aggs := make([]*event.Aggregator, 0, len(o.events))
	for _, a := range o.events {
		aggs = append(aggs, a)
	}
	o.mu.Unlock()

	for _, a := range aggs {
		a.End(reason)
	}
}

// releaseDevices releases the LED set (the only device with explicit
// teardown) on shutdown (§5 "SIGTERM/SIGINT ... release devices").
func (o *Orchestrator) releaseDevices() {
	if o.devices.LEDs != nil {
		if err := o.devices.LEDs.Close(); err != nil {
			log.L().Warn().Err(err).Msg("failed to release led set")
		}
	}
}

// SetProfile implements the Feedback.Profile writable property (§6).
func (o *Orchestrator) SetProfile(level model.ProfileLevel) error {
	if !level.Valid() {
		return ferrors.Wrap(ferrors.ErrInvalidArgument, "unknown profile level", nil)
	}
	o.profileMu.Lock()
	o.profile.ActiveLevel = level
	o.profileMu.Unlock()

	if o.OnProfileChanged != nil {
		o.OnProfileChanged(level)
	}
	return nil
}

// Profile returns the current active profile level.
func (o *Orchestrator) Profile() model.ProfileLevel {
	o.profileMu.RLock()
	defer o.profileMu.RUnlock()
	return o.profile.ActiveLevel
}

// SetPerAppOverride sets appID's level override, used by the settings
// store when loading persisted per-app overrides (§3 "Profile").
func (o *Orchestrator) SetPerAppOverride(appID string, level model.ProfileLevel) {
	o.profileMu.Lock()
	defer o.profileMu.Unlock()
	if o.profile.PerApp == nil {
		o.profile.PerApp = map[string]model.ProfileLevel{}
	}
	o.profile.PerApp[appID] = level
}

// Vibrate implements the Haptic.Vibrate direct-pattern RPC (§4.6): an
// empty pattern cancels any in-flight pattern, a non-empty one replaces
// it. The single physical motor serializes callers; the most recent one
// wins and the superseded caller gets no notification — by design, not a
// bug, per the spec's own note.
func (o *Orchestrator) Vibrate(ctx context.Context, appID string, pattern []model.VibratePoint) error {
	if o.devices.Haptic == nil {
		return ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no haptic device", nil)
	}

	log.L().Debug().Str("app_id", appID).Int("steps", len(pattern)).Msg("direct vibrate pattern")

	if len(pattern) == 0 {
		return o.devices.Haptic.Stop()
	}

	mags := make([]float64, len(pattern))
	durs := make([]uint32, len(pattern))
	for i, p := range pattern {
		mags[i] = p.Magnitude
		durs[i] = p.DurationMs
	}

	_, err := o.devices.Haptic.PlayPattern(ctx, mags, durs)
	if err != nil {
		deviceDriveErrorsTotal.WithLabelValues("haptic").Inc()
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "direct vibrate pattern", err)
	}
	return nil
}
