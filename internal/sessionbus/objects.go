// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sessionbus

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/PhoshMobi/feedbackd/internal/model"
)

// feedbackObject implements the Feedback bus interface's methods; godbus
// dispatches exported methods by reflection, so the receiver's method set
// IS the wire contract (§6).
type feedbackObject struct {
	svc *Service
}

func (o *feedbackObject) TriggerFeedback(appID, event string, hints map[string]dbus.Variant, timeout int32, sender dbus.Sender) (uint32, *dbus.Error) {
	h, err := decodeHints(hints)
	if err != nil {
		return 0, dbus.NewError("org.sigxcpu.Feedbackd.Error.InvalidArgument", []interface{}{err.Error()})
	}

	id, err := o.svc.backend.TriggerFeedback(context.Background(), string(sender), appID, event, h, timeout)
	if err != nil {
		return 0, dbus.NewError("org.sigxcpu.Feedbackd.Error.Failed", []interface{}{err.Error()})
	}
	return id, nil
}

func (o *feedbackObject) EndFeedback(id uint32) *dbus.Error {
	o.svc.backend.EndFeedback(id)
	return nil
}

// hapticObject implements the conditional Haptic bus interface.
type hapticObject struct {
	svc *Service
}

func (o *hapticObject) Vibrate(appID string, pattern [][]interface{}) *dbus.Error {
	if o.svc.haptic == nil {
		return dbus.NewError("org.sigxcpu.Feedbackd.Error.NotSupported", nil)
	}
	points := make([]model.VibratePoint, 0, len(pattern))
	for _, step := range pattern {
		if len(step) != 2 {
			return dbus.NewError("org.sigxcpu.Feedbackd.Error.InvalidArgument", []interface{}{"pattern step must be (d,u)"})
		}
		mag, ok1 := step[0].(float64)
		dur, ok2 := step[1].(uint32)
		if !ok1 || !ok2 {
			return dbus.NewError("org.sigxcpu.Feedbackd.Error.InvalidArgument", []interface{}{"pattern step type mismatch"})
		}
		points = append(points, model.VibratePoint{DurationMs: dur, Magnitude: mag})
	}

	if err := o.svc.haptic.Vibrate(context.Background(), appID, points); err != nil {
		return dbus.NewError("org.sigxcpu.Feedbackd.Error.Failed", []interface{}{err.Error()})
	}
	return nil
}

// decodeHints validates the untyped a{sv} hints bag at the RPC boundary
// into a typed struct; the core never sees a raw map (§9 "Dynamic
// property bag").
func decodeHints(raw map[string]dbus.Variant) (model.Hints, error) {
	var h model.Hints
	if v, ok := raw["profile"]; ok {
		if s, ok := v.Value().(string); ok {
			h.Profile = model.ProfileLevel(s)
		}
	}
	if v, ok := raw["important"]; ok {
		if b, ok := v.Value().(bool); ok {
			h.Important = b
		}
	}
	if v, ok := raw["sound-file"]; ok {
		if s, ok := v.Value().(string); ok {
			h.SoundFile = s
		}
	}
	return h, nil
}
