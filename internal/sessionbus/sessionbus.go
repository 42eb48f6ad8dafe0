// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sessionbus publishes the daemon's Feedback (and, conditionally,
// Haptic) interfaces on the session message bus using godbus/dbus/v5,
// and watches org.freedesktop.DBus NameOwnerChanged so a client's bus-name
// loss cascades into cancelling its events (§5 "Cancellation").
//
// No teacher or pack example exercises a D-Bus service; the session bus
// is this domain's transport the way HTTP is the teacher's, so the wiring
// follows plain godbus/dbus/v5 idiom rather than a corpus precedent.
package sessionbus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

const (
	busName        = "org.sigxcpu.Feedbackd"
	objectPath      = dbus.ObjectPath("/org/sigxcpu/Feedbackd")
	feedbackIface   = "org.sigxcpu.Feedbackd.Feedback"
	hapticIface     = "org.sigxcpu.Feedbackd.Haptic"
)

// Backend is the orchestrator surface the bus layer drives RPC into.
// Kept narrow and free of dbus types so internal/orchestrator never
// imports this package.
type Backend interface {
	TriggerFeedback(ctx context.Context, busSender, appID, eventName string, hints model.Hints, timeoutS int32) (uint32, error)
	EndFeedback(id uint32)
	SetProfile(level model.ProfileLevel) error
	Profile() model.ProfileLevel
	NotifyClientGone(busName string)
	HasHapticDevice() bool
}

// HapticBackend is implemented additionally when direct vibration RPC is
// published (§4.6).
type HapticBackend interface {
	Vibrate(ctx context.Context, appID string, pattern []model.VibratePoint) error
}

// Service owns the bus connection and the exported objects.
type Service struct {
	conn    *dbus.Conn
	backend Backend
	haptic  HapticBackend
	props   *prop.Properties
}

// Connect acquires busName on the session bus and exports the Feedback
// interface (and Haptic, if haptic is non-nil / backend reports hardware).
func Connect(backend Backend, haptic HapticBackend) (*Service, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("request name %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("bus name %s already owned", busName)
	}

	svc := &Service{conn: conn, backend: backend, haptic: haptic}

	feedbackObj := &feedbackObject{svc: svc}
	if err := conn.Export(feedbackObj, objectPath, feedbackIface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export Feedback: %w", err)
	}

	propsSpec := map[string]map[string]*prop.Prop{
		feedbackIface: {
			"Profile": {
				Value:    string(backend.Profile()),
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: svc.onProfileSet,
			},
		},
	}
	props, err := prop.Export(conn, objectPath, propsSpec)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export properties: %w", err)
	}
	svc.props = props

	if haptic != nil && backend.HasHapticDevice() {
		hapticObj := &hapticObject{svc: svc}
		if err := conn.Export(hapticObj, objectPath, hapticIface); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("export Haptic: %w", err)
		}
	}

	ifaces := []string{feedbackIface}
	if haptic != nil && backend.HasHapticDevice() {
		ifaces = append(ifaces, hapticIface)
	}
	node := introspectNode(ifaces)
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("export introspectable: %w", err)
	}

	return svc, nil
}

// Close releases the bus connection.
func (s *Service) Close() error {
	return s.conn.Close()
}

// EmitFeedbackEnded sends the FeedbackEnded signal (§6).
func (s *Service) EmitFeedbackEnded(id uint32, reason model.EndReason) {
	err := s.conn.Emit(objectPath, feedbackIface+".FeedbackEnded", id, uint32(reason))
	if err != nil {
		log.L().Warn().Err(err).Uint32("event_id", id).Msg("failed to emit FeedbackEnded signal")
	}
}

// NotifyProfileChanged pushes the property-changed notification (§6
// "change-notification").
func (s *Service) NotifyProfileChanged(level model.ProfileLevel) {
	if s.props == nil {
		return
	}
	_ = s.props.Set(feedbackIface, "Profile", dbus.MakeVariant(string(level)))
}

func (s *Service) onProfileSet(c *prop.Change) *dbus.Error {
	level := model.ProfileLevel(c.Value.(string))
	if err := s.backend.SetProfile(level); err != nil {
		return dbus.NewError("org.sigxcpu.Feedbackd.Error.InvalidArgument", []interface{}{err.Error()})
	}
	return nil
}

func introspectNode(ifaces []string) *introspect.Node {
	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
		},
	}
	for _, name := range ifaces {
		switch name {
		case feedbackIface:
			node.Interfaces = append(node.Interfaces, introspect.Interface{
				Name: feedbackIface,
				Methods: []introspect.Method{
					{Name: "TriggerFeedback", Args: []introspect.Arg{
						{Name: "app_id", Type: "s", Direction: "in"},
						{Name: "event", Type: "s", Direction: "in"},
						{Name: "hints", Type: "a{sv}", Direction: "in"},
						{Name: "timeout", Type: "i", Direction: "in"},
						{Name: "id", Type: "u", Direction: "out"},
					}},
					{Name: "EndFeedback", Args: []introspect.Arg{
						{Name: "id", Type: "u", Direction: "in"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: "FeedbackEnded", Args: []introspect.Arg{
						{Name: "id", Type: "u"},
						{Name: "reason", Type: "u"},
					}},
				},
				Properties: []introspect.Property{
					{Name: "Profile", Type: "s", Access: "readwrite"},
				},
			})
		case hapticIface:
			node.Interfaces = append(node.Interfaces, introspect.Interface{
				Name: hapticIface,
				Methods: []introspect.Method{
					{Name: "Vibrate", Args: []introspect.Arg{
						{Name: "app_id", Type: "s", Direction: "in"},
						{Name: "pattern", Type: "a(du)", Direction: "in"},
					}},
				},
			})
		}
	}
	return node
}
