// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sessionbus

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/PhoshMobi/feedbackd/internal/log"
)

// WatchDisconnects subscribes to org.freedesktop.DBus NameOwnerChanged and
// forwards each bus-name loss to onGone, driving the client disconnect
// cascade-cancel (§5). Blocks until ctx is cancelled.
func (s *Service) WatchDisconnects(ctx context.Context, onGone func(busName string)) error {
	if err := s.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
	); err != nil {
		return err
	}

	signals := make(chan *dbus.Signal, 16)
	s.conn.Signal(signals)
	defer s.conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
				continue
			}
			name, _ := sig.Body[0].(string)
			newOwner, _ := sig.Body[2].(string)
			if newOwner == "" && name != "" {
				log.L().Debug().Str("bus_name", name).Msg("client bus name lost")
				onGone(name)
			}
		}
	}
}
