// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ferrors defines the sentinel error kinds from the daemon's error
// handling design (§7): wrapped with fmt.Errorf("%w", ...) and inspected via
// errors.Is/errors.As, never as a type hierarchy — matching the teacher's
// newReasonError convention.
package ferrors

import (
	"errors"
	"fmt"
)

var (
	// ErrThemeParse marks a malformed theme file: unknown variant, bad JSON.
	ErrThemeParse = errors.New("theme parse error")
	// ErrThemeMissing marks that no theme was found, including the default.
	ErrThemeMissing = errors.New("theme missing")
	// ErrThemeCycle marks a parent-chain that revisits a theme name.
	ErrThemeCycle = errors.New("theme parent cycle")
	// ErrNoDeviceForFeedback marks a feedback with no eligible backing device.
	ErrNoDeviceForFeedback = errors.New("no device for feedback")
	// ErrDeviceDrive marks a failed sysfs/ioctl write.
	ErrDeviceDrive = errors.New("device drive error")
	// ErrInvalidArgument marks a rejected RPC argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnknownEventID marks an EndFeedback call on an id the orchestrator
	// never allocated or has already forgotten. Callers MUST treat this as
	// success (§7 "silently succeed"); it is exposed only for logging.
	ErrUnknownEventID = errors.New("unknown event id")
	// ErrClientGone marks a forced cancellation from a lost bus-name watcher.
	ErrClientGone = errors.New("client gone")
)

// Wrap annotates a sentinel kind with context, following the teacher's
// fmt.Errorf("%w", ...) wrapping discipline.
func Wrap(kind error, msg string, cause error) error {
	switch {
	case msg == "" && cause == nil:
		return kind
	case cause == nil:
		return fmt.Errorf("%w: %s", kind, msg)
	case msg == "":
		return fmt.Errorf("%w: %w", kind, cause)
	default:
		return fmt.Errorf("%w: %s: %w", kind, msg, cause)
	}
}

// Is reports whether err carries the given sentinel kind anywhere in its chain.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}
