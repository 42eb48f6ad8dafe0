// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the per-dispatcher message queue that feedback variants
// post completions to, and that the orchestrator drains on its single
// goroutine (§9 "Async completions without callbacks-into-owner"). It keeps
// the teacher's in-memory pub/sub shape rather than introducing a durable
// transport: this daemon has no cross-process delivery to guarantee.
package bus

import "context"

// Message is an opaque payload. The daemon only ever publishes
// model.CompletionMsg values on the completion topic, but the transport
// itself stays untyped the way the teacher's bus does.
type Message interface{}

// Handler applies a message within a context.
type Handler func(ctx context.Context, msg Message) error

type Subscriber interface {
	// C returns a read-only message channel.
	C() <-chan Message
	// Close unsubscribes.
	Close() error
}

// Bus is the event transport abstraction consumed by the orchestrator.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Topic names used within the daemon.
const (
	TopicCompletion = "feedback.completion"
)
