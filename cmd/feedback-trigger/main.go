// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command feedback-trigger is a small smoke-test client for the Feedback
// bus interface, in the spirit of the teacher's cmd/v3probe: a thin CLI
// exercising a running daemon's RPC surface without pulling in its
// internals.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
)

const (
	busName     = "org.sigxcpu.Feedbackd"
	objectPath  = dbus.ObjectPath("/org/sigxcpu/Feedbackd")
	feedbackIface = "org.sigxcpu.Feedbackd.Feedback"
)

func main() {
	var (
		appID    string
		profile  string
		important bool
		timeout  int32
		wait     time.Duration
	)

	trigger := &cobra.Command{
		Use:   "trigger <event-name>",
		Short: "Trigger a feedback event on the running feedbackd",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, obj, err := connectObject()
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			hints := map[string]dbus.Variant{}
			if profile != "" {
				hints["profile"] = dbus.MakeVariant(profile)
			}
			if important {
				hints["important"] = dbus.MakeVariant(true)
			}

			var id uint32
			call := obj.Call(feedbackIface+".TriggerFeedback", 0, appID, args[0], hints, timeout)
			if call.Err != nil {
				return fmt.Errorf("TriggerFeedback: %w", call.Err)
			}
			if err := call.Store(&id); err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			fmt.Printf("event_id=%d\n", id)

			if wait > 0 {
				time.Sleep(wait)
			}
			return nil
		},
	}
	trigger.Flags().StringVar(&appID, "app-id", "feedback-trigger", "app id to report")
	trigger.Flags().StringVar(&profile, "profile", "", "hints.profile override (full, quiet, silent)")
	trigger.Flags().BoolVar(&important, "important", false, "hints.important")
	trigger.Flags().Int32Var(&timeout, "timeout", 0, "timeout in seconds, 0 = none")
	trigger.Flags().DurationVar(&wait, "wait", 0, "sleep after triggering before exiting")

	var endID uint32
	end := &cobra.Command{
		Use:   "end",
		Short: "End a previously triggered event",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, obj, err := connectObject()
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			call := obj.Call(feedbackIface+".EndFeedback", 0, endID)
			if call.Err != nil {
				return fmt.Errorf("EndFeedback: %w", call.Err)
			}
			return nil
		},
	}
	end.Flags().Uint32Var(&endID, "id", 0, "event id to end")

	root := &cobra.Command{Use: "feedback-trigger"}
	root.AddCommand(trigger, end)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connectObject() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, fmt.Errorf("connect session bus: %w", err)
	}
	return conn, conn.Object(busName, objectPath), nil
}
