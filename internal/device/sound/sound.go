// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sound plays theme events and file overrides by spawning an
// external canberra-style player process per playback and tracking it by a
// cancellation handle, the way the teacher's exec/ffmpeg.Runner spawns,
// waits on, and stops an external subprocess per session.
package sound

import (
	"context"
	"os/exec"
	"sync"

	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
)

// Player spawns "canberra-gtk-play" (or an equivalent configured binary)
// per playback, mirroring a canberra playback context (§4.7).
type Player struct {
	// BinPath is the player executable; defaults to "canberra-gtk-play".
	BinPath string

	mu      sync.Mutex
	theme   string
	running map[string]*exec.Cmd
}

// NewPlayer constructs a Player defaulting BinPath the way the teacher's
// ffmpeg.Runner defaults its own binary path.
func NewPlayer() *Player {
	return &Player{BinPath: "canberra-gtk-play", running: map[string]*exec.Cmd{}}
}

// Play spawns the player for the given event name (or an explicit file
// override) tagged with mediaRole, keyed by handle for later Cancel.
func (p *Player) Play(ctx context.Context, handle, eventName, mediaRole, fileOverride string) (<-chan struct{}, error) {
	bin := p.BinPath
	if bin == "" {
		bin = "canberra-gtk-play"
	}

	args := []string{}
	if fileOverride != "" {
		args = append(args, "-f", fileOverride)
	} else {
		args = append(args, "-i", eventName)
	}
	if mediaRole == "" {
		mediaRole = "event"
	}
	args = append(args, "-t", mediaRole)

	p.mu.Lock()
	theme := p.theme
	p.mu.Unlock()
	if theme != "" {
		args = append(args, "-p", "canberra.xdg-theme.name="+theme)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if err := cmd.Start(); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrDeviceDrive, "spawn sound player", err)
	}

	p.mu.Lock()
	p.running[handle] = cmd
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			log.L().Debug().Err(err).Str("event", eventName).Msg("sound playback ended")
		}
		p.mu.Lock()
		delete(p.running, handle)
		p.mu.Unlock()
	}()

	return done, nil
}

// Cancel kills the in-flight playback for handle, if any (§4.7
// "per-in-flight-playback cancellation handles").
func (p *Player) Cancel(handle string) error {
	p.mu.Lock()
	cmd, ok := p.running[handle]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "cancel sound playback", err)
	}
	return nil
}

// SetTheme re-applies the sound theme attribute used for subsequent
// playbacks (§4.7 "On theme-name change").
func (p *Player) SetTheme(name string) {
	p.mu.Lock()
	p.theme = name
	p.mu.Unlock()
}
