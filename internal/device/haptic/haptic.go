// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package haptic drives a single Linux force-feedback input node: it
// uploads periodic effects via the EVIOCSFF ioctl and starts/stops them by
// writing EV_FF input_events, the kernel's rumble protocol. The ioctl
// wiring idiom (golang.org/x/sys for raw syscalls against a device node) is
// grounded on the corpus's other syscall-level consumer of x/sys.
package haptic

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
)

const (
	evFF = 0x15

	ffPeriodic = 0x51
	ffSquare   = 0x58
)

// ff_effect mirrors struct ff_effect from linux/input.h for periodic
// effects only (the only waveform this daemon drives).
type ffEffect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   struct{ Button, Interval uint16 }
	Replay    struct{ Length, Delay uint16 }
	Periodic  struct {
		Waveform uint16
		Period   uint16
		Magnitude int16
		Offset    int16
		Phase     uint16
		Envelope  struct {
			AttackLength uint16
			AttackLevel  uint16
			FadeLength   uint16
			FadeLevel    uint16
		}
		CustomLen  uint32
		CustomData uintptr
	}
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Device drives exactly one /dev/input/eventN force-feedback node. Only one
// effect is ever uploaded at a time; a new Play* call stops the sequence
// still running from the previous call, and an upload of a different
// magnitude removes the previous effect first, while an unchanged magnitude
// reuses it (§3 "Haptic device": "Exactly one active effect at a time").
type Device struct {
	fd *os.File

	mu        sync.Mutex
	effectID  int16
	hasEffect bool
	lastMag   float64
	stopCh    chan struct{}
}

// Open opens the given force-feedback-capable input node.
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrDeviceDrive, path, err)
	}
	return &Device{fd: f, effectID: -1}, nil
}

func (d *Device) Close() error {
	_ = d.Stop()
	d.mu.Lock()
	hasEffect, id := d.hasEffect, d.effectID
	d.hasEffect = false
	d.mu.Unlock()
	if hasEffect {
		if err := removeEffect(d.fd.Fd(), id); err != nil {
			log.L().Debug().Err(err).Msg("failed to release ff effect on close")
		}
	}
	return d.fd.Close()
}

// PlayRumble uploads a periodic effect of duration×magnitude and plays it
// repeatCount times with pauseMs gaps (§4.3 "VibraRumble").
func (d *Device) PlayRumble(ctx context.Context, magnitude float64, durationMs, pauseMs uint32, repeatCount uint32) (<-chan struct{}, error) {
	if err := d.upload(magnitude, durationMs); err != nil {
		return nil, err
	}
	if err := d.play(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	stop := make(chan struct{})
	d.replaceStop(stop)

	go func() {
		defer close(done)
		for i := uint32(0); i < repeatCount; i++ {
			select {
			case <-time.After(time.Duration(durationMs) * time.Millisecond):
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
			if i+1 < repeatCount {
				select {
				case <-time.After(time.Duration(pauseMs) * time.Millisecond):
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
				_ = d.play()
			}
		}
	}()

	return done, nil
}

// PlayPeriodic starts an indefinite periodic effect; it runs until Stop or
// ctx cancellation (§4.3 "VibraPeriodic").
func (d *Device) PlayPeriodic(ctx context.Context, magnitude float64) error {
	d.replaceStop(nil)
	if err := d.upload(magnitude, 0); err != nil {
		return err
	}
	if err := d.play(); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = d.Stop()
	}()
	return nil
}

// PlayPattern sequences steps back-to-back, re-uploading at each boundary
// (§4.3 "VibraPattern").
func (d *Device) PlayPattern(ctx context.Context, magnitudes []float64, durationsMs []uint32) (<-chan struct{}, error) {
	done := make(chan struct{})
	stop := make(chan struct{})
	d.replaceStop(stop)

	go func() {
		defer close(done)
		for i := range magnitudes {
			if err := d.upload(magnitudes[i], durationsMs[i]); err != nil {
				return
			}
			if err := d.play(); err != nil {
				return
			}
			select {
			case <-time.After(time.Duration(durationsMs[i]) * time.Millisecond):
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return done, nil
}

// Stop halts whatever is currently playing. Idempotent.
func (d *Device) Stop() error {
	d.mu.Lock()
	stop := d.stopCh
	d.stopCh = nil
	d.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	return d.stopEffect()
}

// replaceStop installs stop as the current sequence's stop channel and
// stops any sequence still running from an earlier Play* call.
func (d *Device) replaceStop(stop chan struct{}) {
	d.mu.Lock()
	prev := d.stopCh
	d.stopCh = stop
	d.mu.Unlock()
	if prev != nil {
		close(prev)
	}
}

func (d *Device) upload(magnitude float64, durationMs uint32) error {
	if magnitude < 0 || magnitude > 1 {
		return ferrors.Wrap(ferrors.ErrInvalidArgument, "magnitude out of range", nil)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Reuse the uploaded effect when the magnitude hasn't changed
	// adjacently, cutting driver churn (§4.6 "Uploaded effects are reused").
	if d.hasEffect && d.lastMag == magnitude {
		return nil
	}

	// EVIOCSFF always allocates a new effect slot rather than updating the
	// old one in place; release it first or each differing-magnitude step
	// leaks a kernel FF slot, contradicting "exactly one active effect at a
	// time" (§3 "Haptic device").
	if d.hasEffect {
		if err := removeEffect(d.fd.Fd(), d.effectID); err != nil {
			log.L().Debug().Err(err).Msg("failed to release previous ff effect before re-upload")
		}
		d.hasEffect = false
	}

	eff := ffEffect{
		Type:      ffPeriodic,
		ID:        -1,
		Direction: 0,
	}
	eff.Replay.Length = uint16(durationMs)
	eff.Periodic.Waveform = ffSquare
	eff.Periodic.Period = 50
	eff.Periodic.Magnitude = int16(magnitude * 0x7fff)

	if err := ioctl(d.fd.Fd(), evIOCSFFArch(), uintptr(unsafe.Pointer(&eff))); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "upload ff effect", err)
	}

	d.effectID = eff.ID
	d.hasEffect = true
	d.lastMag = magnitude
	return nil
}

func (d *Device) play() error {
	return d.writeEvent(1)
}

func (d *Device) stopEffect() error {
	d.mu.Lock()
	hasEffect := d.hasEffect
	d.mu.Unlock()
	if !hasEffect {
		return nil
	}
	return d.writeEvent(0)
}

func (d *Device) writeEvent(value int32) error {
	d.mu.Lock()
	id := d.effectID
	d.mu.Unlock()
	if id < 0 {
		return nil
	}
	ev := inputEvent{Type: evFF, Code: uint16(id), Value: value}
	_, err := d.fd.Write((*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:])
	if err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, fmt.Sprintf("write ff event value=%d", value), err)
	}
	return nil
}

func ioctl(fd uintptr, req uint, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// evIOCSFFArch returns the EVIOCSFF request code for the current
// architecture's struct ff_effect size. Computed at runtime rather than
// hardcoded, since the ioctl direction/size encoding depends on the
// compiled struct layout.
func evIOCSFFArch() uint {
	const iocWrite = 1
	size := unsafe.Sizeof(ffEffect{})
	return uint(iocWrite<<30 | int('E')<<8 | 0x80 | int(size&0x1fff)<<16)
}

// evIOCRMFFArch returns the EVIOCRMFF request code: a write-direction ioctl
// taking an int effect id (EVIOCRMFF is "_IOW('E', 0x81, int)" in
// linux/input.h).
func evIOCRMFFArch() uint {
	const iocWrite = 1
	size := unsafe.Sizeof(int(0))
	return uint(iocWrite<<30 | int('E')<<8 | 0x81 | int(size&0x1fff)<<16)
}

// removeEffect releases a previously uploaded force-feedback effect slot via
// EVIOCRMFF. A negative id means no effect is currently held and is a no-op.
func removeEffect(fd uintptr, id int16) error {
	if id < 0 {
		return nil
	}
	if err := ioctl(fd, evIOCRMFFArch(), uintptr(int(id))); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, "remove ff effect", err)
	}
	return nil
}
