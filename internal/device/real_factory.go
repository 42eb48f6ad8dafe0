// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"os"
	"path/filepath"
	"sort"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/PhoshMobi/feedbackd/internal/device/haptic"
	"github.com/PhoshMobi/feedbackd/internal/device/led"
	"github.com/PhoshMobi/feedbackd/internal/device/sound"
)

const (
	evFF  = 0x15
	evMax = 0x1f // EV_MAX from linux/input-event-codes.h
)

// RealFactory wires the sysfs LED probe, the first force-feedback-capable
// /dev/input node, and a subprocess sound player — the concrete backends
// for a real host, analogous to the teacher's RealFactory wiring enigma2
// and ffmpeg concrete backends behind the same Factory contract.
type RealFactory struct {
	// HapticDevicePath overrides auto-probing, mainly for tests.
	HapticDevicePath string
}

func (f RealFactory) NewLEDSet() (LEDSet, error) {
	return led.Probe()
}

func (f RealFactory) NewHapticDevice() (HapticDevice, error) {
	path := f.HapticDevicePath
	if path == "" {
		path = probeHapticNode()
	}
	if path == "" {
		return nil, nil // no vibrator hardware: Haptic bus interface stays unpublished
	}
	return haptic.Open(path)
}

func (f RealFactory) NewSoundPlayer() (SoundPlayer, error) {
	return sound.NewPlayer(), nil
}

// probeHapticNode scans /dev/input for the first node advertising EV_FF
// capability, returning "" if none is found.
func probeHapticNode() string {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return ""
	}

	var candidates []string
	for _, e := range entries {
		if e.Type()&os.ModeSymlink != 0 || e.IsDir() {
			continue
		}
		candidates = append(candidates, filepath.Join("/dev/input", e.Name()))
	}
	sort.Strings(candidates)

	for _, path := range candidates {
		if supportsForceFeedback(path) {
			return path
		}
	}
	return ""
}

func supportsForceFeedback(path string) bool {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	// evBits holds one bit per supported event type (EV_FF=0x15 lives in
	// byte 2), sized to cover every type up to EV_MAX; a 1-byte buffer
	// would both undersize the mask and let the kernel write past it.
	var evBits [(evMax / 8) + 1]byte
	req := evIOCGBitArch(len(evBits))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(req), uintptr(unsafe.Pointer(&evBits[0])))
	if errno != 0 {
		return false
	}
	return evBits[evFF/8]&(1<<(evFF%8)) != 0
}

// evIOCGBitArch returns the EVIOCGBIT(0, len) request code for a mask of
// size len bytes, computed the same way haptic.evIOCSFFArch computes
// EVIOCSFF: the ioctl size field must match the buffer actually passed.
func evIOCGBitArch(len int) uint {
	const iocRead = 2
	return uint(iocRead<<30 | int('E')<<8 | 0x20 | (len&0x3fff)<<16)
}
