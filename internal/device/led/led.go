// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package led probes the kernel "leds" sysfs subsystem, classifies each
// opted-in device through a variant probe chain, and drives blink patterns
// by writing brightness/trigger/multi_index/multi_intensity attributes —
// grounded on the sysfs brightness/trigger write pattern from a real EVE-OS
// LED manager (zededa/eve pkg/pillar/cmd/ledmanager).
package led

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PhoshMobi/feedbackd/internal/device"
	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

const (
	sysfsLEDRoot  = "/sys/class/leds"
	markerAttr    = "feedbackd_feedback" // device opt-in marker attribute
	attrBrightness = "brightness"
	attrMaxBright  = "max_brightness"
	attrTrigger    = "trigger"
	attrPattern    = "pattern"
	attrMultiIndex = "multi_index"
	attrMultiInten = "multi_intensity"
)

// probeFn reports whether the LED at path matches a variant and, if so,
// returns the driven device.
type probeFn func(path string, priority int) (*sysfsLED, bool)

// probeChain is tried in order; the first success wins (§4.5).
var probeChain = []struct {
	variant model.LEDVariant
	probe   func(path string) bool
}{
	{model.LEDVendorQCOMMulti, probeQCOMMulticolor},
	{model.LEDVendorQCOM, probeQCOMSingle},
	{model.LEDMulticolor, probeGenericMulticolor},
	{model.LEDFlash, probeGenericFlash},
	{model.LEDPlain, probeGenericPlain},
}

// Set implements device.LEDSet over real sysfs devices.
type Set struct {
	mu   sync.Mutex
	leds []*sysfsLED
}

// Probe enumerates sysfs LED devices, filters by the opt-in marker
// attribute, classifies each through the probe chain, and sorts the result
// by priority descending.
func Probe() (*Set, error) {
	entries, err := os.ReadDir(sysfsLEDRoot)
	if err != nil {
		return &Set{}, nil // no leds subsystem: an empty set is not an error
	}

	var leds []*sysfsLED
	for _, e := range entries {
		devPath := filepath.Join(sysfsLEDRoot, e.Name())
		if !hasMarker(devPath) {
			continue
		}

		var classified *sysfsLED
		for _, entry := range probeChain {
			if entry.probe(devPath) {
				classified = newSysfsLED(devPath, entry.variant)
				break
			}
		}
		if classified == nil {
			continue
		}
		leds = append(leds, classified)
	}

	sort.Slice(leds, func(i, j int) bool { return leds[i].priority > leds[j].priority })

	return &Set{leds: leds}, nil
}

func hasMarker(devPath string) bool {
	_, err := os.Stat(filepath.Join(devPath, markerAttr))
	return err == nil
}

func (s *Set) Devices() []device.LED {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]device.LED, len(s.leds))
	for i, l := range s.leds {
		out[i] = l
	}
	return out
}

func (s *Set) FindForColor(color model.ColorTag) (device.LED, error) {
	leds := s.Devices()
	var best device.LED
	for _, l := range leds {
		if l.SupportsColor(color) && (best == nil || l.Priority() > best.Priority()) {
			best = l
		}
	}
	if best != nil {
		return best, nil
	}
	for _, l := range leds {
		if !l.SupportsColor(model.ColorFlash) && (best == nil || l.Priority() > best.Priority()) {
			best = l
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no led supports the requested color", nil)
}

func (s *Set) Close() error { return nil }

// sysfsLED drives one classified LED device through its sysfs attributes.
type sysfsLED struct {
	path       string
	variant    model.LEDVariant
	priority   int
	maxBright  uint32
	colorIndex map[string]int // multi_index channel -> position, for multicolor variants
}

func newSysfsLED(path string, variant model.LEDVariant) *sysfsLED {
	l := &sysfsLED{path: path, variant: variant}
	switch variant {
	case model.LEDVendorQCOMMulti, model.LEDMulticolor:
		l.priority = 5
	case model.LEDVendorQCOM:
		l.priority = 8
	case model.LEDFlash:
		l.priority = 3
	default:
		l.priority = 10
	}
	if v, err := readUintAttr(path, attrMaxBright); err == nil {
		l.maxBright = v
	} else {
		l.maxBright = 255
	}
	if variant == model.LEDMulticolor || variant == model.LEDVendorQCOMMulti {
		l.colorIndex = readMultiIndex(path)
	}
	return l
}

func (l *sysfsLED) Variant() model.LEDVariant { return l.variant }
func (l *sysfsLED) Priority() int             { return l.priority }

func (l *sysfsLED) SupportsColor(c model.ColorTag) bool {
	switch l.variant {
	case model.LEDMulticolor, model.LEDVendorQCOMMulti:
		switch c {
		case model.ColorRed, model.ColorGreen, model.ColorBlue, model.ColorRGB, model.ColorWhite:
			return true
		}
		return false
	case model.LEDFlash:
		return c == model.ColorFlash || c == model.ColorWhite
	default:
		return c == model.ColorWhite
	}
}

// Blink sets color (for multicolor variants) then enables a periodic
// trigger pattern at frequencyMHz and maxBrightnessPct (§4.5).
func (l *sysfsLED) Blink(_ context.Context, rgb [3]uint8, frequencyMHz, maxBrightnessPct uint32) error {
	if maxBrightnessPct > 100 {
		maxBrightnessPct = 100
	}
	brightness := l.maxBright * maxBrightnessPct / 100

	if l.colorIndex != nil {
		if err := l.writeMultiIntensity(rgb); err != nil {
			return ferrors.Wrap(ferrors.ErrDeviceDrive, l.path, err)
		}
	}

	if err := writeAttr(l.path, attrBrightness, strconv.FormatUint(uint64(brightness), 10)); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, l.path, err)
	}

	// Select the "pattern" trigger before writing the pattern attribute;
	// most leds drivers only accept pattern writes once this trigger is
	// active (§4.5 "trigger-pattern sysfs knob").
	if err := writeAttr(l.path, attrTrigger, attrPattern); err != nil {
		log.L().Debug().Err(err).Str("led", l.path).Msg("pattern trigger unavailable, brightness-only blink")
	}

	periodMs := uint32(0)
	if frequencyMHz > 0 {
		periodMs = 1000000 / frequencyMHz
	}
	if err := writeAttr(l.path, attrPattern, fmt.Sprintf("%d %d", brightness, periodMs)); err != nil {
		log.L().Debug().Err(err).Str("led", l.path).Msg("pattern attribute unavailable, brightness-only blink")
	}

	return nil
}

// Off sets brightness to 0, disabling any running pattern (§4.5 "Stop").
func (l *sysfsLED) Off(_ context.Context) error {
	if err := writeAttr(l.path, attrBrightness, "0"); err != nil {
		return ferrors.Wrap(ferrors.ErrDeviceDrive, l.path, err)
	}
	return nil
}

// writeMultiIntensity writes the red/green/blue channels in multi_index
// order, scaled to max_brightness (§4.5 "Multicolor driving").
func (l *sysfsLED) writeMultiIntensity(rgb [3]uint8) error {
	order := make([]string, len(l.colorIndex))
	values := make([]int, len(l.colorIndex))
	for name, pos := range l.colorIndex {
		if pos >= len(order) {
			continue
		}
		order[pos] = name
	}
	for i, name := range order {
		var v uint8
		switch strings.ToLower(name) {
		case "red":
			v = rgb[0]
		case "green":
			v = rgb[1]
		case "blue":
			v = rgb[2]
		default:
			v = 0
		}
		values[i] = int(uint32(v) * l.maxBright / 255)
	}

	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return writeAttr(l.path, attrMultiInten, strings.Join(parts, " "))
}

func readMultiIndex(path string) map[string]int {
	data, err := os.ReadFile(filepath.Join(path, attrMultiIndex))
	if err != nil {
		return nil
	}
	fields := strings.Fields(string(data))
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return idx
}

func readUintAttr(path, attr string) (uint32, error) {
	data, err := os.ReadFile(filepath.Join(path, attr))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func writeAttr(path, attr, value string) error {
	// #nosec G306 -- sysfs LED attributes require world-writable-by-root semantics already enforced by the kernel
	return os.WriteFile(filepath.Join(path, attr), []byte(value), 0o644)
}

func probeQCOMMulticolor(path string) bool {
	return fileExists(filepath.Join(path, attrMultiIndex)) && strings.Contains(path, "qcom")
}

func probeQCOMSingle(path string) bool {
	return strings.Contains(path, "qcom") && fileExists(filepath.Join(path, attrBrightness))
}

func probeGenericMulticolor(path string) bool {
	return fileExists(filepath.Join(path, attrMultiIndex)) && fileExists(filepath.Join(path, attrMultiInten))
}

func probeGenericFlash(path string) bool {
	return strings.Contains(filepath.Base(path), "flash")
}

func probeGenericPlain(path string) bool {
	return fileExists(filepath.Join(path, attrBrightness))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
