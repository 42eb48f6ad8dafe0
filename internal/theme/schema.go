// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package theme loads theme JSON files, resolves the device/default/custom
// candidate chain, merges parent themes, and indexes feedback templates per
// profile for lookup by the orchestrator (§4.2).
package theme

import (
	"encoding/json"
	"fmt"

	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

// fileDoc is the on-disk JSON shape of a theme file (§6 "Theme file layout").
type fileDoc struct {
	Name       string         `json:"name"`
	ParentName string         `json:"parent-name"`
	Profiles   []profileEntry `json:"profiles"`
}

type profileEntry struct {
	Name      string             `json:"name"`
	Feedbacks []feedbackEntryDoc `json:"feedbacks"`
}

type feedbackEntryDoc struct {
	EventName string `json:"event-name"`
	Type      string `json:"type"`

	// Sound
	MediaRole string `json:"media-role"`

	// VibraRumble / VibraPeriodic
	Count     uint32  `json:"count"`
	Pause     uint32  `json:"pause"`
	Duration  uint32  `json:"duration"`
	Magnitude float64 `json:"magnitude"`

	// VibraPattern
	Magnitudes []float64 `json:"magnitudes"`
	Durations  []uint32  `json:"durations"`

	// Led
	Color         string `json:"color"`
	Frequency     uint32 `json:"frequency"`
	MaxBrightness *uint32 `json:"max-brightness"`
}

// parseDoc unmarshals and validates the raw JSON bytes of a theme file into
// a model.Theme. Unknown variant tags or malformed fields surface as
// ferrors.ErrThemeParse (§7).
func parseDoc(data []byte) (*model.Theme, error) {
	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrThemeParse, "invalid json", err)
	}
	if doc.Name == "" {
		return nil, ferrors.Wrap(ferrors.ErrThemeParse, "missing theme name", nil)
	}

	t := model.NewTheme(doc.Name)
	t.ParentName = doc.ParentName

	for _, pe := range doc.Profiles {
		level := model.ProfileLevel(pe.Name)
		if !level.Valid() {
			return nil, ferrors.Wrap(ferrors.ErrThemeParse, fmt.Sprintf("unknown profile %q", pe.Name), nil)
		}
		byEvent := map[string][]*model.Feedback{}
		for i, fe := range pe.Feedbacks {
			fb, err := parseFeedback(i, fe)
			if err != nil {
				return nil, err
			}
			byEvent[fe.EventName] = append(byEvent[fe.EventName], fb)
		}
		for evName, fbs := range byEvent {
			t.Set(level, evName, fbs)
		}
	}

	return t, nil
}

func parseFeedback(index int, fe feedbackEntryDoc) (*model.Feedback, error) {
	fb := &model.Feedback{Index: index}

	switch fe.Type {
	case "Dummy":
		fb.Kind = model.KindDummy
	case "Sound":
		fb.Kind = model.KindSound
		role := fe.MediaRole
		if role == "" {
			role = "event"
		}
		fb.Sound = &model.SoundSpec{EventName: fe.EventName, MediaRole: role}
	case "VibraRumble":
		fb.Kind = model.KindVibraRumble
		if err := validateMagnitude(fe.Magnitude); err != nil {
			return nil, err
		}
		fb.VibraRumble = &model.VibraRumbleSpec{
			Count: fe.Count, PauseMs: fe.Pause, DurationMs: fe.Duration, Magnitude: fe.Magnitude,
		}
	case "VibraPeriodic":
		fb.Kind = model.KindVibraPeriodic
		if err := validateMagnitude(fe.Magnitude); err != nil {
			return nil, err
		}
		fb.VibraPeriodic = &model.VibraPeriodicSpec{Magnitude: fe.Magnitude}
	case "VibraPattern":
		fb.Kind = model.KindVibraPattern
		if len(fe.Magnitudes) == 0 || len(fe.Magnitudes) != len(fe.Durations) {
			return nil, ferrors.Wrap(ferrors.ErrThemeParse, "vibra-pattern magnitudes/durations length mismatch", nil)
		}
		for _, m := range fe.Magnitudes {
			if err := validateMagnitude(m); err != nil {
				return nil, err
			}
		}
		fb.VibraPattern = &model.VibraPatternSpec{Magnitudes: fe.Magnitudes, DurationsMs: fe.Durations}
	case "Led":
		led, err := parseLedColor(fe.Color)
		if err != nil {
			return nil, err
		}
		fb.Kind = model.KindLed
		pct := uint32(100)
		if fe.MaxBrightness != nil {
			pct = *fe.MaxBrightness
		}
		if pct > 100 {
			return nil, ferrors.Wrap(ferrors.ErrThemeParse, "max-brightness out of range", nil)
		}
		led.FrequencyMHz = fe.Frequency
		led.MaxBrightnessPct = pct
		fb.Led = led
	default:
		return nil, ferrors.Wrap(ferrors.ErrThemeParse, fmt.Sprintf("unknown feedback type %q", fe.Type), nil)
	}

	return fb, nil
}

func validateMagnitude(m float64) error {
	if m < 0 || m > 1 {
		return ferrors.Wrap(ferrors.ErrThemeParse, "magnitude out of range [0,1]", nil)
	}
	return nil
}

// namedColorRGB maps each named ColorTag to the RGB triple a multicolor LED
// drives it with; plain single-color LEDs ignore RGB and key off Color
// itself, but multicolor devices need an actual triple even for a named
// color, not just for "#RRGGBB" overrides.
var namedColorRGB = map[model.ColorTag][3]uint8{
	model.ColorRed:   {255, 0, 0},
	model.ColorGreen: {0, 255, 0},
	model.ColorBlue:  {0, 0, 255},
	model.ColorWhite: {255, 255, 255},
}

func parseLedColor(raw string) (*model.LedSpec, error) {
	spec := &model.LedSpec{}
	switch raw {
	case "red":
		spec.Color = model.ColorRed
	case "green":
		spec.Color = model.ColorGreen
	case "blue":
		spec.Color = model.ColorBlue
	case "white":
		spec.Color = model.ColorWhite
	default:
		r, g, b, ok := parseHexColor(raw)
		if !ok {
			return nil, ferrors.Wrap(ferrors.ErrThemeParse, fmt.Sprintf("unknown led color %q", raw), nil)
		}
		spec.Color = model.ColorRGB
		spec.RGB = [3]uint8{r, g, b}
	}
	if rgb, ok := namedColorRGB[spec.Color]; ok {
		spec.RGB = rgb
	}
	return spec, nil
}

func parseHexColor(s string) (r, g, b uint8, ok bool) {
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, false
	}
	var v uint32
	if _, err := fmt.Sscanf(s[1:], "%06x", &v); err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}
