// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

// Theme is a loaded and (possibly) parent-merged theme: a mapping from
// (profile, event-name) to a list of Feedback templates (§3 "Theme").
type Theme struct {
	Name       string
	ParentName string
	// Profiles maps profile name to event name to the feedback templates
	// registered for that (profile, event) pair. Multiple templates may
	// exist for one event within one profile.
	Profiles map[ProfileLevel]map[string][]*Feedback
}

// NewTheme returns an empty Theme ready for entries to be merged into.
func NewTheme(name string) *Theme {
	return &Theme{
		Name: name,
		Profiles: map[ProfileLevel]map[string][]*Feedback{
			ProfileFull:   {},
			ProfileQuiet:  {},
			ProfileSilent: {},
		},
	}
}

// Lookup returns fresh per-event clones of the feedback templates bound to
// eventName across every profile consulted at level (§4.2 "Lookup"). Theme
// is shared read-only state referenced by every event that triggers the
// same (profile, event-name) pair, so each caller gets its own Feedback
// instances rather than pointers into the theme itself.
func (t *Theme) Lookup(level ProfileLevel, eventName string) []*Feedback {
	var out []*Feedback
	for _, p := range level.ProfilesToSearch() {
		byEvent := t.Profiles[p]
		if byEvent == nil {
			continue
		}
		for _, fb := range byEvent[eventName] {
			out = append(out, fb.Clone())
		}
	}
	return out
}

// Set registers (or overwrites) the feedback list bound to (profile, event).
// Used both by the JSON loader and by parent-chain merging, where a child
// entry overwrites rather than appends to a parent entry (§3 "Theme" invariant).
func (t *Theme) Set(profile ProfileLevel, eventName string, feedbacks []*Feedback) {
	if t.Profiles == nil {
		t.Profiles = map[ProfileLevel]map[string][]*Feedback{}
	}
	if t.Profiles[profile] == nil {
		t.Profiles[profile] = map[string][]*Feedback{}
	}
	t.Profiles[profile][eventName] = feedbacks
}

// Profile is the daemon-wide feedback policy setting (§3 "Profile (daemon setting)").
type Profile struct {
	ActiveLevel ProfileLevel
	PerApp      map[string]ProfileLevel
	ThemeName   string
}

// EffectiveLevel resolves the level to use for appID given hints, per the
// precedence in §4.1: per-app override > hints.profile (only if important) >
// global level. A per-app override is the final word even when the caller
// sent an important hint requesting a different level.
func (p *Profile) EffectiveLevel(appID string, hints Hints) ProfileLevel {
	level := p.ActiveLevel
	if hints.Important && hints.Profile.Valid() {
		level = hints.Profile
	}
	if override, ok := p.PerApp[appID]; ok && override.Valid() {
		level = override
	}
	return level
}

// ClientRegistration tracks one connected bus client and the events it owns
// (§3 "Client registration").
type ClientRegistration struct {
	BusName        string
	ActiveEventIDs map[uint32]struct{}
}

func NewClientRegistration(busName string) *ClientRegistration {
	return &ClientRegistration{BusName: busName, ActiveEventIDs: map[uint32]struct{}{}}
}
