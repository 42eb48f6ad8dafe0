// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTheme_Lookup_UnionAcrossConsultedProfiles(t *testing.T) {
	th := NewTheme("test")
	th.Set(ProfileFull, "click", []*Feedback{{Index: 0, Kind: KindSound}})
	th.Set(ProfileSilent, "click", []*Feedback{{Index: 1, Kind: KindLed}})

	got := th.Lookup(ProfileFull, "click")
	require.Len(t, got, 2, "full consults full+quiet+silent, picking up both entries")
	assert.Equal(t, KindSound, got[0].Kind)
	assert.Equal(t, KindLed, got[1].Kind)

	gotSilent := th.Lookup(ProfileSilent, "click")
	require.Len(t, gotSilent, 1)
	assert.Equal(t, KindLed, gotSilent[0].Kind)
}

func TestTheme_Lookup_NoMatch(t *testing.T) {
	th := NewTheme("test")
	assert.Empty(t, th.Lookup(ProfileFull, "unknown-event"))
}

func TestTheme_Set_OverwritesNotAppends(t *testing.T) {
	th := NewTheme("test")
	th.Set(ProfileFull, "click", []*Feedback{{Index: 0, Kind: KindSound}})
	th.Set(ProfileFull, "click", []*Feedback{{Index: 0, Kind: KindDummy}})

	got := th.Lookup(ProfileFull, "click")
	require.Len(t, got, 1)
	assert.Equal(t, KindDummy, got[0].Kind)
}

func TestProfile_EffectiveLevel_Precedence(t *testing.T) {
	p := &Profile{ActiveLevel: ProfileFull, PerApp: map[string]ProfileLevel{"app.quiet": ProfileQuiet}}

	assert.Equal(t, ProfileFull, p.EffectiveLevel("app.default", Hints{}))
	assert.Equal(t, ProfileQuiet, p.EffectiveLevel("app.quiet", Hints{}))

	// hints.profile only applies when important is set.
	assert.Equal(t, ProfileFull, p.EffectiveLevel("app.default", Hints{Profile: ProfileSilent}))
	assert.Equal(t, ProfileSilent, p.EffectiveLevel("app.default", Hints{Profile: ProfileSilent, Important: true}))

	// a per-app override is the final word, even over an important hint.
	assert.Equal(t, ProfileQuiet, p.EffectiveLevel("app.quiet", Hints{Profile: ProfileSilent, Important: true}))
}

func TestNewClientRegistration(t *testing.T) {
	reg := NewClientRegistration(":1.42")
	assert.Equal(t, ":1.42", reg.BusName)
	assert.Empty(t, reg.ActiveEventIDs)
}
