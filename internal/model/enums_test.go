// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLevel_Valid(t *testing.T) {
	assert.True(t, ProfileFull.Valid())
	assert.True(t, ProfileQuiet.Valid())
	assert.True(t, ProfileSilent.Valid())
	assert.False(t, ProfileLevel("loud").Valid())
	assert.False(t, ProfileLevel("").Valid())
}

func TestProfileLevel_ProfilesToSearch(t *testing.T) {
	assert.Equal(t, []ProfileLevel{ProfileFull, ProfileQuiet, ProfileSilent}, ProfileFull.ProfilesToSearch())
	assert.Equal(t, []ProfileLevel{ProfileQuiet, ProfileSilent}, ProfileQuiet.ProfilesToSearch())
	assert.Equal(t, []ProfileLevel{ProfileSilent}, ProfileSilent.ProfilesToSearch())
}

func TestEndReason_Precedence(t *testing.T) {
	require.Greater(t, ReasonNotFound.Precedence(), ReasonExpired.Precedence())
	require.Greater(t, ReasonExpired.Precedence(), ReasonExplicit.Precedence())
	require.Greater(t, ReasonExplicit.Precedence(), ReasonNatural.Precedence())
}

func TestEndReason_String(t *testing.T) {
	cases := map[EndReason]string{
		ReasonNatural:  "natural",
		ReasonExpired:  "expired",
		ReasonExplicit: "explicit",
		ReasonNotFound: "not_found",
	}
	for reason, want := range cases {
		assert.Equal(t, want, reason.String())
	}
}

func TestFeedbackState_String(t *testing.T) {
	assert.Equal(t, "running", FeedbackRunning.String())
	assert.Equal(t, "ended", FeedbackEnded.String())
	assert.Equal(t, "unknown", FeedbackState(99).String())
}
