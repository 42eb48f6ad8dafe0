// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_AllCombinations(t *testing.T) {
	cause := errors.New("boom")

	err := Wrap(ErrDeviceDrive, "", nil)
	require.ErrorIs(t, err, ErrDeviceDrive)
	assert.Equal(t, ErrDeviceDrive, err)

	err = Wrap(ErrDeviceDrive, "led blink", nil)
	require.ErrorIs(t, err, ErrDeviceDrive)
	assert.Contains(t, err.Error(), "led blink")

	err = Wrap(ErrDeviceDrive, "", cause)
	require.ErrorIs(t, err, ErrDeviceDrive)
	require.ErrorIs(t, err, cause)

	err = Wrap(ErrDeviceDrive, "led blink", cause)
	require.ErrorIs(t, err, ErrDeviceDrive)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "led blink")
	assert.Contains(t, err.Error(), "boom")
}

func TestIs(t *testing.T) {
	wrapped := Wrap(ErrNoDeviceForFeedback, "no led", nil)
	assert.True(t, Is(wrapped, ErrNoDeviceForFeedback))
	assert.False(t, Is(wrapped, ErrThemeMissing))
}
