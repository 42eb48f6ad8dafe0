// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package led

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhoshMobi/feedbackd/internal/model"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "x")
	assert.False(t, fileExists(f))
	require.NoError(t, os.WriteFile(f, []byte("1"), 0o644))
	assert.True(t, fileExists(f))
}

func TestProbeQCOMSingleAndMulticolor(t *testing.T) {
	dir := t.TempDir()
	qcomDir := filepath.Join(dir, "qcom-red")
	require.NoError(t, os.MkdirAll(qcomDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(qcomDir, attrBrightness), []byte("0"), 0o644))
	assert.True(t, probeQCOMSingle(qcomDir))
	assert.False(t, probeQCOMMulticolor(qcomDir))

	require.NoError(t, os.WriteFile(filepath.Join(qcomDir, attrMultiIndex), []byte("red green blue"), 0o644))
	assert.True(t, probeQCOMMulticolor(qcomDir))
}

func TestProbeGenericPlainAndFlash(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.MkdirAll(plain, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(plain, attrBrightness), []byte("0"), 0o644))
	assert.True(t, probeGenericPlain(plain))
	assert.False(t, probeGenericFlash(plain))

	flash := filepath.Join(dir, "flash-torch")
	require.NoError(t, os.MkdirAll(flash, 0o755))
	assert.True(t, probeGenericFlash(flash))
}

func TestReadUintAttr(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMaxBright), []byte("255\n"), 0o644))
	v, err := readUintAttr(dir, attrMaxBright)
	require.NoError(t, err)
	assert.Equal(t, uint32(255), v)

	_, err = readUintAttr(dir, "missing")
	require.Error(t, err)
}

func TestReadMultiIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMultiIndex), []byte("red green blue"), 0o644))
	idx := readMultiIndex(dir)
	assert.Equal(t, map[string]int{"red": 0, "green": 1, "blue": 2}, idx)

	assert.Nil(t, readMultiIndex(filepath.Join(dir, "nope")))
}

func newPlainLED(t *testing.T) (*sysfsLED, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMaxBright), []byte("255"), 0o644))
	return newSysfsLED(dir, model.LEDPlain), dir
}

func TestSysfsLED_SupportsColor_Plain(t *testing.T) {
	l, _ := newPlainLED(t)
	assert.True(t, l.SupportsColor(model.ColorWhite))
	assert.False(t, l.SupportsColor(model.ColorRed))
}

func TestSysfsLED_SupportsColor_Multicolor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMultiIndex), []byte("red green blue"), 0o644))
	l := newSysfsLED(dir, model.LEDMulticolor)

	assert.True(t, l.SupportsColor(model.ColorRed))
	assert.True(t, l.SupportsColor(model.ColorRGB))
	assert.False(t, l.SupportsColor(model.ColorFlash))
}

func TestSysfsLED_SupportsColor_Flash(t *testing.T) {
	l, _ := newPlainLED(t)
	l.variant = model.LEDFlash
	assert.True(t, l.SupportsColor(model.ColorFlash))
	assert.True(t, l.SupportsColor(model.ColorWhite))
	assert.False(t, l.SupportsColor(model.ColorRed))
}

func TestSysfsLED_BlinkAndOff_PlainWritesBrightness(t *testing.T) {
	l, dir := newPlainLED(t)
	require.NoError(t, l.Blink(context.Background(), [3]uint8{}, 10, 50))

	got, err := os.ReadFile(filepath.Join(dir, attrBrightness))
	require.NoError(t, err)
	assert.Equal(t, "127", string(got)) // 255 * 50 / 100

	require.NoError(t, l.Off(context.Background()))
	got, err = os.ReadFile(filepath.Join(dir, attrBrightness))
	require.NoError(t, err)
	assert.Equal(t, "0", string(got))
}

func TestSysfsLED_Blink_ClampsOverhundredPercent(t *testing.T) {
	l, dir := newPlainLED(t)
	require.NoError(t, l.Blink(context.Background(), [3]uint8{}, 10, 250))

	got, err := os.ReadFile(filepath.Join(dir, attrBrightness))
	require.NoError(t, err)
	assert.Equal(t, "255", string(got))
}

func TestSysfsLED_WriteMultiIntensity_ScalesChannels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMultiIndex), []byte("red green blue"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, attrMaxBright), []byte("255"), 0o644))
	l := newSysfsLED(dir, model.LEDMulticolor)

	require.NoError(t, l.Blink(context.Background(), [3]uint8{255, 128, 0}, 0, 100))

	got, err := os.ReadFile(filepath.Join(dir, attrMultiInten))
	require.NoError(t, err)
	assert.Equal(t, "255 128 0", string(got))
}

func TestNewSysfsLED_Priorities(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, 5, newSysfsLED(dir, model.LEDMulticolor).priority)
	assert.Equal(t, 8, newSysfsLED(dir, model.LEDVendorQCOM).priority)
	assert.Equal(t, 3, newSysfsLED(dir, model.LEDFlash).priority)
	assert.Equal(t, 10, newSysfsLED(dir, model.LEDPlain).priority)
}

func TestNewSysfsLED_DefaultsMaxBrightnessWhenAttributeMissing(t *testing.T) {
	l := newSysfsLED(t.TempDir(), model.LEDPlain)
	assert.Equal(t, uint32(255), l.maxBright)
}
