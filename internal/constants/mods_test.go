package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMods_String(t *testing.T) {
	tests := []struct {
		mods Mods
		out  string
	}{
		{ModNoMod, "NM"},
		{ModHidden, "HD"},
		{ModHidden | ModDoubleTime, "HDDT"},
		{ModHidden | ModHardRock | ModDoubleTime, "HDHRDT"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.out, tt.mods.String())
	}
}

func TestSpeedChangingMods(t *testing.T) {
	assert.NotZero(t, ModDoubleTime&SpeedChangingMods)
	assert.NotZero(t, ModNightcore&SpeedChangingMods)
	assert.NotZero(t, ModHalfTime&SpeedChangingMods)
	assert.Zero(t, ModHidden&SpeedChangingMods)
}

func TestNormalizeStatusMode(t *testing.T) {
	tests := []struct {
		name     string
		mode     uint8
		mods     Mods
		wantMode GameMode
		wantMods Mods
	}{
		{"vanilla std", 0, ModNoMod, ModeVanillaOsu, ModNoMod},
		{"relax std", 0, ModRelax, ModeRelaxOsu, ModRelax},
		{"relax taiko", 1, ModRelax, ModeRelaxTaiko, ModRelax},
		{"relax mania dropped", 3, ModRelax, ModeVanillaMania, ModNoMod},
		{"autopilot std", 0, ModAutopilot, ModeAutopilotOsu, ModAutopilot},
		{"autopilot taiko dropped", 1, ModAutopilot, ModeVanillaTaiko, ModNoMod},
		{"out of range falls back to std", 99, ModNoMod, ModeVanillaOsu, ModNoMod},
		{"out of range keeps relax", 42, ModRelax, ModeRelaxOsu, ModRelax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, mods := NormalizeStatusMode(tt.mode, tt.mods)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantMods, mods)
		})
	}
}

func TestGameMode_AsVanilla(t *testing.T) {
	assert.Equal(t, uint8(0), ModeVanillaOsu.AsVanilla())
	assert.Equal(t, uint8(3), ModeVanillaMania.AsVanilla())
	assert.Equal(t, uint8(0), ModeRelaxOsu.AsVanilla())
	assert.Equal(t, uint8(2), ModeRelaxCatch.AsVanilla())
	assert.Equal(t, uint8(0), ModeAutopilotOsu.AsVanilla())
}
