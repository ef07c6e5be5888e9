package constants

// GameMode is the server-side game mode, including relax/autopilot variants.
// Vanilla modes are 0-3, relax 4-7 (no rx!mania), autopilot 8 (std only).
type GameMode uint8

const (
	ModeVanillaOsu GameMode = iota
	ModeVanillaTaiko
	ModeVanillaCatch
	ModeVanillaMania
	ModeRelaxOsu
	ModeRelaxTaiko
	ModeRelaxCatch
	_ // rx!mania does not exist
	ModeAutopilotOsu
)

// AsVanilla strips the relax/autopilot offsets, giving the
// client-facing mode 0-3.
func (m GameMode) AsVanilla() uint8 {
	switch {
	case m >= ModeAutopilotOsu:
		return uint8(m - 8)
	case m >= ModeRelaxOsu:
		return uint8(m - 4)
	default:
		return uint8(m)
	}
}

// NormalizeStatusMode applies the client's mods to the raw mode byte the
// way the osu! client expects: relax shifts the mode by 4, autopilot by 8,
// and impossible combinations drop the mod instead. An out-of-range mode
// byte falls back to osu!standard.
func NormalizeStatusMode(mode uint8, mods Mods) (GameMode, Mods) {
	if mode > 3 {
		mode = 0
	}
	if mods&ModRelax != 0 {
		if mode == 3 { // rx!mania doesn't exist
			mods &^= ModRelax
		} else {
			mode += 4
		}
	} else if mods&ModAutopilot != 0 {
		if mode == 1 || mode == 2 || mode == 3 { // ap exists for std only
			mods &^= ModAutopilot
		} else {
			mode += 8
		}
	}
	return GameMode(mode), mods
}
