package sim

import "math"

// ProgressionRules controls how realized trades turn into experience.
type ProgressionRules struct {
	FirstLevelXP float64 `json:"first_level_xp" yaml:"first_level_xp"`
	LevelFactor  float64 `json:"level_factor" yaml:"level_factor"`
	MinWinXP     int     `json:"min_win_xp" yaml:"min_win_xp"`
	WinXPRate    float64 `json:"win_xp_rate" yaml:"win_xp_rate"`
	LossXP       int     `json:"loss_xp" yaml:"loss_xp"`
}

func DefaultProgressionRules() ProgressionRules {
	return ProgressionRules{
		FirstLevelXP: 1000,
		LevelFactor:  1.5,
		MinWinXP:     10,
		WinXPRate:    0.1,
		LossXP:       5,
	}
}

// XPForTrade is max(MinWinXP, floor(profit*WinXPRate)) for a win and a flat
// LossXP otherwise.
func (r ProgressionRules) XPForTrade(profit float64) int {
	if profit <= 0 {
		return r.LossXP
	}
	xp := int(math.Floor(profit * r.WinXPRate))
	if xp < r.MinWinXP {
		xp = r.MinWinXP
	}
	return xp
}

// Progression is the player's level state.
type Progression struct {
	Level       int     `json:"level" yaml:"level"`
	XP          int     `json:"xp" yaml:"xp"`
	NextLevelXP float64 `json:"next_level_xp" yaml:"next_level_xp"`
}

func NewProgression(r ProgressionRules) Progression {
	return Progression{Level: 1, NextLevelXP: r.FirstLevelXP}
}

// Award adds xp and levels up as many times as the total allows. Each level
// up discards the remainder and raises the threshold by LevelFactor.
// It returns the number of levels gained.
func (p *Progression) Award(xp int, r ProgressionRules) int {
	if xp <= 0 {
		return 0
	}
	p.XP += xp
	if !(p.NextLevelXP > 0) {
		return 0
	}

	levels := 0
	for float64(p.XP) >= p.NextLevelXP {
		p.Level++
		p.XP = 0
		p.NextLevelXP *= r.LevelFactor
		levels++
	}
	return levels
}
