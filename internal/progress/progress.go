// Package progress maps cumulative XP onto levels and intra-level progress.
package progress

import (
	"fmt"
	"math"
	"sort"
)

// CurveCoef is the XP curve constant: threshold(L) = CurveCoef * (L-1)^1.5.
const CurveCoef = 500.0

// ExperienceTable holds cumulative XP thresholds indexed by level-1.
// Level 1 starts at 0. Thresholds are non-decreasing.
type ExperienceTable []int

// Validate reports the first violation of the table invariants.
// Calculate never relies on it; a malformed table only degrades results.
func (t ExperienceTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("experience table is empty")
	}
	if t[0] != 0 {
		return fmt.Errorf("experience table must start at 0, got %d", t[0])
	}
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return fmt.Errorf("experience table decreases at level %d: %d < %d", i+1, t[i], t[i-1])
		}
	}
	return nil
}

// MaxLevel returns the highest level the table describes.
func (t ExperienceTable) MaxLevel() int {
	if len(t) == 0 {
		return 1
	}
	return len(t)
}

// CurveTable generates a table for levels 1..maxLevel from the XP curve.
func CurveTable(maxLevel int) ExperienceTable {
	if maxLevel < 1 {
		maxLevel = 1
	}
	t := make(ExperienceTable, maxLevel)
	for i := 1; i < maxLevel; i++ {
		// ceil keeps thresholds from getting easier through float rounding.
		t[i] = int(math.Ceil(CurveCoef * math.Pow(float64(i), 1.5)))
	}
	return t
}

// Progress is the derived game state for one player.
type Progress struct {
	Level               int
	XP                  int
	CurrentLevelXPStart int
	NextLevelXPTarget   int
	XPInCurrentLevel    int
	TotalXPForLevel     int
	Fraction            float64
	Maxed               bool
}

// Remaining returns the XP left until the next level, 0 when maxed.
func (p Progress) Remaining() int {
	if p.Maxed {
		return 0
	}
	r := p.NextLevelXPTarget - p.XP
	if r < 0 {
		return 0
	}
	return r
}

// Calculate computes progress for a claimed level and cumulative XP.
// Out-of-range levels and malformed tables degrade to safe defaults;
// it never panics and never divides by zero.
func Calculate(xp, level int, table ExperienceTable) Progress {
	if xp < 0 {
		xp = 0
	}

	start := 0
	if level >= 1 && level <= len(table) {
		start = table[level-1]
	}

	last := 0
	if len(table) > 0 {
		last = table[len(table)-1]
	}

	target := last
	maxed := true
	if level >= 1 && level < len(table) {
		target = table[level]
		maxed = false
	}

	total := target - start
	if total < 1 {
		total = 1
	}

	in := xp - start
	frac := float64(in) / float64(total)
	switch {
	case frac < 0:
		frac = 0
	case frac > 1:
		frac = 1
	}

	return Progress{
		Level:               level,
		XP:                  xp,
		CurrentLevelXPStart: start,
		NextLevelXPTarget:   target,
		XPInCurrentLevel:    in,
		TotalXPForLevel:     total,
		Fraction:            frac,
		Maxed:               maxed,
	}
}

// LevelFor returns the highest level whose threshold is <= xp. Always >= 1.
func LevelFor(xp int, table ExperienceTable) int {
	if len(table) == 0 || xp <= 0 {
		return 1
	}
	// First index whose threshold exceeds xp; that index is also the level.
	n := sort.Search(len(table), func(i int) bool { return table[i] > xp })
	if n < 1 {
		return 1
	}
	return n
}

// ForXP derives the level from authoritative XP and calculates progress.
func ForXP(xp int, table ExperienceTable) Progress {
	return Calculate(xp, LevelFor(xp, table), table)
}
