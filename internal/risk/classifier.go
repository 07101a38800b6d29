// Package risk holds the deterministic risk-classification rules: the 5x5
// probability/impact matrix and the KPI achievement bands. Everything here is
// a pure function of its inputs; derived values are recomputed on every
// write, never mutated independently.
package risk

import (
	"errors"
	"fmt"
)

type Level string

const (
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
	LevelExtreme Level = "extreme"
)

// ErrOutOfRange is returned when probability or impact fall outside [1,5].
// Inputs are rejected, not clamped: a clamped value would silently corrupt
// the value = probability x impact invariant.
var ErrOutOfRange = errors.New("probability and impact must be between 1 and 5")

// Classification is a derived snapshot of a probability/impact pair.
type Classification struct {
	Probability int   `json:"probability"`
	Impact      int   `json:"impact"`
	Value       int   `json:"value"`
	Level       Level `json:"level"`
}

// Classify computes the risk value and level for a probability/impact pair.
// Value is probability x impact (1-25). Level bands, highest match wins:
// >=16 extreme, >=10 high, >=5 medium, otherwise low.
func Classify(probability, impact int) (Classification, error) {
	if probability < 1 || probability > 5 || impact < 1 || impact > 5 {
		return Classification{}, fmt.Errorf("%w: got probability=%d impact=%d", ErrOutOfRange, probability, impact)
	}

	value := probability * impact
	return Classification{
		Probability: probability,
		Impact:      impact,
		Value:       value,
		Level:       LevelOf(value),
	}, nil
}

// LevelOf maps a risk value (1-25) to its level band.
func LevelOf(value int) Level {
	switch {
	case value >= 16:
		return LevelExtreme
	case value >= 10:
		return LevelHigh
	case value >= 5:
		return LevelMedium
	default:
		return LevelLow
	}
}

// probabilityPercentages is a reference table, not a computation: the bands
// shown to assessors next to each probability index.
var probabilityPercentages = map[int]string{
	1: "1-20%",
	2: "21-40%",
	3: "41-60%",
	4: "61-80%",
	5: "81-99%",
}

// ProbabilityPercentage returns the human-readable percentage band for a
// probability index, or false when the index is outside [1,5].
func ProbabilityPercentage(probability int) (string, bool) {
	p, ok := probabilityPercentages[probability]
	return p, ok
}

// Delta reports residual value minus inherent value. Negative in a
// well-formed data set (mitigation reduces risk), but not enforced.
func Delta(inherent, residual Classification) int {
	return residual.Value - inherent.Value
}

type AchievementStatus string

const (
	StatusAchieved       AchievementStatus = "achieved"
	StatusNearlyAchieved AchievementStatus = "nearly_achieved"
	StatusInProgress     AchievementStatus = "in_progress"
	StatusNeedsAttention AchievementStatus = "needs_attention"
	StatusNotYetRealized AchievementStatus = "not_yet_realized"
)

// Achievement classifies a KPI realization against its target.
// A nil realization or a target <= 0 means the KPI is not yet realized;
// the percentage is reported as 0 rather than dividing by zero.
func Achievement(realization *float64, target float64) (float64, AchievementStatus) {
	if realization == nil || target <= 0 {
		return 0, StatusNotYetRealized
	}

	percentage := *realization / target * 100
	switch {
	case percentage >= 100:
		return percentage, StatusAchieved
	case percentage >= 75:
		return percentage, StatusNearlyAchieved
	case percentage >= 50:
		return percentage, StatusInProgress
	default:
		return percentage, StatusNeedsAttention
	}
}
