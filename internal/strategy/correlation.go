// Package strategy correlates strategic objectives with TOWS strategies.
// The matcher is a deliberate keyword/affinity heuristic rather than a
// statistical model: scores are additive and bounded, so the same inputs
// always produce the same score.
package strategy

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Perspective is a balanced-scorecard perspective of a strategic objective.
type Perspective string

const (
	PerspectiveExternalStakeholder Perspective = "external_stakeholder"
	PerspectiveInternalProcess     Perspective = "internal_process"
	PerspectiveLearningGrowth      Perspective = "learning_growth"
	PerspectiveFinancial           Perspective = "financial"
)

func (p Perspective) Valid() bool {
	switch p {
	case PerspectiveExternalStakeholder, PerspectiveInternalProcess,
		PerspectiveLearningGrowth, PerspectiveFinancial:
		return true
	}
	return false
}

// Type is a TOWS strategy type: the SWOT factor pairing it was derived from.
type Type string

const (
	TypeSO Type = "SO" // strength-opportunity
	TypeWO Type = "WO" // weakness-opportunity
	TypeST Type = "ST" // strength-threat
	TypeWT Type = "WT" // weakness-threat
)

func (t Type) Valid() bool {
	switch t {
	case TypeSO, TypeWO, TypeST, TypeWT:
		return true
	}
	return false
}

// Objective is the correlation input derived from a strategic objective row.
type Objective struct {
	Text        string
	Perspective Perspective
}

// Candidate is one TOWS strategy from the catalog.
type Candidate struct {
	ID   uuid.UUID
	Type Type
	Text string
}

// Match is the best-scoring candidate for an objective.
type Match struct {
	StrategyID uuid.UUID
	Score      float64
	Confidence int // round(score * 100)
}

// MinScore is the floor a candidate must exceed to be reported as a match.
const MinScore = 0.3

// perspectiveKeywords score +0.2 per keyword found in the objective text.
var perspectiveKeywords = map[Perspective][]string{
	PerspectiveExternalStakeholder: {"patient", "community", "stakeholder", "satisfaction", "service", "access"},
	PerspectiveInternalProcess:     {"process", "quality", "efficiency", "safety", "workflow", "compliance"},
	PerspectiveLearningGrowth:      {"training", "learning", "staff", "skill", "capability", "culture"},
	PerspectiveFinancial:           {"revenue", "cost", "budget", "financial", "margin", "funding"},
}

// typeKeywords score +0.15 per keyword found in the candidate text.
var typeKeywords = map[Type][]string{
	TypeSO: {"expand", "leverage", "grow", "capitalize", "opportunity"},
	TypeWO: {"improve", "develop", "strengthen", "invest", "adopt"},
	TypeST: {"protect", "defend", "mitigate", "maintain", "secure"},
	TypeWT: {"reduce", "avoid", "minimize", "retrench", "consolidate"},
}

// affinity is the fixed perspective/type correlation table, added directly
// to the score.
var affinity = map[Perspective]map[Type]float64{
	PerspectiveExternalStakeholder: {TypeSO: 0.8, TypeWO: 0.6, TypeST: 0.5, TypeWT: 0.3},
	PerspectiveInternalProcess:     {TypeSO: 0.5, TypeWO: 0.8, TypeST: 0.4, TypeWT: 0.6},
	PerspectiveLearningGrowth:      {TypeSO: 0.9, TypeWO: 0.7, TypeST: 0.3, TypeWT: 0.2},
	PerspectiveFinancial:           {TypeSO: 0.7, TypeWO: 0.5, TypeST: 0.6, TypeWT: 0.4},
}

// BestMatch returns the strictly highest-scoring candidate, or nil when no
// candidate exceeds MinScore or the catalog is empty. Equal top scores keep
// the earlier candidate: catalog order is the tie-breaker.
func BestMatch(objective Objective, catalog []Candidate) *Match {
	var best *Match

	for _, candidate := range catalog {
		score := correlate(objective, candidate)
		if best == nil || score > best.Score {
			best = &Match{
				StrategyID: candidate.ID,
				Score:      score,
				Confidence: int(math.Round(score * 100)),
			}
		}
	}

	if best == nil || best.Score <= MinScore {
		return nil
	}
	return best
}

// correlate computes the additive score for one objective/candidate pair.
func correlate(objective Objective, candidate Candidate) float64 {
	objectiveText := strings.ToLower(objective.Text)
	candidateText := strings.ToLower(candidate.Text)

	var score float64

	for _, kw := range perspectiveKeywords[objective.Perspective] {
		if strings.Contains(objectiveText, kw) {
			score += 0.2
		}
	}

	for _, kw := range typeKeywords[candidate.Type] {
		if strings.Contains(candidateText, kw) {
			score += 0.15
		}
	}

	score += affinity[objective.Perspective][candidate.Type]
	score += contentSimilarity(objectiveText, candidateText) * 0.5

	return score
}

// contentSimilarity counts objective tokens (longer than 3 characters) that
// are a substring of, or contain, some candidate token, normalized by the
// objective token count.
func contentSimilarity(objectiveText, candidateText string) float64 {
	objectiveTokens := significantTokens(objectiveText)
	if len(objectiveTokens) == 0 {
		return 0
	}
	candidateTokens := significantTokens(candidateText)

	matched := 0
	for _, ot := range objectiveTokens {
		for _, ct := range candidateTokens {
			if strings.Contains(ot, ct) || strings.Contains(ct, ot) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(objectiveTokens))
}

func significantTokens(text string) []string {
	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
