package strategy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestMatch_EmptyCatalog(t *testing.T) {
	objective := Objective{Text: "improve patient satisfaction", Perspective: PerspectiveExternalStakeholder}

	match := BestMatch(objective, nil)
	assert.Nil(t, match)

	match = BestMatch(objective, []Candidate{})
	assert.Nil(t, match)
}

func TestBestMatch_AffinityOnly(t *testing.T) {
	// No keyword or token overlap: score is the bare affinity weight.
	objective := Objective{
		Text:        "zzz qqq",
		Perspective: PerspectiveLearningGrowth,
	}
	candidate := Candidate{
		ID:   uuid.New(),
		Type: TypeSO,
		Text: "xxx yyy",
	}

	match := BestMatch(objective, []Candidate{candidate})
	require.NotNil(t, match)
	assert.Equal(t, candidate.ID, match.StrategyID)
	assert.InDelta(t, 0.9, match.Score, 1e-9)
	assert.Equal(t, 90, match.Confidence)
}

func TestBestMatch_BelowThreshold(t *testing.T) {
	// learning_growth x WT affinity is 0.2; with no other overlap the score
	// never clears the 0.3 floor.
	objective := Objective{
		Text:        "zzz qqq",
		Perspective: PerspectiveLearningGrowth,
	}
	candidate := Candidate{
		ID:   uuid.New(),
		Type: TypeWT,
		Text: "xxx yyy",
	}

	match := BestMatch(objective, []Candidate{candidate})
	assert.Nil(t, match)
}

func TestBestMatch_ExactlyAtThresholdIsNoMatch(t *testing.T) {
	// external_stakeholder x WT affinity is exactly 0.3; the score must
	// strictly exceed the floor to count.
	objective := Objective{
		Text:        "zzz qqq",
		Perspective: PerspectiveExternalStakeholder,
	}
	candidate := Candidate{
		ID:   uuid.New(),
		Type: TypeWT,
		Text: "xxx yyy",
	}

	match := BestMatch(objective, []Candidate{candidate})
	assert.Nil(t, match)
}

func TestBestMatch_KeywordScoring(t *testing.T) {
	objective := Objective{
		Text:        "improve patient satisfaction across the community",
		Perspective: PerspectiveExternalStakeholder,
	}
	strong := Candidate{
		ID:   uuid.New(),
		Type: TypeSO,
		Text: "expand outreach to leverage community partnerships",
	}
	weak := Candidate{
		ID:   uuid.New(),
		Type: TypeWT,
		Text: "zzz",
	}

	match := BestMatch(objective, []Candidate{weak, strong})
	require.NotNil(t, match)
	assert.Equal(t, strong.ID, match.StrategyID)

	// 3 perspective keywords (patient, satisfaction, community) + 2 type
	// keywords (expand, leverage) + 0.8 affinity, plus token similarity.
	assert.Greater(t, match.Score, 0.2*3+0.15*2+0.8-1e-9)
}

func TestBestMatch_TieKeepsFirstCandidate(t *testing.T) {
	objective := Objective{
		Text:        "zzz qqq",
		Perspective: PerspectiveFinancial,
	}
	first := Candidate{ID: uuid.New(), Type: TypeSO, Text: "xxx"}
	second := Candidate{ID: uuid.New(), Type: TypeSO, Text: "yyy"}

	match := BestMatch(objective, []Candidate{first, second})
	require.NotNil(t, match)
	assert.Equal(t, first.ID, match.StrategyID)
}

func TestBestMatch_Deterministic(t *testing.T) {
	objective := Objective{
		Text:        "reduce medication administration errors through process redesign",
		Perspective: PerspectiveInternalProcess,
	}
	catalog := []Candidate{
		{ID: uuid.New(), Type: TypeWO, Text: "improve medication workflow with barcode verification"},
		{ID: uuid.New(), Type: TypeST, Text: "protect accreditation status"},
		{ID: uuid.New(), Type: TypeWT, Text: "reduce reliance on agency staff"},
	}

	first := BestMatch(objective, catalog)
	second := BestMatch(objective, catalog)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Equal(t, catalog[0].ID, first.StrategyID)
}

func TestContentSimilarity(t *testing.T) {
	// "improve" and "staffing" match candidate tokens; "morale" does not.
	// Tokens of 3 characters or fewer are ignored entirely.
	sim := contentSimilarity("improve staffing and morale", "staffing improvements planned")
	assert.InDelta(t, 2.0/3.0, sim, 1e-9)

	assert.Zero(t, contentSimilarity("", "anything here"))
	assert.Zero(t, contentSimilarity("a an the", "anything here"))
}

func TestPerspectiveAndTypeValidation(t *testing.T) {
	assert.True(t, PerspectiveLearningGrowth.Valid())
	assert.False(t, Perspective("growth").Valid())
	assert.True(t, TypeSO.Valid())
	assert.False(t, Type("XX").Valid())
}
