package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gradePtr(g Grade) *Grade { return &g }

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func testScoringConfig() *Config {
	return DefaultConfig()
}

func TestGradeScale(t *testing.T) {
	assert.Equal(t, 100.0, gradeScore(GradeA))
	assert.Equal(t, 80.0, gradeScore(GradeB))
	assert.Equal(t, 60.0, gradeScore(GradeC))
	assert.Equal(t, 40.0, gradeScore(GradeD))
	assert.Equal(t, 20.0, gradeScore(GradeE))
	assert.Equal(t, NeutralScore, gradeScore(Grade("X")))
}

func TestNovaScale(t *testing.T) {
	assert.Equal(t, 100.0, novaScore(1))
	assert.Equal(t, 75.0, novaScore(2))
	assert.Equal(t, 50.0, novaScore(3))
	assert.Equal(t, 25.0, novaScore(4))
	assert.Equal(t, NeutralScore, novaScore(0))
	assert.Equal(t, NeutralScore, novaScore(5))
}

func TestQualityScoreAllComponentsPresent(t *testing.T) {
	p := QualityProfile{
		ProductID:  "p-1",
		NutriGrade: gradePtr(GradeA), // 100
		EcoGrade:   gradePtr(GradeC), // 60
		NovaGroup:  intPtr(2),        // 75
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	// Equal thirds over 100, 75, 60.
	assert.InDelta(t, (100.0+75.0+60.0)/3, score, 1e-9)
}

func TestQualityScoreRenormalizesOverPresentComponents(t *testing.T) {
	p := QualityProfile{
		ProductID:  "p-1",
		NutriGrade: gradePtr(GradeB), // 80
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	// Only nutri present: its weight renormalizes to 1, so the score is
	// the raw grade score, not a third of it.
	assert.InDelta(t, 80.0, score, 1e-9)
}

func TestQualityScoreNeutralWhenNoData(t *testing.T) {
	p := QualityProfile{ProductID: "p-1"}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	assert.Equal(t, NeutralScore, score)
}

func TestQualityScoreNeutralWhenPresentComponentsHaveZeroWeight(t *testing.T) {
	p := QualityProfile{
		ProductID: "p-1",
		NovaGroup: intPtr(1),
	}
	qw := QualityWeights{NutriScore: 1, NovaGroup: 0, EcoScore: 0}

	score := QualityScore(p, qw, testScoringConfig())

	assert.Equal(t, NeutralScore, score)
}

func TestQualityScoreAdditivePenalty(t *testing.T) {
	p := QualityProfile{
		ProductID:  "p-1",
		NutriGrade: gradePtr(GradeA), // base 100
		Additives: []Additive{
			{Code: "E320", RiskLevel: RiskHigh},
			{Code: "E621", RiskLevel: RiskDangerous},
			{Code: "E330", RiskLevel: RiskLow},      // no penalty
			{Code: "E415", RiskLevel: RiskModerate}, // no penalty
		},
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	// Two penalized additives at 15 points each.
	assert.InDelta(t, 70.0, score, 1e-9)
}

func TestQualityScoreFlooredAtZero(t *testing.T) {
	additives := make([]Additive, 10)
	for i := range additives {
		additives[i] = Additive{Code: "E000", RiskLevel: RiskDangerous}
	}
	p := QualityProfile{
		ProductID:  "p-1",
		NutriGrade: gradePtr(GradeE),
		Additives:  additives,
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	assert.Equal(t, 0.0, score)
}

func TestQualityScoreOverallShortCircuits(t *testing.T) {
	p := QualityProfile{
		ProductID:    "p-1",
		NutriGrade:   gradePtr(GradeE), // would score 20 if derived
		OverallScore: floatPtr(90),
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	assert.Equal(t, 90.0, score)
}

func TestQualityScoreOverallStillPenalized(t *testing.T) {
	p := QualityProfile{
		ProductID:    "p-1",
		OverallScore: floatPtr(90),
		Additives:    []Additive{{Code: "E320", RiskLevel: RiskHigh}},
	}

	score := QualityScore(p, DefaultQualityWeights(), testScoringConfig())

	assert.InDelta(t, 75.0, score, 1e-9)
}

func TestQualityScoreDeterministic(t *testing.T) {
	p := QualityProfile{
		ProductID:  "p-1",
		NutriGrade: gradePtr(GradeB),
		EcoGrade:   gradePtr(GradeD),
		NovaGroup:  intPtr(3),
		Additives:  []Additive{{Code: "E320", RiskLevel: RiskHigh}},
	}

	first := QualityScore(p, DefaultQualityWeights(), testScoringConfig())
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, QualityScore(p, DefaultQualityWeights(), testScoringConfig()))
	}
}
