package scoring

// NeutralScore is assigned when the data needed for a sub-score is missing,
// so absence is neither rewarded nor penalized.
const NeutralScore = 50.0

// gradeScore maps a letter grade to a 0-100 sub-score on a fixed linear
// scale (A=100, E=20, evenly spaced). Unknown grades map to the neutral
// midpoint rather than failing a scoring run.
func gradeScore(g Grade) float64 {
	switch g {
	case GradeA:
		return 100
	case GradeB:
		return 80
	case GradeC:
		return 60
	case GradeD:
		return 40
	case GradeE:
		return 20
	default:
		return NeutralScore
	}
}

// novaScore maps a NOVA processing group (1..4) inversely to 0-100:
// 1=100, 2=75, 3=50, 4=25. Out-of-range groups map to the neutral midpoint.
func novaScore(group int) float64 {
	if group < 1 || group > 4 {
		return NeutralScore
	}
	return 100 - float64(group-1)*25
}

// QualityScore folds a product's quality profile into a single 0-100 score
// using the quality sub-weights. Missing components are excluded from the
// weighted average and the remaining weights are renormalized over present
// components only, keeping the score on the same scale regardless of data
// completeness. Pure and deterministic: identical inputs give bit-identical
// output.
//
// A provider-supplied OverallScore short-circuits derivation; the additive
// penalty still applies on top of it.
func QualityScore(p QualityProfile, qw QualityWeights, cfg *Config) float64 {
	base, ok := qualityBase(p, qw)
	if !ok {
		return NeutralScore
	}
	return clampScore(base - additivePenalty(p.Additives, cfg.AdditivePenalty))
}

func qualityBase(p QualityProfile, qw QualityWeights) (float64, bool) {
	if p.OverallScore != nil {
		return clampScore(*p.OverallScore), true
	}

	var weightSum, weighted float64
	if p.NutriGrade != nil {
		weighted += qw.NutriScore * gradeScore(*p.NutriGrade)
		weightSum += qw.NutriScore
	}
	if p.NovaGroup != nil {
		weighted += qw.NovaGroup * novaScore(*p.NovaGroup)
		weightSum += qw.NovaGroup
	}
	if p.EcoGrade != nil {
		weighted += qw.EcoScore * gradeScore(*p.EcoGrade)
		weightSum += qw.EcoScore
	}

	// No scorable components, or every present component carries zero
	// weight: nothing to renormalize over.
	if weightSum == 0 {
		return 0, false
	}
	return weighted / weightSum, true
}

// additivePenalty returns the total penalty for high-risk and dangerous
// additives. Low and moderate risk additives carry no penalty.
func additivePenalty(additives []Additive, perAdditive float64) float64 {
	var penalty float64
	for _, a := range additives {
		if a.RiskLevel == RiskHigh || a.RiskLevel == RiskDangerous {
			penalty += perAdditive
		}
	}
	return penalty
}
