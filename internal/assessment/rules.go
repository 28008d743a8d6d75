package assessment

import "sort"

// ApplyScoringRules applies the rule set to the score in ascending priority
// order and returns the same score. Each matching rule adjusts TotalScore and
// the percentage is re-derived after every adjustment, so a later rule sees
// the cumulative effect of earlier ones. There is no re-evaluation loop: an
// adjusted score is never re-checked against earlier rules.
func ApplyScoringRules(score *AssessmentScore, rules []ScoringRule) *AssessmentScore {
	if score == nil || len(rules) == 0 {
		return score
	}

	ordered := make([]ScoringRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if !rule.Condition.Eval(score) {
			continue
		}
		switch rule.Adjustment {
		case AdjustAdd:
			score.TotalScore += rule.Modifier
		case AdjustMultiply:
			score.TotalScore *= rule.Modifier
		case AdjustSet:
			score.TotalScore = rule.Modifier
		default:
			continue
		}
		score.Percentage = percentage(score.TotalScore, score.MaxPossibleScore)
	}
	return score
}
