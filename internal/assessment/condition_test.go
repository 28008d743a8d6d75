package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected Condition
	}{
		{
			name:     "overall less than",
			expr:     "percentage < 40",
			expected: Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 40},
		},
		{
			name:     "overall greater than no spaces",
			expr:     "percentage>70",
			expected: Condition{Scope: ScopeOverall, Operator: OpGT, Threshold: 70},
		},
		{
			name:     "overall equality",
			expr:     "percentage = 50",
			expected: Condition{Scope: ScopeOverall, Operator: OpEQ, Threshold: 50},
		},
		{
			name:     "fractional threshold",
			expr:     "percentage < 33.5",
			expected: Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 33.5},
		},
		{
			name: "category subject",
			expr: "categoryScores[digital_readiness].percentage > 50",
			expected: Condition{
				Scope:     ScopeCategory,
				Category:  "digital_readiness",
				Operator:  OpGT,
				Threshold: 50,
			},
		},
		{
			name: "category subject with quotes",
			expr: `categoryScores['finance'].percentage < 40`,
			expected: Condition{
				Scope:     ScopeCategory,
				Category:  "finance",
				Operator:  OpLT,
				Threshold: 40,
			},
		},
		{"no operator", "percentage 40", Condition{}},
		{"non-numeric threshold", "percentage < abc", Condition{}},
		{"unsupported subject", "totalScore < 40", Condition{}},
		{"empty expression", "", Condition{}},
		{
			// An unterminated bracket loses the category and falls back to
			// the overall percentage.
			name:     "unterminated category bracket",
			expr:     "categoryScores[digital.percentage < 40",
			expected: Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCondition(tt.expr))
		})
	}
}

func TestCondition_Eval(t *testing.T) {
	score := &AssessmentScore{
		Percentage: 55,
		Categories: []CategoryScore{
			{Category: "digital", Percentage: 30},
			{Category: "finance", Percentage: 72},
		},
	}

	tests := []struct {
		name     string
		cond     Condition
		expected bool
	}{
		{"overall lt true", Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 60}, true},
		{"overall lt false at boundary", Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 55}, false},
		{"overall gt true", Condition{Scope: ScopeOverall, Operator: OpGT, Threshold: 50}, true},
		{"overall eq exact", Condition{Scope: ScopeOverall, Operator: OpEQ, Threshold: 55}, true},
		{"overall eq within epsilon", Condition{Scope: ScopeOverall, Operator: OpEQ, Threshold: 55 + 1e-12}, true},
		{"overall eq off", Condition{Scope: ScopeOverall, Operator: OpEQ, Threshold: 55.1}, false},
		{"category lt true", Condition{Scope: ScopeCategory, Category: "digital", Operator: OpLT, Threshold: 40}, true},
		{"category gt true", Condition{Scope: ScopeCategory, Category: "finance", Operator: OpGT, Threshold: 70}, true},
		{"missing category false", Condition{Scope: ScopeCategory, Category: "marketing", Operator: OpLT, Threshold: 100}, false},
		{"zero value never matches", Condition{}, false},
		{"unknown operator", Condition{Scope: ScopeOverall, Operator: "gte", Threshold: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cond.Eval(score))
		})
	}
}

func TestCondition_Eval_NilScore(t *testing.T) {
	cond := Condition{Scope: ScopeOverall, Operator: OpLT, Threshold: 100}
	assert.False(t, cond.Eval(nil))
}

func TestParseCondition_RoundTripThroughEval(t *testing.T) {
	score := &AssessmentScore{
		Percentage: 35,
		Categories: []CategoryScore{{Category: "digital", Percentage: 35}},
	}

	assert.True(t, ParseCondition("percentage < 40").Eval(score))
	assert.False(t, ParseCondition("percentage > 40").Eval(score))
	assert.True(t, ParseCondition("categoryScores[digital].percentage < 50").Eval(score))
	assert.False(t, ParseCondition("garbage expression").Eval(score))
}
