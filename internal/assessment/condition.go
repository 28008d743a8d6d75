package assessment

import (
	"math"
	"strconv"
	"strings"
)

// ConditionScope selects which percentage a condition tests.
type ConditionScope string

const (
	ScopeOverall  ConditionScope = "overall"
	ScopeCategory ConditionScope = "category"
)

// ConditionOp is the comparison operator of a condition.
type ConditionOp string

const (
	OpLT ConditionOp = "lt"
	OpGT ConditionOp = "gt"
	OpEQ ConditionOp = "eq"
)

// eqEpsilon is the tolerance for equality comparisons on derived percentages.
const eqEpsilon = 1e-9

// Condition is a parsed rule predicate: it compares either the overall
// percentage or a named category's percentage against a threshold. Conditions
// are parsed once at rule-load time, never re-parsed per evaluation. The zero
// value never matches.
type Condition struct {
	Scope     ConditionScope `json:"scope"`
	Category  string         `json:"category,omitempty"`
	Operator  ConditionOp    `json:"operator"`
	Threshold float64        `json:"threshold"`
}

// Eval reports whether the condition holds against the given score. A
// category condition naming a category absent from the score evaluates to
// false.
func (c Condition) Eval(score *AssessmentScore) bool {
	if score == nil {
		return false
	}
	var value float64
	switch c.Scope {
	case ScopeOverall:
		value = score.Percentage
	case ScopeCategory:
		found := false
		for _, cs := range score.Categories {
			if cs.Category == c.Category {
				value = cs.Percentage
				found = true
				break
			}
		}
		if !found {
			return false
		}
	default:
		return false
	}

	switch c.Operator {
	case OpLT:
		return value < c.Threshold
	case OpGT:
		return value > c.Threshold
	case OpEQ:
		return math.Abs(value-c.Threshold) < eqEpsilon
	}
	return false
}

// ParseCondition converts a legacy string condition into a Condition.
// Supported forms:
//
//	"percentage < 40"
//	"categoryScores[digital_readiness].percentage > 50"
//
// Parsing is deliberately permissive: anything unsupported yields the zero
// Condition, which never matches, so a badly authored rule degrades to a
// no-op instead of an error.
func ParseCondition(expr string) Condition {
	op, lhs, rhs := splitOnOperator(expr)
	if op == "" {
		return Condition{}
	}

	threshold, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
	if err != nil {
		return Condition{}
	}

	lhs = strings.TrimSpace(lhs)
	if !strings.Contains(lhs, "percentage") {
		return Condition{}
	}

	cond := Condition{Operator: ConditionOp(op), Threshold: threshold, Scope: ScopeOverall}
	if category, ok := categorySubject(lhs); ok {
		cond.Scope = ScopeCategory
		cond.Category = category
	}
	return cond
}

func splitOnOperator(expr string) (op ConditionOp, lhs, rhs string) {
	for _, probe := range []struct {
		symbol string
		op     ConditionOp
	}{
		{"<", OpLT},
		{">", OpGT},
		{"=", OpEQ},
	} {
		if idx := strings.Index(expr, probe.symbol); idx >= 0 {
			return probe.op, expr[:idx], expr[idx+len(probe.symbol):]
		}
	}
	return "", "", ""
}

// categorySubject extracts the category name from a
// "categoryScores[<name>].percentage" subject. Quotes around the name are
// tolerated.
func categorySubject(lhs string) (string, bool) {
	open := strings.Index(lhs, "categoryScores[")
	if open < 0 {
		return "", false
	}
	rest := lhs[open+len("categoryScores["):]
	closing := strings.Index(rest, "]")
	if closing < 0 {
		return "", false
	}
	name := strings.Trim(rest[:closing], `'" `)
	if name == "" {
		return "", false
	}
	return name, true
}
