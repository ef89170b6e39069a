// Package condition evaluates rule conditions against a pricing context.
// Rules are user-authored data, so evaluation is deliberately soft: an
// unresolvable field or unsupported operator makes the condition false
// instead of failing the calculation.
package condition

import (
	"esim-pricing/core/types"
)

// Evaluate reports whether a single condition holds for the context.
func Evaluate(cond types.Condition, pctx *types.PricingContext) bool {
	resolved, ok := pctx.Resolve(cond.Field)
	if !ok {
		return false
	}

	switch cond.Operator {
	case types.OpEquals:
		return equals(resolved, cond.Value)
	case types.OpNotEquals:
		return !equals(resolved, cond.Value)
	case types.OpGreaterThan:
		return compare(resolved, cond.Value) > 0
	case types.OpLessThan:
		return compare(resolved, cond.Value) < 0
	case types.OpBetween:
		return between(resolved, cond.Value)
	case types.OpIn:
		return in(resolved, cond.Value)
	default:
		return false
	}
}

// EvaluateAll reports whether every condition holds (AND semantics).
// An empty condition list always matches.
func EvaluateAll(conds []types.Condition, pctx *types.PricingContext) bool {
	for _, c := range conds {
		if !Evaluate(c, pctx) {
			return false
		}
	}
	return true
}

// equals compares two values of the same kind. Dates compare by
// calendar day only, ignoring time of day.
func equals(a, b types.Value) bool {
	if a.Kind == types.KindDate && b.Kind == types.KindDate {
		ay, am, ad := a.Date.Year(), a.Date.Month(), a.Date.Day()
		by, bm, bd := b.Date.Year(), b.Date.Month(), b.Date.Day()
		return ay == by && am == bm && ad == bd
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case types.KindNumber:
		return a.Number.Equal(b.Number)
	case types.KindString:
		return a.Str == b.Str
	case types.KindBool:
		return a.Bool == b.Bool
	default:
		return false
	}
}

// compare returns -1, 0, or +1 for ordered kinds. Unorderable kind
// mixes return 0, which makes both GREATER_THAN and LESS_THAN false.
func compare(a, b types.Value) int {
	if a.Kind == types.KindDate && b.Kind == types.KindDate {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		default:
			return 0
		}
	}
	if a.Kind == types.KindNumber && b.Kind == types.KindNumber {
		return a.Number.Cmp(b.Number)
	}
	return 0
}

// between checks an inclusive [start, end] range. The bounds must be a
// two-element list of matching kinds.
func between(v, bounds types.Value) bool {
	if bounds.Kind != types.KindList || len(bounds.List) != 2 {
		return false
	}
	lo, hi := bounds.List[0], bounds.List[1]
	if v.Kind == types.KindDate && lo.Kind == types.KindDate && hi.Kind == types.KindDate {
		return !v.Date.Before(lo.Date) && !v.Date.After(hi.Date)
	}
	if v.Kind == types.KindNumber && lo.Kind == types.KindNumber && hi.Kind == types.KindNumber {
		return v.Number.Cmp(lo.Number) >= 0 && v.Number.Cmp(hi.Number) <= 0
	}
	return false
}

// in checks membership of the resolved value in a list of options.
func in(v, options types.Value) bool {
	if options.Kind != types.KindList {
		return false
	}
	for _, opt := range options.List {
		if equals(v, opt) {
			return true
		}
	}
	return false
}
