package rulefile

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

// rulePack is the YAML document shape.
type rulePack struct {
	Version string     `yaml:"version"`
	Rules   []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"`
	Description string          `yaml:"description"`
	Priority    int             `yaml:"priority"`
	Active      *bool           `yaml:"active"`
	Editable    *bool           `yaml:"editable"`
	ValidFrom   string          `yaml:"valid_from"`
	ValidUntil  string          `yaml:"valid_until"`
	Conditions  []yamlCondition `yaml:"conditions"`
	Actions     []yamlAction    `yaml:"actions"`
}

type yamlCondition struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

type yamlAction struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// LoadYAML parses a YAML rule pack.
func LoadYAML(path string) ([]types.PricingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Store("reading rule pack", err)
	}

	var pack rulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, errors.Store("parsing rule pack", err)
	}

	rules := make([]types.PricingRule, 0, len(pack.Rules))
	for _, yr := range pack.Rules {
		rule, err := yr.toRule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (yr yamlRule) toRule() (types.PricingRule, error) {
	rule := types.PricingRule{
		ID:          yr.ID,
		Name:        yr.Name,
		Type:        types.RuleType(yr.Type),
		Description: yr.Description,
		Priority:    yr.Priority,
		IsActive:    yr.Active == nil || *yr.Active,
		IsEditable:  yr.Editable == nil || *yr.Editable,
	}
	rule.IsEditable = rule.IsEditable && !rule.IsSystem()

	if yr.ValidFrom != "" {
		t, err := parseTimeAttr(yr.ValidFrom)
		if err != nil {
			return rule, errors.Newf(errors.TypeStore, "rule %q: invalid valid_from: %v", rule.Name, err)
		}
		rule.ValidFrom = &t
	}
	if yr.ValidUntil != "" {
		t, err := parseTimeAttr(yr.ValidUntil)
		if err != nil {
			return rule, errors.Newf(errors.TypeStore, "rule %q: invalid valid_until: %v", rule.Name, err)
		}
		rule.ValidUntil = &t
	}

	for _, yc := range yr.Conditions {
		value, err := types.ResolveValue(yc.Value)
		if err != nil {
			return rule, errors.Newf(errors.TypeStore, "rule %q: condition value: %v", rule.Name, err)
		}
		rule.Conditions = append(rule.Conditions, types.Condition{
			Field:    yc.Field,
			Operator: types.Operator(yc.Operator),
			Value:    value,
		})
	}

	for _, ya := range yr.Actions {
		d, err := anyToDecimal(ya.Value)
		if err != nil {
			return rule, errors.Newf(errors.TypeStore, "rule %q: action value: %v", rule.Name, err)
		}
		rule.Actions = append(rule.Actions, types.Action{
			Type:  types.ActionType(ya.Type),
			Value: d,
		})
	}

	return rule, nil
}

// anyToDecimal converts the loosely-typed YAML scalar an action value
// arrives as. Strings keep exact decimal precision.
func anyToDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(n)
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported numeric value %v (%T)", v, v)
	}
}

// parseTimeAttr accepts dates with or without a time component.
func parseTimeAttr(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
