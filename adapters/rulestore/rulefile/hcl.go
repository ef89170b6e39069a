// Package rulefile loads pricing rules from HCL and YAML files and
// serves them through a read-only rule store.
package rulefile

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"

	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

var ruleFileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule", LabelNames: []string{"name"}},
	},
}

var ruleBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id"},
		{Name: "type", Required: true},
		{Name: "description"},
		{Name: "priority"},
		{Name: "active"},
		{Name: "editable"},
		{Name: "valid_from"},
		{Name: "valid_until"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "condition"},
		{Type: "action"},
	},
}

var conditionBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "field", Required: true},
		{Name: "operator", Required: true},
		{Name: "value", Required: true},
	},
}

var actionBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type", Required: true},
		{Name: "value", Required: true},
	},
}

// LoadHCL parses one rule file containing `rule "name" { ... }` blocks.
func LoadHCL(path string) ([]types.PricingRule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Store("reading rule file", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, errors.Store("parsing rule file", diags)
	}

	content, diags := file.Body.Content(ruleFileSchema)
	if diags.HasErrors() {
		return nil, errors.Store("decoding rule file", diags)
	}

	rules := make([]types.PricingRule, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		rule, err := decodeRuleBlock(block)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeRuleBlock(block *hcl.Block) (types.PricingRule, error) {
	rule := types.PricingRule{
		Name:       block.Labels[0],
		IsActive:   true,
		IsEditable: true,
	}

	content, diags := block.Body.Content(ruleBlockSchema)
	if diags.HasErrors() {
		return rule, errors.Store(fmt.Sprintf("decoding rule %q", rule.Name), diags)
	}

	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return rule, errors.Store(fmt.Sprintf("evaluating %s of rule %q", name, rule.Name), diags)
		}
		if err := setRuleAttr(&rule, name, val); err != nil {
			return rule, err
		}
	}

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "condition":
			cond, err := decodeConditionBlock(inner, rule.Name)
			if err != nil {
				return rule, err
			}
			rule.Conditions = append(rule.Conditions, cond)
		case "action":
			act, err := decodeActionBlock(inner, rule.Name)
			if err != nil {
				return rule, err
			}
			rule.Actions = append(rule.Actions, act)
		}
	}

	rule.IsEditable = rule.IsEditable && !rule.IsSystem()
	return rule, nil
}

func setRuleAttr(rule *types.PricingRule, name string, val cty.Value) error {
	switch name {
	case "id":
		rule.ID = val.AsString()
	case "type":
		rule.Type = types.RuleType(val.AsString())
	case "description":
		rule.Description = val.AsString()
	case "priority":
		p, _ := val.AsBigFloat().Int64()
		rule.Priority = int(p)
	case "active":
		rule.IsActive = val.True()
	case "editable":
		rule.IsEditable = val.True()
	case "valid_from":
		t, err := parseTimeAttr(val.AsString())
		if err != nil {
			return errors.Newf(errors.TypeStore, "rule %q: invalid valid_from: %v", rule.Name, err)
		}
		rule.ValidFrom = &t
	case "valid_until":
		t, err := parseTimeAttr(val.AsString())
		if err != nil {
			return errors.Newf(errors.TypeStore, "rule %q: invalid valid_until: %v", rule.Name, err)
		}
		rule.ValidUntil = &t
	}
	return nil
}

func decodeConditionBlock(block *hcl.Block, ruleName string) (types.Condition, error) {
	var cond types.Condition

	content, diags := block.Body.Content(conditionBlockSchema)
	if diags.HasErrors() {
		return cond, errors.Store(fmt.Sprintf("decoding condition of rule %q", ruleName), diags)
	}

	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return cond, errors.Store(fmt.Sprintf("evaluating condition %s of rule %q", name, ruleName), diags)
		}
		switch name {
		case "field":
			cond.Field = val.AsString()
		case "operator":
			cond.Operator = types.Operator(val.AsString())
		case "value":
			resolved, err := ctyToValue(val)
			if err != nil {
				return cond, errors.Newf(errors.TypeStore, "rule %q: %v", ruleName, err)
			}
			cond.Value = resolved
		}
	}
	return cond, nil
}

func decodeActionBlock(block *hcl.Block, ruleName string) (types.Action, error) {
	var act types.Action

	content, diags := block.Body.Content(actionBlockSchema)
	if diags.HasErrors() {
		return act, errors.Store(fmt.Sprintf("decoding action of rule %q", ruleName), diags)
	}

	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return act, errors.Store(fmt.Sprintf("evaluating action %s of rule %q", name, ruleName), diags)
		}
		switch name {
		case "type":
			act.Type = types.ActionType(val.AsString())
		case "value":
			d, err := ctyToDecimal(val)
			if err != nil {
				return act, errors.Newf(errors.TypeStore, "rule %q: action value: %v", ruleName, err)
			}
			act.Value = d
		}
	}
	return act, nil
}

// ctyToValue converts an evaluated HCL literal into a tagged condition
// value. Date sniffing for strings happens here, at load time.
func ctyToValue(val cty.Value) (types.Value, error) {
	if val.IsNull() {
		return types.Value{}, fmt.Errorf("condition value is null")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return types.StringValue(val.AsString()), nil
	case ty == cty.Number:
		d, err := decimal.NewFromString(val.AsBigFloat().Text('f', -1))
		if err != nil {
			return types.Value{}, fmt.Errorf("invalid numeric condition value: %w", err)
		}
		return types.NumberValue(d), nil
	case ty == cty.Bool:
		return types.BoolValue(val.True()), nil
	case ty.IsTupleType() || ty.IsListType():
		var elems []types.Value
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			converted, err := ctyToValue(ev)
			if err != nil {
				return types.Value{}, err
			}
			elems = append(elems, converted)
		}
		if len(elems) == 0 {
			return types.Value{}, fmt.Errorf("list condition value is empty")
		}
		return types.ListValue(elems...), nil
	default:
		return types.Value{}, fmt.Errorf("unsupported condition value type %s", ty.FriendlyName())
	}
}

func ctyToDecimal(val cty.Value) (decimal.Decimal, error) {
	if val.IsNull() || val.Type() != cty.Number {
		return decimal.Decimal{}, fmt.Errorf("expected a number")
	}
	return decimal.NewFromString(val.AsBigFloat().Text('f', -1))
}
