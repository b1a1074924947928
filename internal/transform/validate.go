package transform

import (
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/executor"
)

// ValidateFilterConfig checks a raw filter configuration without
// touching any dataset. Used by the filter executor and by
// configuration UIs ahead of execution.
func ValidateFilterConfig(raw map[string]any) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	if op, ok := asString(anyKey(raw, "logicalOperator", "logical_operator")); ok && op != "" {
		if lo := strings.ToLower(op); lo != "and" && lo != "or" {
			vr.AddError("logicalOperator", fmt.Sprintf("Logical operator must be 'and' or 'or', got %q", op), executor.CodeInvalidOperator)
		}
	}

	if rawConds, multi := raw["conditions"]; multi {
		conds, _ := rawConds.([]any)
		if len(conds) == 0 {
			vr.AddError("conditions", "At least one condition is required", executor.CodeEmptyConditions)
			return vr
		}
		for i, item := range conds {
			m, ok := item.(map[string]any)
			if !ok {
				vr.AddError(fmt.Sprintf("conditions[%d]", i), "Condition must be an object", executor.CodeInvalidType)
				continue
			}
			validateCondition(vr, fmt.Sprintf("conditions[%d]", i), m)
		}
		return vr
	}

	// Legacy single-condition shape.
	validateCondition(vr, "", raw)
	return vr
}

func validateCondition(vr *executor.ValidationResult, prefix string, m map[string]any) {
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	col, _ := asString(m["column"])
	if col == "" {
		vr.AddError(field("column"), "Column is required", executor.CodeRequiredField)
	}

	op, _ := asString(m["operator"])
	op = strings.ToLower(op)
	switch {
	case op == "":
		vr.AddError(field("operator"), "Operator is required", executor.CodeRequiredField)
	case !IsOperatorValid(op):
		vr.AddError(field("operator"), fmt.Sprintf("Unknown operator %q", op), executor.CodeInvalidOperator)
	case NeedsValue(op) && valueMissing(m["value"]):
		vr.AddError(field("value"), fmt.Sprintf("Operator %q requires a value", op), executor.CodeRequiredField)
	}

	if t, _ := asString(m["type"]); t != "" && !IsConditionTypeValid(t) {
		vr.AddError(field("type"), fmt.Sprintf("Unknown condition type %q", t), executor.CodeInvalidType)
	}
}

// valueMissing treats absent, nil, and empty-string values as missing.
// Zero and false are legitimate comparison values.
func valueMissing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// ValidateSortConfig checks a raw sort configuration. Entries without a
// column are dropped at parse time, so validation fails only when
// nothing survives.
func ValidateSortConfig(raw map[string]any) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	keys := ParseSortConfig(raw)
	if len(keys) == 0 {
		vr.AddError("sortConfigs", "At least one sort column is required", executor.CodeRequiredField)
		return vr
	}
	for i, k := range keys {
		d := strings.ToLower(k.Direction)
		if d != DirectionAsc && d != DirectionDesc {
			vr.AddWarning(fmt.Sprintf("sortConfigs[%d].direction", i), fmt.Sprintf("Unknown direction %q, sorting ascending", k.Direction))
		}
	}
	return vr
}

// ValidateGroupConfig checks a raw group configuration: at least one
// group-by column, and every aggregation names a column and a known
// function.
func ValidateGroupConfig(raw map[string]any) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	cfg := ParseGroupConfig(raw)
	if len(cfg.Columns) == 0 {
		vr.AddError("columns", "At least one group-by column is required", executor.CodeRequiredField)
	}
	for i, agg := range cfg.Aggregations {
		if agg.Column == "" {
			vr.AddError(fmt.Sprintf("aggregations[%d].column", i), "Aggregation column is required", executor.CodeRequiredField)
		}
		switch {
		case agg.Function == "":
			vr.AddError(fmt.Sprintf("aggregations[%d].function", i), "Aggregation function is required", executor.CodeRequiredField)
		case !IsAggFunctionValid(agg.Function):
			vr.AddError(fmt.Sprintf("aggregations[%d].function", i), fmt.Sprintf("Unknown aggregation function %q", agg.Function), executor.CodeInvalidFunction)
		}
	}
	return vr
}
