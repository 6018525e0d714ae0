package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder often populates optional fields with non-nil, zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		logger.Debug("Expression is nil, considering it undefined.", "attribute", attrName)
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// evalContext is the context layout and manifest values are evaluated in.
// It has no variables, only a handful of pure functions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"abs":        stdlib.AbsoluteFunc,
			"ceil":       stdlib.CeilFunc,
			"concat":     stdlib.ConcatFunc,
			"floor":      stdlib.FloorFunc,
			"format":     stdlib.FormatFunc,
			"join":       stdlib.JoinFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
			"lower":      stdlib.LowerFunc,
			"max":        stdlib.MaxFunc,
			"min":        stdlib.MinFunc,
			"upper":      stdlib.UpperFunc,
		},
	}
}

// exprValue evaluates an optional expression. ok is false when the
// attribute was left out.
func exprValue(ctx context.Context, expr hcl.Expression, attrName string) (val cty.Value, ok bool, err error) {
	if !isExprDefined(ctx, expr, attrName) {
		return cty.NilVal, false, nil
	}
	val, diags := expr.Value(evalContext())
	if diags.HasErrors() {
		return cty.NilVal, false, fmt.Errorf("invalid %s: %w", attrName, diags)
	}
	return val, true, nil
}

// valueMap evaluates an optional object or map expression into its
// attributes.
func valueMap(ctx context.Context, expr hcl.Expression, attrName string) (map[string]cty.Value, error) {
	val, ok, err := exprValue(ctx, expr, attrName)
	if err != nil || !ok || val.IsNull() {
		return nil, err
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("%s must be an object, got %s", attrName, ty.FriendlyName())
	}
	if val.LengthInt() == 0 {
		return map[string]cty.Value{}, nil
	}
	return val.AsValueMap(), nil
}

// position evaluates an optional `[x, y]` expression.
func position(ctx context.Context, expr hcl.Expression) (x, y float64, err error) {
	val, ok, err := exprValue(ctx, expr, "position")
	if err != nil || !ok {
		return 0, 0, err
	}
	pair, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil || pair.IsNull() || pair.LengthInt() != 2 {
		return 0, 0, fmt.Errorf("position must be a list of two numbers")
	}
	elems := pair.AsValueSlice()
	x, _ = elems[0].AsBigFloat().Float64()
	y, _ = elems[1].AsBigFloat().Float64()
	return x, y, nil
}
