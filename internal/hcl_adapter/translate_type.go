// Data type declarations use HCL type constraints (`number`,
// `list(string)`, `object({...})`). Ports use data type keywords
// (`numeric`, `list(numeric)`).

package hcl_adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/nodegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts a data type declaration into a cty.Type. A
// missing expression means any. Collections of any are rejected since their
// values could not be coerced.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)
	if expr == nil {
		logger.Debug("Type expression is nil, defaulting to any.")
		return cty.DynamicPseudoType, nil
	}

	ty, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.DynamicPseudoType, diags
	}
	if ty != cty.DynamicPseudoType && ty.HasDynamicTypes() {
		return cty.DynamicPseudoType, fmt.Errorf("type %s cannot contain type 'any'", ty.FriendlyName())
	}
	logger.Debug("Parsed data type expression.", "type", ty.FriendlyName())
	return ty, nil
}

// portTypeFromExpr reads a port's data type keyword. list(T) and map(T)
// wrap T in an Array or Dict structure. A missing type means "any".
func portTypeFromExpr(ctx context.Context, expr hcl.Expression) (dataType, structure string, err error) {
	if !isExprDefined(ctx, expr, "type") {
		return "any", "", nil
	}
	if keyword := hcl.ExprAsKeyword(expr); keyword != "" {
		return strings.ToLower(keyword), "", nil
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		var structure string
		switch v.Name {
		case "list":
			structure = "array"
		case "map":
			structure = "dict"
		default:
			return "", "", fmt.Errorf("unknown port type constructor %q, expected list() or map()", v.Name)
		}
		if len(v.Args) != 1 {
			return "", "", fmt.Errorf("the %s() port type constructor requires exactly one argument, got %d", v.Name, len(v.Args))
		}
		inner := hcl.ExprAsKeyword(v.Args[0])
		if inner == "" {
			return "", "", fmt.Errorf("the argument to %s() must be a data type keyword", v.Name)
		}
		return strings.ToLower(inner), structure, nil
	default:
		// Quoted names are accepted too.
		val, diags := expr.Value(nil)
		if diags.HasErrors() || val.IsNull() || !val.Type().Equals(cty.String) {
			return "", "", fmt.Errorf("unsupported expression for port type: %T", expr)
		}
		return strings.ToLower(val.AsString()), "", nil
	}
}
