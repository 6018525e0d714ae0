package hcl_adapter

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func TestTypeExprToCtyType(t *testing.T) {
	tests := []struct {
		src     string
		want    cty.Type
		wantErr bool
	}{
		{src: "string", want: cty.String},
		{src: "number", want: cty.Number},
		{src: "bool", want: cty.Bool},
		{src: "any", want: cty.DynamicPseudoType},
		{src: "list(number)", want: cty.List(cty.Number)},
		{src: "map(string)", want: cty.Map(cty.String)},
		{src: "set(bool)", want: cty.Set(cty.Bool)},
		{src: "object({ x = number, y = number })", want: cty.Object(map[string]cty.Type{"x": cty.Number, "y": cty.Number})},
		{src: "list(any)", wantErr: true},
		{src: "vector", wantErr: true},
		{src: "tuple(number)", wantErr: true},
		{src: `"string"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := typeExprToCtyType(context.Background(), parseExpr(t, tt.src))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equals(got), "got %s", got.FriendlyName())
		})
	}
}

func TestPortTypeFromExpr(t *testing.T) {
	tests := []struct {
		src           string
		wantType      string
		wantStructure string
		wantErr       bool
	}{
		{src: "numeric", wantType: "numeric"},
		{src: "Numeric", wantType: "numeric"},
		{src: `"string"`, wantType: "string"},
		{src: "list(numeric)", wantType: "numeric", wantStructure: "array"},
		{src: "map(string)", wantType: "string", wantStructure: "dict"},
		{src: "set(numeric)", wantErr: true},
		{src: "list(numeric, string)", wantErr: true},
		{src: "list(list(numeric))", wantErr: true},
		{src: "1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			dataType, structure, err := portTypeFromExpr(context.Background(), parseExpr(t, tt.src))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, dataType)
			assert.Equal(t, tt.wantStructure, structure)
		})
	}

	t.Run("missing", func(t *testing.T) {
		dataType, structure, err := portTypeFromExpr(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "any", dataType)
		assert.Empty(t, structure)
	})
}
