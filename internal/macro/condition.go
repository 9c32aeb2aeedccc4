package macro

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// legacyBools are accepted on the right-hand side of a comparison.
var legacyBools = map[string]cty.Value{
	"True":  cty.True,
	"False": cty.False,
}

// condition is a single comparison "KEY OP LITERAL".
type condition struct {
	src  string
	line int
	key  string
	op   *hclsyntax.Operation
	lit  cty.Value
}

// parseCondition parses src as an HCL expression and admits only a binary
// comparison whose left operand is a bare key and whose right operand is a
// number, bool or string literal.
func parseCondition(src string, line int) (*condition, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition", hcl.Pos{Line: line, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, errorf(line, "invalid condition %q: %s", src, diags.Error())
	}

	bin, ok := expr.(*hclsyntax.BinaryOpExpr)
	if !ok || !isComparison(bin.Op) {
		return nil, errorf(line, "condition %q must compare a key against a literal with ==, !=, <, >, <= or >=", src)
	}

	lhs, ok := bin.LHS.(*hclsyntax.ScopeTraversalExpr)
	if !ok || len(lhs.Traversal) != 1 {
		return nil, errorf(line, "condition %q: left operand must be a context key", src)
	}
	key := lhs.Traversal.RootName()
	if identPrefix(key) != key {
		return nil, errorf(line, "condition %q: %q is not a context key", src, key)
	}
	if !isLiteral(bin.RHS) {
		return nil, errorf(line, "condition %q: right operand must be a number, bool or string literal", src)
	}
	lit, diags := bin.RHS.Value(&hcl.EvalContext{Variables: legacyBools})
	if diags.HasErrors() {
		return nil, errorf(line, "condition %q: %s", src, diags.Error())
	}

	return &condition{src: src, line: line, key: key, op: bin.Op, lit: lit}, nil
}

func isComparison(op *hclsyntax.Operation) bool {
	switch op {
	case hclsyntax.OpEqual, hclsyntax.OpNotEqual,
		hclsyntax.OpLessThan, hclsyntax.OpGreaterThan,
		hclsyntax.OpLessThanOrEqual, hclsyntax.OpGreaterThanOrEqual:
		return true
	}
	return false
}

func isLiteral(expr hclsyntax.Expression) bool {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return isScalar(e.Val)
	case *hclsyntax.TemplateExpr:
		return e.IsStringLiteral()
	case *hclsyntax.UnaryOpExpr:
		lit, ok := e.Val.(*hclsyntax.LiteralValueExpr)
		return ok && e.Op == hclsyntax.OpNegate && !lit.Val.IsNull() && lit.Val.Type().Equals(cty.Number)
	case *hclsyntax.ScopeTraversalExpr:
		_, ok := legacyBools[e.Traversal.RootName()]
		return ok && len(e.Traversal) == 1
	}
	return false
}

func isScalar(v cty.Value) bool {
	if v.IsNull() {
		return false
	}
	ty := v.Type()
	return ty.Equals(cty.Number) || ty.Equals(cty.Bool) || ty.Equals(cty.String)
}

// holds evaluates the comparison against the scope. An unresolved or null
// key makes the comparison false. Values of different types are never
// equal. Two strings are ordered lexically, anything else numerically.
func (c *condition) holds(s *Scope) (bool, error) {
	v, ok := s.Lookup(c.key)
	if !ok || v.IsNull() {
		return false, nil
	}

	switch c.op {
	case hclsyntax.OpEqual:
		return v.Type().Equals(c.lit.Type()) && v.Equals(c.lit).True(), nil
	case hclsyntax.OpNotEqual:
		return !v.Type().Equals(c.lit.Type()) || v.Equals(c.lit).False(), nil
	}

	cmp, err := c.order(v)
	if err != nil {
		return false, err
	}
	switch c.op {
	case hclsyntax.OpLessThan:
		return cmp < 0, nil
	case hclsyntax.OpGreaterThan:
		return cmp > 0, nil
	case hclsyntax.OpLessThanOrEqual:
		return cmp <= 0, nil
	default:
		return cmp >= 0, nil
	}
}

// order returns -1, 0 or 1 as v sorts before, with or after the literal.
func (c *condition) order(v cty.Value) (int, error) {
	if !v.IsKnown() || !isScalar(v) {
		return 0, errorf(c.line, "condition %q: %s is not a number, bool or string", c.src, c.key)
	}
	if v.Type().Equals(cty.String) && c.lit.Type().Equals(cty.String) {
		return strings.Compare(v.AsString(), c.lit.AsString()), nil
	}

	a, errA := convert.Convert(v, cty.Number)
	b, errB := convert.Convert(c.lit, cty.Number)
	if errA != nil || errB != nil || v.Type().Equals(cty.Bool) || c.lit.Type().Equals(cty.Bool) {
		return 0, errorf(c.line, "cannot evaluate condition %q: ordering needs two numbers or two strings", c.src)
	}
	switch {
	case a.LessThan(b).True():
		return -1, nil
	case a.GreaterThan(b).True():
		return 1, nil
	}
	return 0, nil
}
