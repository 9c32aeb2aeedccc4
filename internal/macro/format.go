package macro

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// render converts a context value to text. Without a format, strings are
// emitted as-is, whole numbers as integers, bools as true or false and
// sequences as their rendered elements joined by single spaces. A format is
// a printf-style verb string; sequence elements become positional arguments.
func render(v cty.Value, format string) (string, error) {
	if format != "" {
		return renderFormat(v, format)
	}
	return renderPlain(v)
}

func renderPlain(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsKnown() {
		return "", fmt.Errorf("value is unknown")
	}

	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString(), nil
	case ty.Equals(cty.Bool):
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		if bf.IsInt() {
			return bf.Text('f', 0), nil
		}
		return bf.Text('g', -1), nil
	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		parts := make([]string, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			s, err := renderPlain(el)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), nil
	}
	return "", fmt.Errorf("cannot render a value of type %s as text", ty.FriendlyName())
}

func renderFormat(v cty.Value, format string) (string, error) {
	var args []cty.Value
	ty := v.Type()
	if !v.IsNull() && (ty.IsListType() || ty.IsSetType() || ty.IsTupleType()) {
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			args = append(args, el)
		}
	} else {
		args = []cty.Value{v}
	}

	out, err := stdlib.Format(cty.StringVal(format), args...)
	if err != nil {
		return "", fmt.Errorf("format %q: %w", format, err)
	}
	return out.AsString(), nil
}
