package macro

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// state is the evaluation environment of a node list.
type state struct {
	scope *Scope
	// last is set while rendering the final emitted iteration of the
	// innermost loop; separators are suppressed there.
	last bool
}

// iteration is one pass over a loop body. When push is false the body is
// rendered in the enclosing scope.
type iteration struct {
	frame cty.Value
	push  bool
}

// Execute renders the template against root.
func (t *Template) Execute(root cty.Value) (string, error) {
	if root.IsNull() {
		root = cty.EmptyObjectVal
	}
	if ty := root.Type(); !ty.IsObjectType() && !ty.IsMapType() {
		return "", fmt.Errorf("root context must be an object or a map, got %s", ty.FriendlyName())
	}

	var sb strings.Builder
	if err := execNodes(&sb, t.nodes, state{scope: NewScope(root)}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func execNodes(w *strings.Builder, nodes []node, st state) error {
	for _, n := range nodes {
		var err error
		switch n := n.(type) {
		case textNode:
			w.WriteString(n.text)
		case substNode:
			err = execSubst(w, n, st)
		case separatorNode:
			if !st.last {
				w.WriteString(n.payload)
			}
		case loopNode:
			err = execLoop(w, n, st)
		case ifNode:
			err = execIf(w, n, st)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func execSubst(w *strings.Builder, n substNode, st state) error {
	v, ok := st.scope.Lookup(n.key)
	switch {
	case !ok && n.separator != "":
		if !st.last {
			w.WriteString(n.separator)
		}
		return nil
	case !ok:
		w.WriteString(n.raw)
		return nil
	}
	s, err := render(v, n.format)
	if err != nil {
		return errorf(n.line, "cannot substitute %s: %s", n.key, err)
	}
	w.WriteString(s)
	return nil
}

func execIf(w *strings.Builder, n ifNode, st state) error {
	ok, err := n.cond.holds(st.scope)
	if err != nil || !ok {
		return err
	}
	return execNodes(w, n.body, st)
}

// execLoop filters iterations by the loop condition first, so separators
// see the last iteration that is actually emitted.
func execLoop(w *strings.Builder, n loopNode, st state) error {
	v, ok := st.scope.Lookup(n.key)
	if !ok {
		return nil
	}
	iters, err := iterations(v)
	if err != nil {
		return errorf(n.line, "cannot generate for %s: %s", n.key, err)
	}

	scopes := make([]*Scope, 0, len(iters))
	for _, it := range iters {
		sc := st.scope
		if it.push {
			sc = sc.Push(it.frame)
		}
		if n.cond != nil {
			ok, err := n.cond.holds(sc)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		scopes = append(scopes, sc)
	}

	for i, sc := range scopes {
		if err := execNodes(w, n.body, state{scope: sc, last: i == len(scopes)-1}); err != nil {
			return err
		}
	}
	return nil
}

// iterations expands a loop value. A bool yields zero or one pass in the
// enclosing scope; a whole number N yields N frames carrying only the index
// _i; a sequence yields one frame per element holding the element's
// attributes plus _i, or the element itself as _v when it is not an object.
func iterations(v cty.Value) ([]iteration, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("value is unknown")
	}

	ty := v.Type()
	switch {
	case ty.Equals(cty.Bool):
		if v.True() {
			return []iteration{{}}, nil
		}
		return nil, nil

	case ty.Equals(cty.Number):
		bf := v.AsBigFloat()
		n, acc := bf.Int64()
		if !bf.IsInt() || acc != big.Exact || n < 0 {
			return nil, fmt.Errorf("count must be a non-negative whole number, got %s", bf.Text('g', -1))
		}
		iters := make([]iteration, n)
		for i := range iters {
			iters[i] = iteration{frame: cty.ObjectVal(map[string]cty.Value{"_i": cty.NumberIntVal(int64(i))}), push: true}
		}
		return iters, nil

	case ty.IsListType() || ty.IsSetType() || ty.IsTupleType():
		iters := make([]iteration, 0, v.LengthInt())
		i := 0
		for it := v.ElementIterator(); it.Next(); i++ {
			_, el := it.Element()
			iters = append(iters, iteration{frame: elementFrame(el, i), push: true})
		}
		return iters, nil
	}
	return nil, fmt.Errorf("cannot iterate over a value of type %s", ty.FriendlyName())
}

func elementFrame(el cty.Value, i int) cty.Value {
	attrs := make(map[string]cty.Value)
	ety := el.Type()
	if !el.IsNull() && el.IsKnown() && (ety.IsObjectType() || ety.IsMapType()) {
		for k, v := range el.AsValueMap() {
			attrs[k] = v
		}
	} else {
		attrs["_v"] = el
	}
	attrs["_i"] = cty.NumberIntVal(int64(i))
	return cty.ObjectVal(attrs)
}
