package macro

import "github.com/zclconf/go-cty/cty"

// Scope is an immutable chain of context frames. Push returns a new chain
// and leaves the receiver untouched, so a Scope may be shared between
// goroutines.
type Scope struct {
	frame  cty.Value
	parent *Scope
}

// NewScope returns a chain holding only root, which should be an object or
// a map of strings to values.
func NewScope(root cty.Value) *Scope {
	return &Scope{frame: root}
}

// Push returns a chain with frame as its innermost element.
func (s *Scope) Push(frame cty.Value) *Scope {
	return &Scope{frame: frame, parent: s}
}

// Lookup walks the chain innermost first and returns the value bound to key
// by the first frame defining it.
func (s *Scope) Lookup(key string) (cty.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := frameAttr(sc.frame, key); ok {
			return v, true
		}
	}
	return cty.NilVal, false
}

func frameAttr(frame cty.Value, key string) (cty.Value, bool) {
	if frame.IsNull() || !frame.IsKnown() {
		return cty.NilVal, false
	}
	ty := frame.Type()
	switch {
	case ty.IsObjectType():
		if ty.HasAttribute(key) {
			return frame.GetAttr(key), true
		}
	case ty.IsMapType():
		k := cty.StringVal(key)
		if frame.HasIndex(k).True() {
			return frame.Index(k), true
		}
	}
	return cty.NilVal, false
}
