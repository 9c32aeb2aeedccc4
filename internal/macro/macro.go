package macro

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// HasMarker reports whether text opts into content expansion.
func HasMarker(text string) bool {
	return strings.Contains(text, Marker)
}

// Expand parses and renders text in one step.
func Expand(text string, root cty.Value, opts Options) (string, error) {
	t, err := Parse(text, opts)
	if err != nil {
		return "", err
	}
	return t.Execute(root)
}

// ExpandName resolves plain substitution tokens in a file or directory name
// against root. Blocks, formats and tokens whose key is missing or whose
// value cannot be rendered as text are left unchanged.
func ExpandName(name string, root cty.Value) string {
	if !strings.Contains(name, openDelim) {
		return name
	}
	scope := NewScope(root)

	var sb strings.Builder
	for _, tok := range lex(name) {
		if tok.kind != tokSubst || tok.arg != "" {
			sb.WriteString(tok.raw)
			continue
		}
		v, ok := scope.Lookup(tok.key)
		if !ok {
			sb.WriteString(tok.raw)
			continue
		}
		s, err := renderPlain(v)
		if err != nil {
			sb.WriteString(tok.raw)
			continue
		}
		sb.WriteString(s)
	}
	return sb.String()
}

const subtreePrefix = openDelim + "generate_for_"

// SubtreeKey reports whether a file name requests subtree substitution,
// i.e. starts with "<a3<generate_for_KEY>a3>", and returns KEY.
func SubtreeKey(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, subtreePrefix)
	if !ok {
		return "", false
	}
	key := identPrefix(rest)
	if key == "" || !strings.HasPrefix(rest[len(key):], closeDelim) {
		return "", false
	}
	return key, true
}
