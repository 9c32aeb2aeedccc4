package macro

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 8

// Options tune parsing.
type Options struct {
	// MaxDepth bounds the nesting of loop and conditional blocks.
	MaxDepth int
}

func (o Options) maxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

type node interface {
	isNode()
}

type textNode struct {
	text string
}

type substNode struct {
	key    string
	format string
	raw    string
	line   int
	// separator is the payload of a "c<x>" tag inside a loop whose key
	// turned out to be unresolved.
	separator string
}

type separatorNode struct {
	payload string
}

type loopNode struct {
	key  string
	cond *condition
	body []node
	line int
}

type ifNode struct {
	cond *condition
	body []node
	line int
}

func (textNode) isNode()      {}
func (substNode) isNode()     {}
func (separatorNode) isNode() {}
func (loopNode) isNode()      {}
func (ifNode) isNode()        {}

// Template is a parsed block tree, safe for concurrent use.
type Template struct {
	nodes []node
}

// Parse builds the block tree of src.
func Parse(src string, opts Options) (*Template, error) {
	p := &parser{toks: lex(src), maxDepth: opts.maxDepth()}
	nodes, err := p.parseBlock(nil, 0, false)
	if err != nil {
		return nil, err
	}
	return &Template{nodes: nodes}, nil
}

type parser struct {
	toks     []token
	pos      int
	maxDepth int
}

// parseBlock reads nodes until the tag closing open, or until the end of
// input when open is nil.
func (p *parser) parseBlock(open *token, depth int, inLoop bool) ([]node, error) {
	var nodes []node

	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		p.pos++

		switch tok.kind {
		case tokText:
			nodes = append(nodes, textNode{text: tok.raw})

		case tokMarker:
			// Dropped from the output.

		case tokSubst:
			n := substNode{key: tok.key, format: tok.arg, raw: tok.raw, line: tok.line}
			if inLoop && tok.arg == "" && len(tok.key) == 2 && tok.key[0] == 'c' {
				n.separator = tok.key[1:]
			}
			nodes = append(nodes, n)

		case tokSeparator:
			if !inLoop {
				return nil, errorf(tok.line, "separator %q outside of a generate block", tok.raw)
			}
			nodes = append(nodes, separatorNode{payload: tok.arg})

		case tokInvalid:
			return nil, errorf(tok.line, "%s: %s", tok.arg, tok.raw)

		case tokLoopOpen, tokIfOpen:
			if depth+1 > p.maxDepth {
				return nil, errorf(tok.line, "blocks nested deeper than %d levels", p.maxDepth)
			}
			var cond *condition
			if tok.arg != "" {
				c, err := parseCondition(tok.arg, tok.line)
				if err != nil {
					return nil, err
				}
				cond = c
			}
			isLoop := tok.kind == tokLoopOpen
			body, err := p.parseBlock(&tok, depth+1, inLoop || isLoop)
			if err != nil {
				return nil, err
			}
			if isLoop {
				nodes = append(nodes, loopNode{key: tok.key, cond: cond, body: body, line: tok.line})
			} else {
				nodes = append(nodes, ifNode{cond: cond, body: body, line: tok.line})
			}

		case tokLoopClose, tokIfClose:
			if open == nil {
				return nil, errorf(tok.line, "%s without a matching opening tag", tok.raw)
			}
			if (open.kind == tokLoopOpen) != (tok.kind == tokLoopClose) {
				return nil, errorf(tok.line, "%s closes the block opened at line %d by %s", tok.raw, open.line, open.raw)
			}
			return nodes, nil
		}
	}

	if open != nil {
		return nil, errorf(open.line, "unterminated block %s", open.raw)
	}
	return nodes, nil
}
