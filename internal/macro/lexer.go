package macro

import (
	"strings"
)

const (
	openDelim  = "<a3<"
	closeDelim = ">a3>"
)

// Marker opts a file into content expansion. It is removed from the output
// together with the line break that follows it.
const Marker = openDelim + "artico3_preproc" + closeDelim

type tokenKind int

const (
	tokText tokenKind = iota
	tokSubst
	tokSeparator
	tokMarker
	tokLoopOpen
	tokLoopClose
	tokIfOpen
	tokIfClose
	tokInvalid
)

// block reports whether the tag opens or closes a block.
func (k tokenKind) block() bool {
	return k == tokLoopOpen || k == tokLoopClose || k == tokIfOpen || k == tokIfClose
}

type token struct {
	kind tokenKind
	line int
	// raw is the source text of the token, delimiters included.
	raw string
	// key is the context key of a loop or substitution.
	key string
	// arg is the condition of a loop or if, the format of a substitution
	// or the payload of a separator. For tokInvalid it is the reason.
	arg string
}

// lex splits src into text runs and tags. A delimiter pair that is not
// closed on the same line, or whose content is not a known tag form, is
// kept as text.
func lex(src string) []token {
	var (
		toks    []token
		text    strings.Builder
		line    = 1
		textPos = 0
		i       = 0
	)

	flush := func() {
		if text.Len() > 0 {
			toks = append(toks, token{kind: tokText, raw: text.String(), line: line})
			text.Reset()
		}
	}
	advance := func(to int) {
		line += strings.Count(src[textPos:to], "\n")
		textPos = to
	}

	for i < len(src) {
		j := strings.Index(src[i:], openDelim)
		if j < 0 {
			text.WriteString(src[i:])
			break
		}
		text.WriteString(src[i : i+j])
		i += j

		start := i + len(openDelim)
		k := strings.Index(src[start:], closeDelim)
		if k < 0 {
			text.WriteString(src[i:])
			break
		}
		inner := src[start : start+k]
		if strings.ContainsRune(inner, '\n') || strings.Contains(inner, openDelim) {
			text.WriteString(openDelim)
			i = start
			continue
		}

		end := start + k + len(closeDelim)
		tok := classify(inner)
		if tok.kind == tokText {
			text.WriteString(src[i:end])
			i = end
			continue
		}

		flush()
		advance(i)
		tok.line = line
		tok.raw = src[i:end]
		i = end
		if (tok.kind.block() || tok.kind == tokMarker) && i < len(src) && src[i] == '\n' {
			i++
		}
		toks = append(toks, tok)
	}

	advance(len(src))
	flush()
	return toks
}

// classify recognizes the tag form of the text between the delimiters.
func classify(inner string) token {
	body := strings.Trim(inner, "=")
	switch {
	case body == "end generate":
		return token{kind: tokLoopClose}
	case body == "end if":
		return token{kind: tokIfClose}
	case strings.HasPrefix(body, "generate for "):
		return classifyLoop(strings.TrimSpace(strings.TrimPrefix(body, "generate for ")))
	case strings.HasPrefix(body, "if "):
		cond := strings.TrimSpace(strings.TrimPrefix(body, "if "))
		if cond == "" {
			return token{kind: tokInvalid, arg: "if without a condition"}
		}
		return token{kind: tokIfOpen, arg: cond}
	}

	if inner == "artico3_preproc" {
		return token{kind: tokMarker}
	}
	if r := []rune(inner); len(r) == 2 && r[0] == 'c' && !isIdentRune(r[1]) {
		return token{kind: tokSeparator, arg: string(r[1])}
	}
	if key, format, ok := splitSubst(inner); ok {
		return token{kind: tokSubst, key: key, arg: format}
	}
	return token{kind: tokText}
}

func classifyLoop(rest string) token {
	key := identPrefix(rest)
	if key == "" {
		return token{kind: tokInvalid, arg: "generate without a key"}
	}
	rest = rest[len(key):]
	switch {
	case rest == "":
		return token{kind: tokLoopOpen, key: key}
	case strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")"):
		cond := strings.TrimSpace(rest[1 : len(rest)-1])
		if cond == "" {
			return token{kind: tokInvalid, arg: "empty loop condition"}
		}
		return token{kind: tokLoopOpen, key: key, arg: cond}
	default:
		return token{kind: tokInvalid, arg: "malformed generate tag"}
	}
}

// splitSubst splits "KEY" or "KEY|FORMAT".
func splitSubst(s string) (key, format string, ok bool) {
	key = identPrefix(s)
	if key == "" {
		return "", "", false
	}
	rest := s[len(key):]
	switch {
	case rest == "":
		return key, "", true
	case rest[0] == '|':
		return key, rest[1:], true
	}
	return "", "", false
}

func identPrefix(s string) string {
	n := 0
	for n < len(s) && isIdentRune(rune(s[n])) {
		n++
	}
	return s[:n]
}

func isIdentRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}
