// Package macro implements the template language used inside generated
// source files.
//
// Macros are written between the delimiters "<a3<" and ">a3>" and never span
// a line break:
//
//	<a3<generate for SLOTS(id > 0)>a3>   loop over a context value
//	<a3<end generate>a3>
//	<a3<if NUM_SLOTS >= 4>a3>            conditional block
//	<a3<end if>a3>
//	<a3<KEY>a3>, <a3<KEY|%04d>a3>        substitution, optionally formatted
//	<a3<c,>a3>                           separator, omitted after the last iteration
//	<a3<artico3_preproc>a3>              opt-in marker for content expansion
//
// Inside a loop, "c" followed by a single identifier character (<a3<cx>a3>)
// is a separator only when no context key of that name resolves.
//
// Block tags may be padded with '=' characters on both sides; the padding is
// ignored. A line break directly after a block tag belongs to the tag.
//
// Text is parsed into a block tree and evaluated against a Scope, a chain of
// cty object frames searched innermost first. Loops push a frame per
// iteration carrying the implicit index "_i". Conditions are restricted to
// a single comparison of a context key against a literal.
package macro
