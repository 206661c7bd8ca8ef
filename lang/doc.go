// Package lang implements the strudel template language.
//
// Source text mixes literal output with @-prefixed expressions and blocks.
// [Compile] parses source into a [Program]; [Program.Render] evaluates it
// against a data context (maps, sequences and scalars, as decoded from JSON
// or YAML) and returns the output with context-derived values HTML-escaped.
//
// # Grammar
//
// Informal PEG, ordered choice with backtracking:
//
//	start        → template*
//	template     → literal | block
//	literal      → [^@]+
//	block        → "@@"
//	             | "@(" expression ")"
//	             | "@((" expression "))"
//	             | "@" name "(" expression ")" start "@end"
//	             | "@" name "(" expression ")" start "@else" start "@end"
//	expression   → attributes
//	             | (name " ")? path (" " attributes)?
//	path         → name ("." name | "[" index "]")*
//	name         → [a-zA-Z] [a-zA-Z0-9_]*
//	index        → [0-9]+
//	attributes   → keyValuePair (" " keyValuePair)*
//	keyValuePair → name " "? "=" " "? value
//	value        → quotedString | number | path
//
// # Example
//
//	<h1>@(title)</h1>
//	@each(people)
//	  <li>@(name) (@(age))</li>
//	@else
//	  <li>nobody</li>
//	@end
//	@if(footer)@((footer.html))@end
//	@(expr cart code="sum(map(items, .price))")
//
// A marker is written literally as "@@". The double-paren form emits its value
// without escaping.
//
// # Helpers
//
// Named blocks and helper expressions dispatch to a [Helper] in a [Registry].
// [NewRegistry] pre-registers with, each, if, unless, log, expr,
// helperMissing and blockHelperMissing.
//
// # Serialization
//
// [Write] converts a node to a plain tree of maps and slices tagged by a
// "type" field; [LoadNode] and [Load] reconstruct it. The tree is what the
// compile [Cache] persists, and what the CLI compile and load commands read
// and write.
package lang
