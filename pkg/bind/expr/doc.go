// Package expr evaluates the condition expressions of @if control tags.
//
// The language is deliberately small: literals, dotted variable lookups,
// comparison, arithmetic on numbers and the boolean connectives.
//
//	or      := and (("||" | "or") and)*
//	and     := not (("&&" | "and") not)*
//	not     := ("!" | "not") not | cmp
//	cmp     := sum (("==" | "!=" | "<" | "<=" | ">" | ">=") sum)?
//	sum     := unary (("+" | "-") unary)*
//	unary   := "-" unary | primary
//	primary := number | string | "true" | "false" | "null" | path | "(" or ")"
//	path    := ident ("." ident)*
//
// Expressions never call functions and never mutate the scope. Looking up a
// variable that the scope does not define is an error.
package expr
