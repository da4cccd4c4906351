// Package translate turns parsed queries into criteria.
//
// Names pass through an Observer, operators and builtin functions are looked
// up in tables owned by the Translator, and parameters either trip the
// parameter guard (direct mode) or are collected into a criteria.Params
// table (prepared mode).
package translate
