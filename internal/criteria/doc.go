// Package criteria is the backend-neutral form of a query after name
// resolution.
//
// The translator produces a Select, Delete or Update whose condition tree
// uses real field names and carries either Literal operands or Param
// back-references into a Params table:
//
//	[jdql AST] → [translate] → [criteria + Params] → [DatabaseManager]
//
// SEALED INTERFACES:
//
// Condition and Operand use the marker method pattern. Only types in this
// package implement them, so backends can type switch exhaustively.
//
// PARAMS:
//
// A Params table is created per prepared statement. Names are registered in
// first-reference order during translation, values are bound afterwards, and
// Resolve substitutes them into a copy of the tree. The original tree is never
// modified, so one translated statement can be bound and executed repeatedly.
//
// RENDERING:
//
// Every type has a String form close to the query text, e.g.
//
//	name = "Otavio"
//	(age >= 18 AND NOT (status = "banned"))
//	SELECT * FROM Person WHERE year > 2000 ORDER BY name ASC LIMIT 10
package criteria
