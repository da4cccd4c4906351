// Package engine is the query service: it turns query text into backend
// criteria and runs them against a manager.DatabaseManager.
//
// Two modes:
//
// Direct mode (Select, Delete, Update) parses, translates and executes in one
// call. A query that references any parameter is refused with a
// PARAMETER_GUARD error before storage is touched.
//
// Prepared mode (Prepare) returns a PreparedStatement whose parameters are
// bound later:
//
//	CREATED → BOUND → EXECUTED → RESULT
//
// Bind is refused once the statement has executed. Result executes with the
// current bindings and may be called again; each call replays the criteria
// against storage, so later writes are visible.
//
// Parsed queries are cached by the providers the Engine owns; the cache lives
// as long as the Engine.
package engine
