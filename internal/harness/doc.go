// Package harness runs YAML query scenarios against a fresh engine.
//
// # Scenario Format
//
//	name: person_queries
//	description: "Selects, prepared statements and guards"
//	backend: memory            # or sqlite (in-memory database)
//	mappings: mappings         # optional CUE directory, relative to the file
//	seed:
//	  - entity: Person
//	    fields: { id: p1, name: Otavio, age: 40 }
//	steps:
//	  - query: "Person WHERE name = 'Otavio'"
//	    expect:
//	      ids: [p1]
//	  - query: "Person WHERE age > :age"
//	    params: { age: 30 }
//	    expect:
//	      count: 1
//	  - query: "Person WHERE age > :age"
//	    expect:
//	      error: PARAMETER_GUARD
//	assertions:
//	  - type: count
//	    query: "FROM Person"
//	    count: 1
//
// A step with params (or prepared: true) runs as a prepared statement; any
// other step runs in direct mode.
//
// # Assertion Types
//
//   - count: the query returns exactly count rows
//   - contains: some row of the query matches fields (subset match)
//   - absent: the query returns no rows
//
// # Deterministic Testing
//
// Every run uses a new database, sequential statement ids and a logical
// clock starting at zero, so traces are identical across runs and can be
// compared against golden files.
package harness
