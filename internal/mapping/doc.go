// Package mapping compiles CUE entity mappings into a Registry.
//
// A mapping directory holds .cue files declaring two kinds of values:
//
//	entity: Person: {
//		name: "people"                 // storage entity name, optional
//		fields: { fullName: "name" }   // query field -> storage field
//	}
//
//	enum: Status: ["ACTIVE", "INACTIVE"]          // stored as the constant name
//	enum: Level: { LOW: 1, HIGH: 3 }              // stored as the given value
//
// The Registry renames entities and fields while queries are translated
// (translate.Observer) and resolves qualified Type.CONSTANT identifiers while
// they are parsed (jdql.EnumConverter).
package mapping
