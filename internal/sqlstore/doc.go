// Package sqlstore provides a SQLite-backed manager.DatabaseManager.
//
// Every entity is one row of the documents table: (entity, id, body), where
// body is the entity's fields as a JSON object. Criteria are compiled to SQL
// over json_extract(body, '$.path').
//
// # Critical Patterns
//
// Deterministic Query Results
//   - Every select ends with ORDER BY ..., id ASC COLLATE BINARY
//   - Ties between declared sorts never depend on physical row order
//
// Parameterized SQL
//   - Values and JSON paths are always bound as ? parameters
//   - Only operators and function names are written into the SQL text
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - PRAGMA user_version tracks schema migrations
package sqlstore
