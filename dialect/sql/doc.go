// Package sql provides SQL statement building primitives with deferred
// composition and dialect-aware compilation.
//
// The package is built around three types:
//
//   - Builder: a low-level, clause-aware accumulator of statement text and
//     bound parameters.
//   - Set: a logical set of rows (a table or a previously compiled query)
//     exposing relational operations that compose lazily.
//   - Driver: a database/sql-backed implementation of dialect.Driver used
//     to execute the rendered statements.
//
// # Builders
//
// A Builder collects text fragments and parameter values. Placeholders are
// positional: {N} in the accumulated text refers to the N-th bound value.
// Appending another builder renumbers its placeholders, so statements
// compose in any order without collisions:
//
//	b := sql.Dialect(dialect.Postgres).Builder()
//	b.Append("SELECT * FROM orders")
//	b.AppendClause("WHERE", " AND ", "status = {0}", "open")
//	b.AppendClause("WHERE", " AND ", "total > {0}", 100)
//	query, args := b.Query()
//	// SELECT * FROM orders
//	// WHERE status = $1 AND total > $2
//
// # Sets
//
// A Set buffers filter, sort, skip and take operations and folds them into
// one statement when compiled. An operation that does not commute with the
// buffered ones wraps the current statement in a subquery instead:
//
//	products := sql.Dialect(dialect.MySQL).Table("products")
//	page := products.
//	    Where("price > {0}", 10).
//	    OrderBy("name").
//	    Take(5)
//	query, args := page.Query()
//	// SELECT * FROM products
//	// WHERE price > ?
//	// ORDER BY name
//	// LIMIT ?
//
// The same chain compiled for SQL Server emits TOP or OFFSET/FETCH
// pagination with identical result semantics.
//
// # Execution
//
// Compiled statements execute through dialect.ExecQuerier. The terminal
// helpers All, Count and Exists hand the rendered command to a driver and
// leave row materialization to the caller:
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	rows, err := page.All(ctx, drv)
//
// # Observability
//
// NewStatsDriver wraps a Driver with query counters and slow-query
// detection; dialect.Debug wraps one with statement logging.
package sql
