// Package nexsql is a database-access toolkit for building SQL statements
// programmatically and executing them through a low-level driver interface.
//
// The toolkit is organized the way its sub-packages are used:
//
//   - dialect: dialect names and the Driver/Tx execution interfaces.
//   - dialect/sql: statement builders, logical sets with deferred filter,
//     sort and pagination composition, dialect-aware compilation, and a
//     database/sql-backed driver.
//
// This root package carries the pieces shared by all of them: the error
// taxonomy and the cache collaborator interface.
package nexsql
