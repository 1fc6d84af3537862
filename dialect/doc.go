// Package dialect provides database dialect abstraction for the toolkit.
//
// This package defines the interfaces and types used for database-specific
// operations, allowing the same composed query to target PostgreSQL, MySQL,
// SQLite or SQL Server.
//
// # Dialect Constants
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres  = "postgres"
//	dialect.MySQL     = "mysql"
//	dialect.SQLite    = "sqlite"
//	dialect.SQLServer = "sqlserver"
//
// The dialect is an injected value carried by builders and sets, not a
// process-wide registry, so one process can compile statements for several
// dialects concurrently.
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface wraps the database operations with transaction control:
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// # ExecQuerier Interface
//
// The ExecQuerier interface is implemented by both Driver and Tx:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/nexsql/nexsql/dialect"
//	    "github.com/nexsql/nexsql/dialect/sql"
//	)
//
//	db, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Sub-packages
//
//   - dialect/sql: statement builders, logical sets and the driver
//     implementation.
package dialect
