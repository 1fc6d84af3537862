package sql

import (
	"context"
	"strconv"
	"strings"

	"github.com/nexsql/nexsql"
	"github.com/nexsql/nexsql/dialect"
)

// Fragment is an immutable (format, args) pair representing an unrendered
// filter or sort expression. Fragments are composed cheaply and rendered
// into a Builder only when the owning Set compiles, so nested builders and
// sets among the args are flattened into the final parameter list at that
// point and not earlier.
type Fragment struct {
	format string
	args   []any
}

// Exprf returns a fragment for the given format and args.
func Exprf(format string, args ...any) *Fragment {
	return &Fragment{format: format, args: args}
}

// Format returns the fragment's format text.
func (f *Fragment) Format() string { return f.format }

// Args returns a copy of the fragment's arguments.
func (f *Fragment) Args() []any { return append([]any(nil), f.args...) }

// join returns a new fragment combining f and g with the given separator.
// g's {N} references are reindexed past f's arguments.
func (f *Fragment) join(sep string, g *Fragment) *Fragment {
	args := make([]any, 0, len(f.args)+len(g.args))
	args = append(args, f.args...)
	args = append(args, g.args...)
	return &Fragment{
		format: f.format + sep + shiftPlaceholders(g.format, len(f.args)),
		args:   args,
	}
}

// pending is the buffer of deferred relational operations attached to a Set:
// at most one filter fragment, one sort fragment and optional skip/take
// counts. It is consumed, never carried forward, whenever the Set wraps.
type pending struct {
	where *Fragment
	order *Fragment
	skip  *int
	take  *int
}

func (p pending) empty() bool {
	return p.where == nil && p.order == nil && p.skip == nil && p.take == nil
}

// TableView describes pre-resolved entity metadata: a table name and its
// column list. Metadata resolution itself belongs to the caller.
type TableView interface {
	TableName() string
	Columns() []string
}

// DialectBuilder anchors builders and sets to a dialect and an optional
// identifier-quoting function.
type DialectBuilder struct {
	dialect string
	quote   func(string) string
}

// Dialect returns a DialectBuilder for the given dialect name. Identifiers
// are rendered as-is unless a quoting function is installed with Quote.
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name, quote: func(s string) string { return s }}
}

// Quote installs the identifier-quoting function used when rendering
// table-anchored defining queries.
func (d *DialectBuilder) Quote(fn func(string) string) *DialectBuilder {
	d.quote = fn
	return d
}

// Builder returns an empty statement builder for the dialect.
func (d *DialectBuilder) Builder() *Builder {
	return &Builder{dialect: d.dialect, quote: d.quote}
}

// Table returns a Set anchored to the given table with an optional default
// projection. An empty projection selects all columns.
func (d *DialectBuilder) Table(name string, columns ...string) *Set {
	s := &Set{dialect: d.dialect, quote: d.quote, table: name, columns: columns}
	if name == "" {
		s.err = &nexsql.UsageError{Op: "sql.Table", Reason: "empty table name"}
	}
	return s
}

// Entity returns a Set anchored to pre-resolved entity metadata.
func (d *DialectBuilder) Entity(tv TableView) *Set {
	if tv == nil {
		return &Set{dialect: d.dialect, quote: d.quote, err: &nexsql.UsageError{Op: "sql.Entity", Reason: "nil table view"}}
	}
	return d.Table(tv.TableName(), tv.Columns()...)
}

// Queryf returns a Set whose defining query is the rendered format and args.
// Buffered operations applied to such a Set always fold through a super
// query, since an arbitrary statement cannot be extended in place.
func (d *DialectBuilder) Queryf(format string, args ...any) *Set {
	def := d.Builder().Append(format, args...)
	return &Set{
		dialect: d.dialect,
		quote:   d.quote,
		def:     def,
		alias:   "t0",
		depth:   1,
	}
}

// Set represents a logical set of rows: a table or a previously compiled
// defining query, plus a buffer of deferred operations. Sets are immutable;
// every relational operation returns a new Set, so a Set may be shared and
// compiled concurrently. Compilation folds the buffer into a single
// dialect-correct statement, wrapping the defining query in a super query
// only when the new operation does not commute with the buffered ones.
type Set struct {
	dialect string
	quote   func(string) string

	// Anchor: either a table with a default projection, or a defining query.
	table   string
	columns []string
	def     *Builder
	alias   string // subquery alias when def is rendered inside a super query
	custom  bool   // projection was set explicitly on a defining query

	buf   pending
	depth int // monotonic nesting counter for unique aliases
	err   error
}

// clone returns a shallow copy. Buffer fragments are immutable, so sharing
// them between copies is safe.
func (s *Set) clone() *Set {
	c := *s
	return &c
}

// wrap compiles the Set, buffer included, into a Builder that becomes the
// defining query of a fresh Set with an empty buffer and a new alias.
func (s *Set) wrap() *Set {
	def, err := s.compile()
	n := &Set{
		dialect: s.dialect,
		quote:   s.quote,
		def:     def,
		alias:   "t" + strconv.Itoa(s.depth),
		depth:   s.depth + 1,
		err:     s.err,
	}
	if n.err == nil {
		n.err = err
	}
	return n
}

// Where returns a Set filtered by the given expression. The filter folds
// into the buffer when it can only see unfiltered state: a buffered sort,
// skip or take means the filter must apply to the already paged rows, so
// the Set wraps first. Successive folded filters are AND-joined.
func (s *Set) Where(format string, args ...any) *Set {
	if format == "" {
		n := s.clone()
		n.err = &nexsql.UsageError{Op: "sql.Where", Reason: "empty format"}
		return n
	}
	t := s
	if s.buf.order != nil || s.buf.skip != nil || s.buf.take != nil {
		t = s.wrap()
	}
	n := t.clone()
	f := Exprf(format, args...)
	if n.buf.where != nil {
		f = n.buf.where.join(" AND ", f)
	}
	n.buf.where = f
	return n
}

// OrderBy returns a Set sorted by the given expression. A buffered skip or
// take forces a wrap; a buffered filter may coexist with a new sort, since
// filters do not interact positionally with ordering. Successive folded
// sorts are comma-joined.
func (s *Set) OrderBy(format string, args ...any) *Set {
	if format == "" {
		n := s.clone()
		n.err = &nexsql.UsageError{Op: "sql.OrderBy", Reason: "empty format"}
		return n
	}
	t := s
	if s.buf.skip != nil || s.buf.take != nil {
		t = s.wrap()
	}
	n := t.clone()
	f := Exprf(format, args...)
	if n.buf.order != nil {
		f = n.buf.order.join(", ", f)
	}
	n.buf.order = f
	return n
}

// Skip returns a Set without the first n rows. Skip does not commute with a
// buffered skip or take (skipping after taking selects different rows than
// a merged offset), so either forces a wrap.
func (s *Set) Skip(n int) *Set {
	t := s
	if s.buf.skip != nil || s.buf.take != nil {
		t = s.wrap()
	}
	c := t.clone()
	c.buf.skip = &n
	return c
}

// Take returns a Set with at most n rows. Take after skip folds, because
// OFFSET-then-LIMIT has exactly skip-then-take semantics; only a buffered
// take forces a wrap.
func (s *Set) Take(n int) *Set {
	t := s
	if s.buf.take != nil {
		t = s.wrap()
	}
	c := t.clone()
	c.buf.take = &n
	return c
}

// Select returns a Set with a new projection. The current Set is always
// compiled into a defining query first: projection changes apply to the
// fully resolved row set, never to buffered filters or sorts.
func (s *Set) Select(columns ...string) *Set {
	if len(columns) == 0 {
		n := s.clone()
		n.err = &nexsql.UsageError{Op: "sql.Select", Reason: "empty projection"}
		return n
	}
	n := s.wrap()
	n.columns = columns
	n.custom = true
	return n
}

// Err returns the first error recorded on the Set or detected during
// compilation, or nil.
func (s *Set) Err() error {
	if s.err != nil {
		return s.err
	}
	q, err := s.compile()
	if err != nil {
		return err
	}
	return q.Err()
}

// Query compiles the Set and returns the statement in the dialect's
// placeholder syntax with its parameters. On error it returns zero values;
// check Err.
func (s *Set) Query() (string, []any) {
	q, err := s.compile()
	if err != nil {
		return "", nil
	}
	return q.Query()
}

// String returns the compiled raw statement text with {N} placeholders.
func (s *Set) String() string {
	q, err := s.compile()
	if err != nil {
		return ""
	}
	return q.String()
}

// projection returns the rendered column list for the Set's select.
func (s *Set) projection() string {
	if len(s.columns) == 0 {
		return "*"
	}
	cols := make([]string, len(s.columns))
	for i, c := range s.columns {
		cols[i] = s.quote(c)
	}
	return strings.Join(cols, ", ")
}

// builder returns an empty Builder for the Set's dialect.
func (s *Set) builder() *Builder {
	return &Builder{dialect: s.dialect, quote: s.quote}
}

// base returns the statement the buffer extends: a trivial select for a
// table-anchored Set, or a super query over the defining query.
func (s *Set) base() *Builder {
	b := s.builder()
	if s.def != nil {
		b.Append("SELECT "+s.projection()+" FROM ({0}) AS "+s.alias, s.def)
		return b
	}
	b.Append("SELECT " + s.projection() + " FROM " + s.quote(s.table))
	return b
}

// compile folds the Set's buffer into a single dialect-correct Builder.
// It is a pure function of the Set snapshot and performs no I/O; a Set with
// an empty buffer and default projection compiles to a clone of its
// defining query.
func (s *Set) compile() (*Builder, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.buf.empty() && !s.custom {
		if s.def != nil {
			return s.def.Clone(), nil
		}
		return s.base(), nil
	}
	switch s.dialect {
	case dialect.MySQL, dialect.SQLite, dialect.Postgres:
		return s.compileDefault(), nil
	case dialect.SQLServer:
		return s.compileSQLServer(), nil
	default:
		return nil, &nexsql.DialectError{Dialect: s.dialect}
	}
}

// compileDefault emits trailing LIMIT/OFFSET pagination, supported
// unconditionally by MySQL, SQLite and Postgres.
func (s *Set) compileDefault() *Builder {
	q := s.base()
	if f := s.buf.where; f != nil {
		q.AppendClause("WHERE", " AND ", f.format, f.args...)
	}
	if f := s.buf.order; f != nil {
		q.AppendClause("ORDER BY", ", ", f.format, f.args...)
	}
	if n := s.buf.take; n != nil {
		q.AppendClause("LIMIT", "", "{0}", *n)
	}
	if n := s.buf.skip; n != nil {
		q.AppendClause("OFFSET", "", "{0}", *n)
	}
	return q
}

// compileSQLServer emits pagination for a dialect without unconditional
// LIMIT/OFFSET, in three exclusive branches: OFFSET/FETCH when a skip is
// buffered, TOP when only a take is buffered, and plain filter/sort
// otherwise.
func (s *Set) compileSQLServer() *Builder {
	switch {
	case s.buf.skip != nil:
		q := s.base()
		if f := s.buf.where; f != nil {
			q.AppendClause("WHERE", " AND ", f.format, f.args...)
		}
		if f := s.buf.order; f != nil {
			q.AppendClause("ORDER BY", ", ", f.format, f.args...)
		} else {
			// OFFSET requires an ORDER BY; a constant ordering satisfies
			// the grammar without implying any order guarantee.
			q.AppendClause("ORDER BY", ", ", "(SELECT 1)")
		}
		q.Append(" OFFSET {0} ROWS", *s.buf.skip)
		if n := s.buf.take; n != nil {
			q.Append(" FETCH NEXT {0} ROWS ONLY", *n)
		}
		return q
	case s.buf.take != nil:
		q := s.topQuery()
		if s.custom {
			// TOP must apply before the projection narrows columns.
			outer := s.builder()
			outer.Append("SELECT "+s.projection()+" FROM ({0}) AS t"+strconv.Itoa(s.depth), q)
			return outer
		}
		return q
	default:
		q := s.base()
		if f := s.buf.where; f != nil {
			q.AppendClause("WHERE", " AND ", f.format, f.args...)
		}
		if f := s.buf.order; f != nil {
			q.AppendClause("ORDER BY", ", ", f.format, f.args...)
			// ORDER BY is not legal here without TOP or OFFSET; the no-op
			// offset keeps the statement wrappable as a subquery.
			q.Append(" OFFSET 0 ROWS")
		}
		return q
	}
}

// topQuery builds the SELECT TOP(n) statement for the take-only branch.
// With a custom projection the inner select stays at *, so the caller can
// wrap it once more.
func (s *Set) topQuery() *Builder {
	cols := s.projection()
	if s.custom {
		cols = "*"
	}
	q := s.builder()
	if s.def != nil {
		q.Append("SELECT TOP({0}) "+cols+" FROM ({1}) AS "+s.alias, *s.buf.take, s.def)
	} else {
		q.Append("SELECT TOP({0}) "+cols+" FROM "+s.quote(s.table), *s.buf.take)
	}
	if f := s.buf.where; f != nil {
		q.AppendClause("WHERE", " AND ", f.format, f.args...)
	}
	if f := s.buf.order; f != nil {
		q.AppendClause("ORDER BY", ", ", f.format, f.args...)
	}
	return q
}

// All compiles the Set and executes it through the given connection,
// returning the raw rows. Row materialization belongs to the caller.
func (s *Set) All(ctx context.Context, conn dialect.ExecQuerier) (*Rows, error) {
	q, err := s.compile()
	if err != nil {
		return nil, err
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	query, args := q.Query()
	var rows Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	return &rows, nil
}

// Count executes SELECT COUNT(*) over the compiled Set.
func (s *Set) Count(ctx context.Context, conn dialect.ExecQuerier) (int64, error) {
	q, err := s.compile()
	if err != nil {
		return 0, err
	}
	b := s.builder()
	b.Append("SELECT COUNT(*) FROM ({0}) AS t"+strconv.Itoa(s.depth), q)
	if err := b.Err(); err != nil {
		return 0, err
	}
	query, args := b.Query()
	var rows Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// Exists reports whether the compiled Set returns at least one row.
func (s *Set) Exists(ctx context.Context, conn dialect.ExecQuerier) (bool, error) {
	q, err := s.compile()
	if err != nil {
		return false, err
	}
	b := s.builder()
	b.Append("SELECT CASE WHEN EXISTS ({0}) THEN 1 ELSE 0 END", q)
	if err := b.Err(); err != nil {
		return false, err
	}
	query, args := b.Query()
	var rows Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return false, err
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n == 1, rows.Err()
}
