package sql

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nexsql/nexsql"
	"github.com/nexsql/nexsql/dialect"
)

// Builder accumulates the text of a single SQL statement together with the
// ordered list of parameters bound to it. Statement text carries positional
// placeholders of the form {N}, where N is the index of the parameter in the
// list. The final, driver-specific placeholder syntax is produced by Query
// in one linear pass.
//
// A Builder is clause-aware: AppendClause either starts a new clause or
// continues the current one with a separator, so repeated calls for the same
// clause produce "WHERE a AND b AND c" instead of two WHERE keywords.
//
// A Builder is not safe for concurrent mutation. To extend a statement
// independently of its origin, Clone it first.
type Builder struct {
	sb      strings.Builder
	args    []any
	dialect string
	quote   func(string) string

	// Clause-tracking state. clause and sep describe the clause currently
	// being written. nextClause and nextSep are a one-shot pre-announcement
	// consumed by the next bare Append.
	clause     string
	sep        string
	nextClause string
	nextSep    string

	errs []error
}

// raw is a literal text argument. It is spliced into the statement as-is,
// without becoming a parameter.
type raw string

// Raw returns an argument that is spliced into the statement verbatim.
// It is intended for identifiers and keywords, never for caller data.
func Raw(s string) any { return raw(s) }

// list is a value-list argument, expanded into one placeholder per element.
type list []any

// List returns an argument that expands into a comma-separated run of
// placeholders, one per value. It renders IN-style predicates:
//
//	b.Append("status IN ({0})", sql.List("active", "pending"))
func List(vs ...any) any { return list(vs) }

// Append renders format with the given args and appends the result to the
// statement text. Placeholders {N} in format refer to the N-th argument of
// this call. Arguments are classified by type:
//
//   - *Set: its compiled defining query is spliced as an indented
//     subordinate statement with renumbered placeholders.
//   - *Builder: merged the same way.
//   - Raw: literal text.
//   - List: expands into len(vs) placeholders bound to the values.
//   - anything else: one placeholder bound to the value.
//
// If a clause was pre-announced with SetNextClause, the appended text is
// joined as part of that clause.
func (b *Builder) Append(format string, args ...any) *Builder {
	if format == "" {
		b.fail("Append", "empty format")
		return b
	}
	if b.nextClause != "" {
		name, sep := b.nextClause, b.nextSep
		b.nextClause, b.nextSep = "", ""
		return b.AppendClause(name, sep, format, args...)
	}
	b.appendFormat(format, args)
	return b
}

// AppendClause appends text belonging to the named clause. If name differs
// from the clause currently being written, or sep is empty, a new clause is
// started on its own line. Otherwise the text continues the current clause,
// joined by sep.
func (b *Builder) AppendClause(name, sep, format string, args ...any) *Builder {
	if name == "" || format == "" {
		b.fail("AppendClause", "empty clause name or format")
		return b
	}
	if name != b.clause || sep == "" {
		if b.sb.Len() > 0 {
			b.sb.WriteByte('\n')
		}
		b.sb.WriteString(name)
		b.sb.WriteByte(' ')
	} else {
		b.sb.WriteString(sep)
	}
	b.clause, b.sep = name, sep
	b.nextClause, b.nextSep = "", ""
	b.appendFormat(format, args)
	return b
}

// SetNextClause pre-announces the clause the next bare Append belongs to.
// The announcement is consumed by a single Append or AppendClause call.
func (b *Builder) SetNextClause(name, sep string) *Builder {
	b.nextClause, b.nextSep = name, sep
	return b
}

// Clone returns a deep copy of the builder: statement text, parameter list
// and current clause-tracking state. The clone extends independently without
// affecting the original.
func (b *Builder) Clone() *Builder {
	c := &Builder{
		dialect: b.dialect,
		quote:   b.quote,
		clause:  b.clause,
		sep:     b.sep,
		args:    append([]any(nil), b.args...),
		errs:    append([]error(nil), b.errs...),
	}
	c.sb.WriteString(b.sb.String())
	return c
}

// Dialect returns the dialect the builder was created for.
func (b *Builder) Dialect() string { return b.dialect }

// Args returns a copy of the parameter list accumulated so far.
func (b *Builder) Args() []any {
	return append([]any(nil), b.args...)
}

// String returns the raw statement text with {N} placeholders.
func (b *Builder) String() string { return b.sb.String() }

// Err returns the accumulated usage errors, or nil.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Ident returns the identifier quoted for the builder's dialect.
func (b *Builder) Ident(s string) string {
	switch b.dialect {
	case dialect.MySQL:
		return "`" + s + "`"
	case dialect.SQLServer:
		return "[" + s + "]"
	default:
		return `"` + s + `"`
	}
}

// Query returns the statement text in the dialect's placeholder syntax
// together with the parameters to bind, in order. MySQL and SQLite use ?,
// Postgres uses $n and SQLServer uses @pn. The substitution is a single
// linear pass; the text is otherwise emitted as accumulated.
func (b *Builder) Query() (string, []any) {
	text := b.sb.String()
	var (
		out  strings.Builder
		args []any
	)
	out.Grow(len(text))
	switch b.dialect {
	case dialect.Postgres:
		scanPlaceholders(text, &out, func(n int) {
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(n + 1))
		})
		args = b.Args()
	case dialect.SQLServer:
		scanPlaceholders(text, &out, func(n int) {
			out.WriteString("@p")
			out.WriteString(strconv.Itoa(n + 1))
		})
		args = b.Args()
	default:
		// ?-style drivers bind strictly by position, so parameters are
		// re-emitted in placeholder occurrence order.
		scanPlaceholders(text, &out, func(n int) {
			out.WriteByte('?')
			if n < len(b.args) {
				args = append(args, b.args[n])
			}
		})
	}
	return out.String(), args
}

// fail records a usage error on the builder.
func (b *Builder) fail(op, reason string) {
	b.errs = append(b.errs, &nexsql.UsageError{Op: "sql." + op, Reason: reason})
}

// appendFormat renders format into the statement buffer, resolving {N}
// references against args. Plain values are bound once per argument, so a
// format referring to {0} twice binds a single parameter.
func (b *Builder) appendFormat(format string, args []any) {
	var (
		rendered = make([]string, len(args))
		done     = make([]bool, len(args))
	)
	for i := 0; i < len(format); {
		idx, next, ok := placeholderAt(format, i)
		if !ok {
			b.sb.WriteByte(format[i])
			i++
			continue
		}
		if idx >= len(args) {
			b.fail("Append", "argument index {"+strconv.Itoa(idx)+"} out of range")
			i = next
			continue
		}
		if !done[idx] {
			rendered[idx] = b.renderArg(args[idx])
			done[idx] = true
		}
		b.sb.WriteString(rendered[idx])
		i = next
	}
}

// renderArg classifies a single append argument and returns its textual
// replacement. Plain values are appended to the parameter list; nested
// builders and sets are merged with their placeholders renumbered relative
// to the receiver's current parameter count.
func (b *Builder) renderArg(v any) string {
	switch a := v.(type) {
	case *Set:
		q, err := a.compile()
		if err != nil {
			b.errs = append(b.errs, err)
			return ""
		}
		return b.merge(q)
	case *Builder:
		return b.merge(a)
	case raw:
		return string(a)
	case list:
		parts := make([]string, len(a))
		for i := range a {
			parts[i] = b.param(a[i])
		}
		return strings.Join(parts, ", ")
	default:
		return b.param(v)
	}
}

// param binds v as the next parameter and returns its placeholder.
func (b *Builder) param(v any) string {
	b.args = append(b.args, v)
	return "{" + strconv.Itoa(len(b.args)-1) + "}"
}

// merge splices another builder's text into the receiver, shifting its
// placeholders by the receiver's current parameter count and indenting it
// as a subordinate statement.
func (b *Builder) merge(sub *Builder) string {
	text := shiftPlaceholders(sub.String(), len(b.args))
	b.args = append(b.args, sub.args...)
	if len(sub.errs) > 0 {
		b.errs = append(b.errs, sub.errs...)
	}
	return strings.ReplaceAll(text, "\n", "\n\t")
}

// placeholderAt reports whether text[i:] starts a {N} placeholder.
// It returns the index N and the position right after the closing brace.
func placeholderAt(text string, i int) (idx, next int, ok bool) {
	if text[i] != '{' {
		return 0, 0, false
	}
	j := i + 1
	for j < len(text) && text[j] >= '0' && text[j] <= '9' {
		j++
	}
	if j == i+1 || j == len(text) || text[j] != '}' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(text[i+1 : j])
	if err != nil {
		return 0, 0, false
	}
	return n, j + 1, true
}

// shiftPlaceholders renumbers every {N} in text to {N+offset}.
func shiftPlaceholders(text string, offset int) string {
	if offset == 0 {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	scanPlaceholders(text, &out, func(n int) {
		out.WriteByte('{')
		out.WriteString(strconv.Itoa(n + offset))
		out.WriteByte('}')
	})
	return out.String()
}

// scanPlaceholders walks text in a single pass, copying literal bytes to out
// and calling emit for every {N} placeholder.
func scanPlaceholders(text string, out *strings.Builder, emit func(n int)) {
	for i := 0; i < len(text); {
		idx, next, ok := placeholderAt(text, i)
		if !ok {
			out.WriteByte(text[i])
			i++
			continue
		}
		emit(idx)
		i = next
	}
}
