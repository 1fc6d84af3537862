package sql

import "strings"

// Predicate helpers build filter fragments without hand-writing placeholder
// indices. They compose with Fragment.join, so nested combinations renumber
// their references automatically:
//
//	p := sql.And(sql.EQ("status", "active"), sql.GT("age", 21))
//	s := sql.Dialect(dialect.Postgres).Table("users").Where(p.Format(), p.Args()...)

// P formats a raw condition into a fragment. It is the escape hatch for
// conditions the helpers below do not cover.
func P(format string, args ...any) *Fragment {
	return Exprf(format, args...)
}

// And combines predicates so that all of them must hold. With no
// predicates it is vacuously true.
func And(ps ...*Fragment) *Fragment {
	return combine(" AND ", "TRUE", ps)
}

// Or combines predicates so that at least one of them must hold. With no
// predicates it is vacuously false.
func Or(ps ...*Fragment) *Fragment {
	return combine(" OR ", "FALSE", ps)
}

// Not negates a predicate.
func Not(p *Fragment) *Fragment {
	return Exprf("NOT ("+p.format+")", p.args...)
}

func combine(sep, empty string, ps []*Fragment) *Fragment {
	switch len(ps) {
	case 0:
		return Exprf(empty)
	case 1:
		return ps[0]
	}
	out := &Fragment{format: "(" + ps[0].format, args: ps[0].args}
	for _, p := range ps[1:] {
		out = out.join(sep, p)
	}
	out = &Fragment{format: out.format + ")", args: out.args}
	return out
}

// EQ returns a column = value predicate.
func EQ(col string, v any) *Fragment { return Exprf(col+" = {0}", v) }

// NEQ returns a column <> value predicate.
func NEQ(col string, v any) *Fragment { return Exprf(col+" <> {0}", v) }

// GT returns a column > value predicate.
func GT(col string, v any) *Fragment { return Exprf(col+" > {0}", v) }

// GTE returns a column >= value predicate.
func GTE(col string, v any) *Fragment { return Exprf(col+" >= {0}", v) }

// LT returns a column < value predicate.
func LT(col string, v any) *Fragment { return Exprf(col+" < {0}", v) }

// LTE returns a column <= value predicate.
func LTE(col string, v any) *Fragment { return Exprf(col+" <= {0}", v) }

// In returns a column IN (values...) predicate. An empty value list renders
// a predicate that matches no rows, mirroring IN's semantics over an empty
// set.
func In(col string, vs ...any) *Fragment {
	if len(vs) == 0 {
		return Exprf("FALSE")
	}
	return Exprf(col+" IN ({0})", List(vs...))
}

// NotIn returns a column NOT IN (values...) predicate.
func NotIn(col string, vs ...any) *Fragment {
	if len(vs) == 0 {
		return Exprf("TRUE")
	}
	return Exprf(col+" NOT IN ({0})", List(vs...))
}

// InSet returns a column IN (subquery) predicate over a Set.
func InSet(col string, s *Set) *Fragment {
	return Exprf(col+" IN ({0})", s)
}

// IsNull returns a column IS NULL predicate.
func IsNull(col string) *Fragment { return Exprf(col + " IS NULL") }

// NotNull returns a column IS NOT NULL predicate.
func NotNull(col string) *Fragment { return Exprf(col + " IS NOT NULL") }

// Like returns a column LIKE pattern predicate. The pattern is passed
// through as-is; use Contains, HasPrefix or HasSuffix for escaped matching
// on caller data.
func Like(col, pattern string) *Fragment { return Exprf(col+" LIKE {0}", pattern) }

// Contains returns a predicate matching rows whose column contains substr.
func Contains(col, substr string) *Fragment {
	return Exprf(col+" LIKE {0}", "%"+escapeLike(substr)+"%")
}

// HasPrefix returns a predicate matching rows whose column starts with prefix.
func HasPrefix(col, prefix string) *Fragment {
	return Exprf(col+" LIKE {0}", escapeLike(prefix)+"%")
}

// HasSuffix returns a predicate matching rows whose column ends with suffix.
func HasSuffix(col, suffix string) *Fragment {
	return Exprf(col+" LIKE {0}", "%"+escapeLike(suffix))
}

// escapeLike escapes the LIKE wildcard characters in a literal value.
func escapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Asc returns an ascending sort expression for OrderBy.
func Asc(col string) string { return col + " ASC" }

// Desc returns a descending sort expression for OrderBy.
func Desc(col string) string { return col + " DESC" }

// Between returns a column BETWEEN lo AND hi predicate.
func Between(col string, lo, hi any) *Fragment {
	return Exprf(col+" BETWEEN {0} AND {1}", lo, hi)
}
