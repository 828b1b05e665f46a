package main

import (
	"regexp"
	"strings"
)

// Criteria holds the optional filters of a books listing.
// A book matches when it satisfies every criterion which is set.
type Criteria struct {
	Author            *string
	Title             *string
	PublishedDateFrom *Date
	PublishedDateTo   *Date
}

// Field names a filterable book attribute. Values are the column names.
type Field string

const (
	FieldAuthor        Field = "author"
	FieldTitle         Field = "title"
	FieldPublishedDate Field = "published_date"
)

// Op is the comparison applied by a Condition.
type Op int

const (
	// OpEqual requires the text field to equal the value.
	OpEqual Op = iota
	// OpGlob requires the whole text field to match a pattern where
	// `?` stands for one character and `*` for any run of characters.
	OpGlob
	// OpAfter requires the date field to be strictly later than the value.
	OpAfter
	// OpBefore requires the date field to be strictly earlier than the value.
	OpBefore
)

// Condition is one compiled criterion. Backends either evaluate it
// in-process with Match or translate it into their query language.
type Condition struct {
	Field Field
	Op    Op
	Text  string
	Date  Date

	re *regexp.Regexp
}

// Conditions compiles the set criteria in a stable order.
// Empty criteria produce no condition.
func (c Criteria) Conditions() []Condition {
	var conds []Condition
	if c.Author != nil {
		conds = append(conds, textCondition(FieldAuthor, *c.Author))
	}
	if c.Title != nil {
		conds = append(conds, textCondition(FieldTitle, *c.Title))
	}
	if c.PublishedDateFrom != nil {
		conds = append(conds, Condition{Field: FieldPublishedDate, Op: OpAfter, Date: *c.PublishedDateFrom})
	}
	if c.PublishedDateTo != nil {
		conds = append(conds, Condition{Field: FieldPublishedDate, Op: OpBefore, Date: *c.PublishedDateTo})
	}
	return conds
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.Author == nil && c.Title == nil && c.PublishedDateFrom == nil && c.PublishedDateTo == nil
}

// Predicate returns a function reporting whether a book satisfies all conditions.
func (c Criteria) Predicate() func(Book) bool {
	if c.IsEmpty() {
		return matchAll
	}
	conds := c.Conditions()
	return func(b Book) bool {
		for _, cond := range conds {
			if !cond.Match(b) {
				return false
			}
		}
		return true
	}
}

func matchAll(Book) bool { return true }

// Match evaluates the condition against a book. A null field never matches.
func (cond Condition) Match(b Book) bool {
	switch cond.Field {
	case FieldAuthor, FieldTitle:
		v := b.Author
		if cond.Field == FieldTitle {
			v = b.Title
		}
		if v == nil {
			return false
		}
		if cond.Op == OpGlob {
			return cond.re.MatchString(*v)
		}
		return *v == cond.Text
	case FieldPublishedDate:
		if b.PublishedDate == nil {
			return false
		}
		if cond.Op == OpAfter {
			return b.PublishedDate.After(cond.Date)
		}
		return b.PublishedDate.Before(cond.Date)
	}
	return false
}

// HasWildcard reports whether s contains a glob marker.
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, "?*")
}

func textCondition(field Field, value string) Condition {
	if !HasWildcard(value) {
		return Condition{Field: field, Op: OpEqual, Text: value}
	}
	return Condition{Field: field, Op: OpGlob, Text: value, re: compileGlob(value)}
}

// compileGlob turns a glob pattern into an anchored regular expression.
// Everything except the markers is matched literally.
func compileGlob(pattern string) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString("^")
	var literal strings.Builder
	flush := func() {
		sb.WriteString(regexp.QuoteMeta(literal.String()))
		literal.Reset()
	}
	for _, r := range pattern {
		switch r {
		case '?':
			flush()
			sb.WriteString(".")
		case '*':
			flush()
			sb.WriteString(".*")
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("$")
	return regexp.MustCompile("(?s)" + sb.String())
}
