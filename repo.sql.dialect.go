package main

import (
	"strconv"
	"strings"
)

// dialect captures the few statements which differ between the
// supported relational engines. Queries are written with `?` markers.
type dialect interface {
	name() string
	createTable() string
	rebind(query string) string
	globExpr(column string) string
	globPattern(pattern string) string
	dateExpr(operand string) string
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

// sqlite has no date storage class, dates are kept as ISO-8601 text.
func (sqliteDialect) createTable() string {
	return `CREATE TABLE IF NOT EXISTS books (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		author         TEXT,
		title          TEXT,
		published_date TEXT
	)`
}

func (sqliteDialect) rebind(query string) string { return query }

// GLOB is case sensitive and already uses `?` and `*` as wildcards.
func (sqliteDialect) globExpr(column string) string { return column + " GLOB ?" }

// globPattern escapes the bracket which would otherwise open a character class.
func (sqliteDialect) globPattern(pattern string) string {
	return strings.ReplaceAll(pattern, "[", "[[]")
}

func (sqliteDialect) dateExpr(operand string) string { return "date(" + operand + ")" }

type postgresDialect struct{}

func (postgresDialect) name() string { return "postgres" }

func (postgresDialect) createTable() string {
	return `CREATE TABLE IF NOT EXISTS books (
		id             BIGSERIAL PRIMARY KEY,
		author         TEXT,
		title          TEXT,
		published_date TEXT
	)`
}

// rebind numbers the `?` markers as `$1`, `$2`...
func (postgresDialect) rebind(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (postgresDialect) globExpr(column string) string { return column + ` LIKE ? ESCAPE '\'` }

// globPattern escapes the LIKE markers then maps `?` to `_` and `*` to `%`.
func (postgresDialect) globPattern(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `?`, `_`, `*`, `%`)
	return r.Replace(pattern)
}

// stored text starts with `YYYY-MM-DD` so comparing the prefix orders by date.
func (postgresDialect) dateExpr(operand string) string { return "left(" + operand + ", 10)" }
