package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and the positional args bound to $1..$n.
type sqlWriter struct {
	strings.Builder
	args []any
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.WriteString("$" + strconv.Itoa(len(w.args)))
}

// expr writes raw SQL, binding each '?' to the next arg. Surplus '?' are written as-is.
func (w *sqlWriter) expr(sql string, args []any) {
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' && len(args) > 0 {
			w.bind(args[0])
			args = args[1:]
			continue
		}
		w.WriteByte(sql[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.WriteString(" WHERE ")
		} else {
			w.WriteString(" AND ")
		}
		c.writeSQL(w)
	}
}

func (w *sqlWriter) result() (string, []any, error) {
	return w.String(), w.args, nil
}

type Condition interface {
	writeSQL(w *sqlWriter)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func Gt(column string, value any) Condition {
	return compareCondition{column: column, op: ">", value: value}
}

// EqFold compares case-insensitively.
func EqFold(column string, value string) Condition {
	return compareCondition{column: "LOWER(" + column + ")", op: "=", value: strings.ToLower(value)}
}

func (c compareCondition) writeSQL(w *sqlWriter) {
	w.WriteString(c.column + " " + c.op + " ")
	w.bind(c.value)
}

type containsFoldCondition struct {
	columns []string
	pattern string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ContainsFold matches rows where any column contains needle, ignoring case.
func ContainsFold(needle string, columns ...string) Condition {
	return containsFoldCondition{
		columns: append([]string(nil), columns...),
		pattern: "%" + likeEscaper.Replace(needle) + "%",
	}
}

func (c containsFoldCondition) writeSQL(w *sqlWriter) {
	if len(c.columns) == 0 {
		w.WriteString("TRUE")
		return
	}
	w.WriteByte('(')
	for i, col := range c.columns {
		if i > 0 {
			w.WriteString(" OR ")
		}
		w.WriteString(col + " ILIKE ")
		w.bind(c.pattern)
	}
	w.WriteByte(')')
}

type inCondition struct {
	column string
	values []any
}

// In matches nothing when values is empty.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) writeSQL(w *sqlWriter) {
	if len(c.values) == 0 {
		w.WriteString("FALSE")
		return
	}
	w.WriteString(c.column + " IN (")
	for i, v := range c.values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.bind(v)
	}
	w.WriteByte(')')
}

type exprCondition struct {
	sql  string
	args []any
}

// Expr is a raw predicate with '?' placeholders.
func Expr(sql string, args ...any) Condition {
	return exprCondition{sql: sql, args: args}
}

func (c exprCondition) writeSQL(w *sqlWriter) {
	w.expr(c.sql, c.args)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(b.columns) == 0:
		return "", nil, errors.New("select columns are required")
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("select table is required")
	}

	var w sqlWriter
	w.WriteString("SELECT " + strings.Join(b.columns, ", ") + " FROM " + b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.WriteString(" ORDER BY " + strings.Join(b.orderBy, ", "))
	}
	return w.result()
}

// InsertBuilder builds a single-row INSERT.
type InsertBuilder struct {
	table   string
	columns []string
	values  []any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.values = append([]any(nil), values...)
	return b
}

// Suffix appends raw SQL such as ON CONFLICT or RETURNING.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("insert table is required")
	case len(b.columns) == 0:
		return "", nil, errors.New("insert columns are required")
	case len(b.values) != len(b.columns):
		return "", nil, errors.New("insert has " + strconv.Itoa(len(b.values)) + " values for " + strconv.Itoa(len(b.columns)) + " columns")
	}

	var w sqlWriter
	w.WriteString("INSERT INTO " + b.table + " (" + strings.Join(b.columns, ", ") + ") VALUES (")
	for i, v := range b.values {
		if i > 0 {
			w.WriteString(", ")
		}
		w.bind(v)
	}
	w.WriteByte(')')
	if b.suffix != "" {
		w.WriteString(" " + b.suffix)
	}
	return w.result()
}

type UpdateBuilder struct {
	table   string
	columns []string
	values  []any
	where   []Condition
	err     error
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case b.err != nil:
		return "", nil, b.err
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("update table is required")
	case len(b.columns) == 0:
		return "", nil, errors.New("update sets are required")
	}

	var w sqlWriter
	w.WriteString("UPDATE " + b.table + " SET ")
	for i, col := range b.columns {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteString(col + " = ")
		w.bind(b.values[i])
	}
	w.where(b.where)
	return w.result()
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

// ToSQL refuses to build a DELETE without conditions.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("delete table is required")
	case len(b.where) == 0:
		return "", nil, errors.New("delete without where is not allowed")
	}

	var w sqlWriter
	w.WriteString("DELETE FROM " + b.table)
	w.where(b.where)
	return w.result()
}
