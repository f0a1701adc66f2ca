package common

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/darianmavgo/growlog/record"
)

// SQLStmtType defines the type of SQL statement to generate
type SQLStmtType string

const (
	InsertStmt SQLStmtType = "INSERT"
	SelectStmt SQLStmtType = "SELECT"
	CountStmt  SQLStmtType = "COUNT"

	TBPRE = "tb"
)

var (
	space = regexp.MustCompile(`\s+`)
	reg   = regexp.MustCompile(`[^a-zA-Z0-9 _]+`)
)

// Dialect captures what differs between the supported databases.
type Dialect struct {
	Name         string
	VersionQuery string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder func(n int) string
	// ColumnTypes holds the column definitions, in record.Columns order.
	ColumnTypes  []string
	TableOptions string
}

// QuestionMark is the placeholder style of sqlite and mysql.
func QuestionMark(int) string { return "?" }

// DollarN is the placeholder style of postgres.
func DollarN(n int) string { return fmt.Sprintf("$%d", n) }

/*
	GenCompliantNames generates names that are safe to use unquoted.

lower case, snake case, strip disallowed characters, dodge keywords.
If a standardized name results in an unusable result then the name is {prefix}{idx}
*/
func GenCompliantNames(rawnames []string, prefix string) []string {
	gorgeous := make([]string, len(rawnames))

	counter := map[string]int{}
	for idx, item := range rawnames {
		item = strings.TrimSpace(item)
		item = reg.ReplaceAllString(item, "")
		item = space.ReplaceAllString(item, "_")
		item = strings.ToLower(item)
		for _, keyword := range KEYWORDS_LOWER {
			if item == keyword {
				item = fmt.Sprintf("%s%d", prefix, idx)
				break
			}
		}

		if len(item) == 0 {
			gorgeous[idx] = fmt.Sprintf("%s%d", prefix, idx)
			continue
		}

		// cannot start with a number
		if item[0] >= '0' && item[0] <= '9' {
			item = fmt.Sprintf("%s%d%s", prefix, idx, item)
		}

		counter[item]++
		if counter[item] == 1 {
			gorgeous[idx] = item
		} else {
			gorgeous[idx] = fmt.Sprintf("%s%d", item, counter[item])
		}
	}
	return gorgeous
}

// GenTableNames generates sanitized SQL table names from raw table names.
// if table names are complete junk it will return tb0, tb1, tb2, etc.
func GenTableNames(rawtables []string) []string {
	return GenCompliantNames(rawtables, TBPRE)
}

// TableName sanitizes a single configured table name.
func TableName(raw string) string {
	return GenTableNames([]string{raw})[0]
}

// GenPreparedStmt generates a prepared statement for the specified operation
func GenPreparedStmt(d Dialect, table string, fields []string, stmtType SQLStmtType) (string, error) {
	if table == "" || len(fields) == 0 {
		return "", fmt.Errorf("table name and fields are required")
	}

	var stmtSQL string
	switch stmtType {
	case InsertStmt:
		marks := make([]string, len(fields))
		for i := range fields {
			marks[i] = d.Placeholder(i + 1)
		}
		stmtSQL = fmt.Sprintf(`
INSERT INTO %s (
	%s
) VALUES (%s)`,
			table,
			strings.Join(fields, ","),
			strings.Join(marks, ","),
		)

	case SelectStmt:
		stmtSQL = fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s = %s`,
			strings.Join(fields, ","),
			table,
			record.KeyColumn,
			d.Placeholder(1),
		)

	case CountStmt:
		stmtSQL = fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)

	default:
		return "", fmt.Errorf("unsupported statement type: %s", stmtType)
	}

	return strings.TrimSpace(stmtSQL), nil
}

// GenCreateTableSQL generates the CREATE TABLE IF NOT EXISTS statement of the
// log table in the given dialect.
func GenCreateTableSQL(d Dialect, table string) string {
	var builder strings.Builder
	builder.Grow(len(table) + len(record.Columns)*40)

	builder.WriteString("CREATE TABLE IF NOT EXISTS ")
	builder.WriteString(table)
	builder.WriteString(" (\n")
	for i, name := range record.Columns {
		builder.WriteByte('\t')
		builder.WriteString(name)
		builder.WriteByte(' ')
		builder.WriteString(d.ColumnTypes[i])
		builder.WriteString(",\n")
	}
	builder.WriteString("\tPRIMARY KEY (")
	builder.WriteString(record.KeyColumn)
	builder.WriteString(")\n)")
	builder.WriteString(d.TableOptions)
	return builder.String()
}

// KEYWORDS_LOWER lists the SQL keywords that may not be used as a bare identifier.
// Based on https://sqlite.org/lang_keywords.html
var KEYWORDS_LOWER = []string{
	"abort", "action", "add", "after", "all", "alter", "always", "analyze", "and", "as",
	"asc", "attach", "autoincrement", "before", "begin", "between", "by", "cascade", "case", "cast",
	"check", "collate", "column", "commit", "conflict", "constraint", "create", "cross", "current", "current_date",
	"current_time", "current_timestamp", "database", "default", "deferrable", "deferred", "delete", "desc", "detach", "distinct",
	"do", "drop", "each", "else", "end", "escape", "except", "exclude", "exclusive", "exists",
	"explain", "fail", "filter", "first", "following", "for", "foreign", "from", "full", "generated",
	"glob", "group", "groups", "having", "if", "ignore", "immediate", "in", "index", "indexed",
	"initially", "inner", "insert", "instead", "intersect", "into", "is", "isnull", "join", "key",
	"last", "left", "like", "limit", "match", "materialized", "natural", "no", "not", "nothing",
	"notnull", "null", "nulls", "of", "offset", "on", "or", "order", "others", "outer",
	"over", "partition", "plan", "pragma", "preceding", "primary", "query", "raise", "range", "recursive",
	"references", "regexp", "reindex", "release", "rename", "replace", "restrict", "returning", "right", "rollback",
	"row", "rows", "savepoint", "select", "set", "table", "temp", "temporary", "then", "ties",
	"to", "transaction", "trigger", "unbounded", "union", "unique", "update", "using", "vacuum", "values",
	"view", "virtual", "when", "where", "window", "with", "without",
}
