package cass

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QueryCompiler is what a generic query builder needs from a dialect.
type QueryCompiler interface {
	CompileSelect(q *Query) (string, []interface{}, error)
	CompileInsert(q *Query, values interface{}) (string, []interface{}, error)
	CompileUpdate(q *Query, values map[string]interface{}) (string, []interface{}, error)
	CompileDelete(q *Query) (string, []interface{}, error)
	WrapTable(table string) string
	QuoteString(values ...string) string
}

type Grammar struct {
	keyspace string
}

var _ QueryCompiler = (*Grammar)(nil)

func NewGrammar(c *Config) *Grammar {
	return &Grammar{keyspace: c.keyspace()}
}

func (g *Grammar) Keyspace() string {
	return g.keyspace
}

// WrapTable qualifies the table with the configured keyspace.
func (g *Grammar) WrapTable(table string) string {
	return wrapTable(g.keyspace, table)
}

func (g *Grammar) Wrap(column string) string {
	return wrapValue(column)
}

func (g *Grammar) QuoteString(values ...string) string {
	return QuoteString(values...)
}

// components of a select, in the order they are rendered
var selectComponents = []func(*Grammar, *Query) (string, error){
	(*Grammar).compileAggregate,
	(*Grammar).compileColumns,
	(*Grammar).compileFrom,
	(*Grammar).compileWheres,
	(*Grammar).compileOrders,
	(*Grammar).compileLimit,
	(*Grammar).compileOffset,
	(*Grammar).compileAllowFiltering,
}

func concatenate(parts []string) string {
	ret := make([]string, 0, len(parts))
	for i := range parts {
		if parts[i] != "" {
			ret = append(ret, parts[i])
		}
	}
	return strings.TrimSpace(strings.Join(ret, " "))
}

func (g *Grammar) CompileSelect(q *Query) (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	parts := make([]string, 0, len(selectComponents))
	for _, c := range selectComponents {
		s, err := c(g, q)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, s)
	}
	return concatenate(parts), q.WhereBindings(), nil
}

func (g *Grammar) compileAggregate(q *Query) (string, error) {
	if q.Aggregate == nil {
		return "", nil
	}
	fn := strings.ToLower(q.Aggregate.Function)
	switch fn {
	case "count", "min", "max", "sum", "avg":
	default:
		return "", unsupported("Aggregate", fmt.Sprintf("aggregate function %q is not supported", q.Aggregate.Function))
	}
	return fmt.Sprintf("select %s(%s) as aggregate", fn, columnize(q.Aggregate.Columns)), nil
}

func (g *Grammar) compileColumns(q *Query) (string, error) {
	if q.Aggregate != nil {
		return "", nil
	}
	cols := q.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return "select " + columnize(cols), nil
}

func (g *Grammar) compileFrom(q *Query) (string, error) {
	if q.From == "" {
		return "", invalidArgument("From", "query has no table")
	}
	return "from " + g.WrapTable(q.From), nil
}

func (g *Grammar) compileWheres(q *Query) (string, error) {
	if len(q.Wheres) == 0 {
		return "", nil
	}
	parts := make([]string, len(q.Wheres))
	for i := range q.Wheres {
		w := &q.Wheres[i]
		if i > 0 && w.Boolean == "or" {
			return "", unsupported("OrWhere", "or predicates are not supported")
		}
		s, err := g.compileWhere(w)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "where " + strings.Join(parts, " and "), nil
}

var basicOperators = map[string]struct{}{
	"=": {}, ">": {}, ">=": {}, "<": {}, "<=": {},
	"contains": {}, "contains key": {},
}

func (g *Grammar) compileWhere(w *Where) (string, error) {
	switch w.Type {
	case WhereBasic:
		return g.whereBasic(w)
	case WhereIn:
		return g.whereIn(w), nil
	case WhereContains:
		c := *w
		c.Operator = "contains"
		return g.whereBasic(&c)
	case WhereContainsKey:
		c := *w
		c.Operator = "contains key"
		return g.whereBasic(&c)
	case WhereBetween:
		return "", unsupported("WhereBetween", "between predicates are not supported")
	case WhereBetweenColumns:
		return "", unsupported("WhereBetweenColumns", "between columns predicates are not supported")
	case WhereNotIn:
		return "", unsupported("WhereNotIn", "not in predicates are not supported")
	case WhereNotInRaw:
		return "", unsupported("WhereNotInRaw", "not in raw predicates are not supported")
	case WhereNull:
		return "", unsupported("WhereNull", "is null predicates are not supported")
	case WhereNotNull:
		return "", unsupported("WhereNotNull", "is not null predicates are not supported")
	case WhereLike:
		return "", unsupported("WhereLike", "like predicates are not supported")
	}
	return "", invalidArgument("Where", "unknown predicate type %d", w.Type)
}

func (g *Grammar) whereBasic(w *Where) (string, error) {
	if _, ok := basicOperators[w.Operator]; !ok {
		return "", unsupported("Where", fmt.Sprintf("operator %q is not supported", w.Operator))
	}
	return fmt.Sprintf("%s %s ?", wrapValue(w.Column), w.Operator), nil
}

func (g *Grammar) whereIn(w *Where) string {
	return fmt.Sprintf("%s in (%s)", wrapValue(w.Column), parameterize(len(w.Values)))
}

func parameterize(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (g *Grammar) compileOrders(q *Query) (string, error) {
	if len(q.Orders) == 0 {
		return "", nil
	}
	parts := make([]string, len(q.Orders))
	for i, o := range q.Orders {
		if o.Direction != "asc" && o.Direction != "desc" {
			return "", invalidArgument("OrderBy", "order direction must be asc or desc, got %q", o.Direction)
		}
		parts[i] = wrapValue(o.Column) + " " + o.Direction
	}
	return "order by " + strings.Join(parts, ", "), nil
}

func (g *Grammar) compileLimit(q *Query) (string, error) {
	if q.Limit <= 0 {
		return "", nil
	}
	return "limit " + strconv.Itoa(q.Limit), nil
}

func (g *Grammar) compileOffset(q *Query) (string, error) {
	if q.Offset <= 0 {
		return "", nil
	}
	return "", unsupported("Skip", "offsets are not supported, page with the driver paging state instead")
}

func (g *Grammar) compileAllowFiltering(q *Query) (string, error) {
	if q.Filtering {
		return "allow filtering", nil
	}
	return "", nil
}

type insertRow = map[string]interface{}

func insertRows(values interface{}) ([]insertRow, error) {
	const op = "CompileInsert"
	switch v := values.(type) {
	case nil:
		return []insertRow{{}}, nil
	case map[string]interface{}:
		return []insertRow{v}, nil
	case []map[string]interface{}:
		if len(v) == 0 {
			return nil, invalidArgument(op, "no rows to insert")
		}
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, invalidArgument(op, "no rows to insert")
		}
		rows := make([]insertRow, len(v))
		for i := range v {
			r, ok := v[i].(map[string]interface{})
			if !ok {
				return nil, invalidArgument(op, "record %d should be a map of column values, got %T", i, v[i])
			}
			rows[i] = r
		}
		return rows, nil
	}
	return nil, invalidArgument(op, "insert values should be a row or a slice of rows, got %T", values)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

/*
CompileInsert treats every insert as a batch of rows sharing one column list.
Pending collection values are appended as extra columns carrying their literal
instead of a placeholder. More than one row renders a logged batch.
*/
func (g *Grammar) CompileInsert(q *Query, values interface{}) (string, []interface{}, error) {
	const op = "CompileInsert"
	if q.err != nil {
		return "", nil, q.err
	}
	rows, err := insertRows(values)
	if err != nil {
		return "", nil, err
	}

	columns := sortedKeys(rows[0])
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(columns) {
			return "", nil, invalidArgument(op, "record %d does not match the columns of the first record", i)
		}
		for _, c := range columns {
			if _, ok := rows[i][c]; !ok {
				return "", nil, invalidArgument(op, "record %d is missing column %s", i, c)
			}
		}
	}

	collCols := make([]string, 0, len(q.InsertCollections))
	collLits := make([]string, 0, len(q.InsertCollections))
	for i := range q.InsertCollections {
		c := &q.InsertCollections[i]
		l, err := CollectionLiteral(c.Kind, c.Value)
		if err != nil {
			return "", nil, err
		}
		collCols = append(collCols, c.Column)
		collLits = append(collLits, l)
	}

	allCols := append(append([]string{}, columns...), collCols...)
	if len(allCols) == 0 {
		return "", nil, invalidArgument(op, "insert has no columns")
	}

	table := g.WrapTable(q.From)
	params := parameterize(len(columns))
	if len(collLits) > 0 {
		if params != "" {
			params += ", "
		}
		params += strings.Join(collLits, ", ")
	}
	one := fmt.Sprintf("insert into %s (%s) values (%s)", table, columnize(allCols), params)

	bindings := make([]interface{}, 0, len(rows)*len(columns))
	for _, r := range rows {
		for _, c := range columns {
			bindings = append(bindings, r[c])
		}
	}

	if len(rows) == 1 {
		return one, bindings, nil
	}
	stmts := make([]string, len(rows))
	for i := range stmts {
		stmts[i] = one
	}
	return "begin batch " + strings.Join(stmts, "; ") + "; apply batch", bindings, nil
}

func (g *Grammar) compileUpdateCollections(q *Query) (string, error) {
	parts := make([]string, len(q.UpdateCollections))
	for i := range q.UpdateCollections {
		s, err := q.UpdateCollections[i].assignment()
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (g *Grammar) CompileUpdate(q *Query, values map[string]interface{}) (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	columns := sortedKeys(values)
	sets := make([]string, len(columns))
	bindings := make([]interface{}, 0, len(columns)+len(q.Wheres))
	for i, c := range columns {
		sets[i] = wrapValue(c) + " = ?"
		bindings = append(bindings, values[c])
	}
	cols := strings.Join(sets, ", ")

	colls, err := g.compileUpdateCollections(q)
	if err != nil {
		return "", nil, err
	}
	if colls != "" && cols != "" {
		colls = ", " + colls
	}
	if cols == "" && colls == "" {
		return "", nil, invalidArgument("CompileUpdate", "nothing to update")
	}

	where, err := g.compileWheres(q)
	if err != nil {
		return "", nil, err
	}
	stmt := concatenate([]string{
		"update " + g.WrapTable(q.From) + " set " + cols + colls,
		where,
	})
	return stmt, append(bindings, q.WhereBindings()...), nil
}

func (g *Grammar) CompileDelete(q *Query) (string, []interface{}, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	where, err := g.compileWheres(q)
	if err != nil {
		return "", nil, err
	}
	return concatenate([]string{"delete from " + g.WrapTable(q.From), where}), q.WhereBindings(), nil
}

func (g *Grammar) CompileTruncate(q *Query) string {
	return "truncate " + g.WrapTable(q.From)
}

// the store has no row locks
func (g *Grammar) CompileLock(q *Query, lock bool) string {
	return ""
}

/*
Substitute inlines bindings into a compiled statement, for dry runs and logs.
Placeholders inside string literals and quoted identifiers are left alone.
*/
func (g *Grammar) Substitute(stmt string, bindings []interface{}) (string, error) {
	var b strings.Builder
	// the quote currently open, 0 outside quotes
	var quote rune
	n := 0
	for _, r := range stmt {
		switch {
		case r == '\'' || r == '"':
			if quote == 0 {
				quote = r
			} else if quote == r {
				quote = 0
			}
		case r == '?' && quote == 0:
			if n >= len(bindings) {
				return "", invalidArgument("Substitute", "statement has more placeholders than bindings")
			}
			l, err := bindingLiteral(bindings[n])
			if err != nil {
				return "", err
			}
			b.WriteString(l)
			n++
			continue
		}
		b.WriteRune(r)
	}
	if n != len(bindings) {
		return "", invalidArgument("Substitute", "%d bindings given for %d placeholders", len(bindings), n)
	}
	return b.String(), nil
}
