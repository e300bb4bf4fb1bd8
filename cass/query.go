package cass

import "strings"

type WhereType int

const (
	WhereBasic WhereType = iota
	WhereIn
	WhereContains
	WhereContainsKey
	WhereBetween
	WhereBetweenColumns
	WhereNotIn
	WhereNotInRaw
	WhereNull
	WhereNotNull
	WhereLike
)

// Where is a single predicate clause.
type Where struct {
	Type     WhereType
	Column   string
	Operator string
	Value    interface{}
	Values   []interface{}
	// "and" or "or"
	Boolean string
}

type Order struct {
	Column    string
	Direction string
}

type Aggregate struct {
	Function string
	Columns  []string
}

/*
Query is the intent handed to the Grammar. The fluent helpers only record
what was asked for, the Grammar decides whether the store can express it.
The first error raised while building (a bad collection operation) is kept
and returned by every compile/execute call.
*/
type Query struct {
	From              string
	Columns           []string
	Wheres            []Where
	Orders            []Order
	Limit             int
	Offset            int
	Filtering         bool
	Aggregate         *Aggregate
	Consistency       Consistency
	InsertCollections []CollectionOp
	UpdateCollections []CollectionOp

	db  *DB
	err error
}

func NewQuery(table string) *Query {
	return &Query{From: table}
}

// clone copies the intent so derived queries (count, first) leave q untouched.
func (q *Query) clone() *Query {
	c := *q
	c.Columns = append([]string(nil), q.Columns...)
	c.Wheres = append([]Where(nil), q.Wheres...)
	c.Orders = append([]Order(nil), q.Orders...)
	c.InsertCollections = append([]CollectionOp(nil), q.InsertCollections...)
	c.UpdateCollections = append([]CollectionOp(nil), q.UpdateCollections...)
	if q.Aggregate != nil {
		a := *q.Aggregate
		a.Columns = append([]string(nil), q.Aggregate.Columns...)
		c.Aggregate = &a
	}
	return &c
}

func (q *Query) Err() error {
	return q.err
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

func (q *Query) Select(columns ...string) *Query {
	q.Columns = append(q.Columns, columns...)
	return q
}

func (q *Query) addWhere(w Where) *Query {
	if w.Boolean == "" {
		w.Boolean = "and"
	}
	q.Wheres = append(q.Wheres, w)
	return q
}

/*
Where adds a basic comparison. With two arguments the operator is "=":

	q.Where("id", 5)
	q.Where("created_at", ">", t)
*/
func (q *Query) Where(column string, args ...interface{}) *Query {
	op, v := "=", interface{}(nil)
	switch len(args) {
	case 1:
		v = args[0]
	case 2:
		s, ok := args[0].(string)
		if !ok {
			return q.fail(invalidArgument("Where", "operator should be a string, got %T", args[0]))
		}
		op, v = strings.ToLower(strings.TrimSpace(s)), args[1]
	default:
		return q.fail(invalidArgument("Where", "expected value or operator and value, got %d arguments", len(args)))
	}
	return q.addWhere(Where{Type: WhereBasic, Column: column, Operator: op, Value: v})
}

func (q *Query) OrWhere(column string, args ...interface{}) *Query {
	q.Where(column, args...)
	if n := len(q.Wheres); n > 0 && q.err == nil {
		q.Wheres[n-1].Boolean = "or"
	}
	return q
}

func (q *Query) WhereIn(column string, values ...interface{}) *Query {
	return q.addWhere(Where{Type: WhereIn, Column: column, Values: values})
}

// membership test on set and list columns
func (q *Query) WhereContains(column string, value interface{}) *Query {
	return q.addWhere(Where{Type: WhereContains, Column: column, Value: value})
}

// key existence test on map columns
func (q *Query) WhereContainsKey(column string, key interface{}) *Query {
	return q.addWhere(Where{Type: WhereContainsKey, Column: column, Value: key})
}

func (q *Query) WhereBetween(column string, from, to interface{}) *Query {
	return q.addWhere(Where{Type: WhereBetween, Column: column, Values: []interface{}{from, to}})
}

func (q *Query) WhereBetweenColumns(column, from, to string) *Query {
	return q.addWhere(Where{Type: WhereBetweenColumns, Column: column, Values: []interface{}{from, to}})
}

func (q *Query) WhereNotIn(column string, values ...interface{}) *Query {
	return q.addWhere(Where{Type: WhereNotIn, Column: column, Values: values})
}

func (q *Query) WhereIntegerNotInRaw(column string, values ...int64) *Query {
	vv := make([]interface{}, len(values))
	for i := range values {
		vv[i] = values[i]
	}
	return q.addWhere(Where{Type: WhereNotInRaw, Column: column, Values: vv})
}

func (q *Query) WhereNull(column string) *Query {
	return q.addWhere(Where{Type: WhereNull, Column: column})
}

func (q *Query) WhereNotNull(column string) *Query {
	return q.addWhere(Where{Type: WhereNotNull, Column: column})
}

func (q *Query) WhereLike(column string, pattern string) *Query {
	return q.addWhere(Where{Type: WhereLike, Column: column, Value: pattern})
}

func (q *Query) OrderBy(column string, direction ...string) *Query {
	d := "asc"
	if len(direction) > 0 && direction[0] != "" {
		d = strings.ToLower(direction[0])
	}
	q.Orders = append(q.Orders, Order{Column: column, Direction: d})
	return q
}

func (q *Query) OrderByDesc(column string) *Query {
	return q.OrderBy(column, "desc")
}

func (q *Query) Take(n int) *Query {
	q.Limit = n
	return q
}

func (q *Query) Skip(n int) *Query {
	q.Offset = n
	return q
}

// AllowFiltering permits the store to scan beyond indexed access paths.
func (q *Query) AllowFiltering() *Query {
	q.Filtering = true
	return q
}

func (q *Query) SetConsistency(c Consistency) *Query {
	if !c.Valid() {
		return q.fail(invalidArgument("SetConsistency", "unknown consistency level %q", c))
	}
	q.Consistency = c
	return q
}

// InsertCollection attaches a collection column value to the next insert.
func (q *Query) InsertCollection(kind CollectionKind, column string, value interface{}) *Query {
	op := CollectionOp{Kind: kind, Column: column, Value: value}
	if err := op.validate("InsertCollection"); err != nil {
		return q.fail(err)
	}
	q.InsertCollections = append(q.InsertCollections, op)
	return q
}

// UpdateCollection attaches a collection mutation to the next update.
func (q *Query) UpdateCollection(kind CollectionKind, column string, verb CollectionVerb, value interface{}) *Query {
	op := CollectionOp{Kind: kind, Column: column, Verb: verb, Value: value}
	if err := op.validate("UpdateCollection"); err != nil {
		return q.fail(err)
	}
	q.UpdateCollections = append(q.UpdateCollections, op)
	return q
}

// SelectAggregate turns the query into an aggregate select (count, min, max, sum, avg).
func (q *Query) SelectAggregate(fn string, columns ...string) *Query {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	q.Aggregate = &Aggregate{Function: fn, Columns: columns}
	return q
}

// bindings of the where clauses, in clause order
func (q *Query) WhereBindings() []interface{} {
	ret := make([]interface{}, 0, len(q.Wheres))
	for i := range q.Wheres {
		w := &q.Wheres[i]
		switch w.Type {
		case WhereBasic, WhereContains, WhereContainsKey, WhereLike:
			ret = append(ret, w.Value)
		case WhereIn, WhereNotIn, WhereBetween:
			ret = append(ret, w.Values...)
		}
	}
	return ret
}
