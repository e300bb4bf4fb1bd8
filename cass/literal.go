package cass

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocql/gocql"
)

// date layout used for timestamp literals
const DateFormat = "2006-01-02T15:04:05-0700"

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// QuoteString renders a string literal, doubling single quotes.
// Several values are quoted element-wise and joined.
func QuoteString(values ...string) string {
	q := make([]string, len(values))
	for i := range values {
		q[i] = "'" + strings.Replace(values[i], "'", "''", -1) + "'"
	}
	return strings.Join(q, ", ")
}

/*
identifiers are left alone when the store would read them back unchanged
(lower case, no special characters). Anything else gets double quoted.
*/
func wrapValue(v string) string {
	if v == "*" || plainIdent.MatchString(v) {
		return v
	}
	return `"` + strings.Replace(v, `"`, `""`, -1) + `"`
}

func wrapTable(keyspace, table string) string {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return wrapValue(table[:i]) + "." + wrapValue(table[i+1:])
	}
	if keyspace != "" {
		return wrapValue(keyspace) + "." + wrapValue(table)
	}
	return wrapValue(table)
}

func columnize(cols []string) string {
	w := make([]string, len(cols))
	for i := range cols {
		w[i] = wrapValue(cols[i])
	}
	return strings.Join(w, ", ")
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

/*
scalarLiteral renders one non-collection value the way the dialect spells it.
Collections are rejected, this core does not nest them.
*/
func scalarLiteral(op string, v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "null", nil
	case string:
		return QuoteString(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.FormatInt(int64(x), 10), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []byte:
		return "0x" + hex.EncodeToString(x), nil
	case gocql.UUID:
		return x.String(), nil
	case time.Time:
		return QuoteString(x.Format(DateFormat)), nil
	}
	return "", invalidArgument(op, "unsupported literal type %T", v)
}

type CollectionKind string

const (
	CollectionSet  CollectionKind = "set"
	CollectionList CollectionKind = "list"
	CollectionMap  CollectionKind = "map"
)

func (k CollectionKind) valid() bool {
	return k == CollectionSet || k == CollectionList || k == CollectionMap
}

type CollectionVerb string

const (
	// plain assignment, col = literal
	VerbReplace CollectionVerb = ""
	VerbAdd     CollectionVerb = "add"
	VerbRemove  CollectionVerb = "remove"
	VerbAppend  CollectionVerb = "append"
	VerbPrepend CollectionVerb = "prepend"
	VerbPut     CollectionVerb = "put"
)

var collectionVerbs = map[CollectionKind]map[CollectionVerb]struct{}{
	CollectionSet:  {VerbReplace: {}, VerbAdd: {}, VerbRemove: {}},
	CollectionList: {VerbReplace: {}, VerbAppend: {}, VerbPrepend: {}, VerbRemove: {}},
	CollectionMap:  {VerbReplace: {}, VerbPut: {}, VerbRemove: {}},
}

// CollectionOp is a pending collection column value of an insert or update.
type CollectionOp struct {
	Kind   CollectionKind
	Column string
	Verb   CollectionVerb
	Value  interface{}
}

func (op *CollectionOp) validate(name string) error {
	if !op.Kind.valid() {
		return invalidArgument(name, "invalid collection type %q", op.Kind)
	}
	if _, ok := collectionVerbs[op.Kind][op.Verb]; !ok {
		return invalidArgument(name, "operation %q is not available for %s columns", op.Verb, op.Kind)
	}
	if op.Column == "" {
		return invalidArgument(name, "collection column name is empty")
	}
	return nil
}

// elements of a slice, array or (key ordered) map
func sequence(op string, value interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := value.([]byte); ok {
			break
		}
		ret := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ret[i] = rv.Index(i).Interface()
		}
		return ret, nil
	case reflect.Map:
		entries, err := mapEntries(op, rv, false)
		if err != nil {
			return nil, err
		}
		ret := make([]interface{}, len(entries))
		for i := range entries {
			ret[i] = rv.MapIndex(entries[i].k).Interface()
		}
		return ret, nil
	}
	return nil, invalidArgument(op, "collection values should be a slice or a map, got %T", value)
}

type mapEntry struct {
	k       reflect.Value
	literal string
}

func numericValue(v interface{}) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

// numeric keys in value order, everything else in literal order
func mapEntries(op string, rv reflect.Value, strictKeys bool) ([]mapEntry, error) {
	ret := make([]mapEntry, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		kv := k.Interface()
		if strictKeys && !isNumeric(kv) {
			if _, ok := kv.(string); !ok {
				return nil, invalidArgument(op, "map keys should be numeric or string, got %T", kv)
			}
		}
		l, err := scalarLiteral(op, kv)
		if err != nil {
			return nil, err
		}
		ret = append(ret, mapEntry{k, l})
	}
	sort.Slice(ret, func(i, j int) bool {
		ki, kj := ret[i].k.Interface(), ret[j].k.Interface()
		if isNumeric(ki) && isNumeric(kj) {
			if vi, vj := numericValue(ki), numericValue(kj); vi != vj {
				return vi < vj
			}
		}
		return ret[i].literal < ret[j].literal
	})
	return ret, nil
}

/*
CollectionString renders the comma joined body of a collection literal
(without the surrounding brackets).
*/
func CollectionString(kind CollectionKind, value interface{}) (string, error) {
	const op = "CollectionString"
	switch kind {
	case CollectionSet, CollectionList:
		items, err := sequence(op, value)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(items))
		for i := range items {
			if parts[i], err = scalarLiteral(op, items[i]); err != nil {
				return "", err
			}
		}
		return strings.Join(parts, ", "), nil
	case CollectionMap:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Map {
			return "", invalidArgument(op, "map values should be a map, got %T", value)
		}
		entries, err := mapEntries(op, rv, true)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(entries))
		for i := range entries {
			v := rv.MapIndex(entries[i].k).Interface()
			if _, ok := v.(string); !ok && !isNumeric(v) {
				return "", invalidArgument(op, "map values should be numeric or string, got %T", v)
			}
			l, _ := scalarLiteral(op, v)
			parts[i] = entries[i].literal + ":" + l
		}
		return strings.Join(parts, ", "), nil
	}
	return "", invalidArgument(op, "invalid collection type %q", kind)
}

// CollectionLiteral renders a complete set, list or map literal.
func CollectionLiteral(kind CollectionKind, value interface{}) (string, error) {
	s, err := CollectionString(kind, value)
	if err != nil {
		return "", err
	}
	if kind == CollectionList {
		return "[" + s + "]", nil
	}
	return "{" + s + "}", nil
}

/*
assignment renders the SET fragment of one collection update:

	col = literal           replace
	col = col + literal     add, append, put
	col = col - literal     remove (map keys are removed as a set)
	col = literal + col     prepend
*/
func (op *CollectionOp) assignment() (string, error) {
	const name = "CollectionAssignment"
	if err := op.validate(name); err != nil {
		return "", err
	}
	col := wrapValue(op.Column)

	var lit string
	var err error
	if op.Kind == CollectionMap && op.Verb == VerbRemove {
		var keys []interface{}
		rv := reflect.ValueOf(op.Value)
		if rv.Kind() == reflect.Map {
			entries, err := mapEntries(name, rv, true)
			if err != nil {
				return "", err
			}
			for i := range entries {
				keys = append(keys, entries[i].k.Interface())
			}
		} else if keys, err = sequence(name, op.Value); err != nil {
			return "", err
		}
		lit, err = CollectionLiteral(CollectionSet, keys)
	} else {
		lit, err = CollectionLiteral(op.Kind, op.Value)
	}
	if err != nil {
		return "", err
	}

	switch op.Verb {
	case VerbReplace:
		return fmt.Sprintf("%s = %s", col, lit), nil
	case VerbRemove:
		return fmt.Sprintf("%s = %s - %s", col, col, lit), nil
	case VerbPrepend:
		return fmt.Sprintf("%s = %s + %s", col, lit, col), nil
	default:
		return fmt.Sprintf("%s = %s + %s", col, col, lit), nil
	}
}

// literal of any bound value, collections included (used for raw rendering)
func bindingLiteral(v interface{}) (string, error) {
	if s, err := scalarLiteral("Substitute", v); err == nil {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return CollectionLiteral(CollectionMap, v)
	case reflect.Slice, reflect.Array:
		return CollectionLiteral(CollectionList, v)
	}
	return "", invalidArgument("Substitute", "cannot render binding of type %T", v)
}
