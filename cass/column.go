package cass

import (
	"strings"
)

// ColumnDefinition is owned by the Blueprint that declared it.
type ColumnDefinition struct {
	Name string
	Type ColumnType
	// element types: 1 for list and set, 2 for map, n for tuple
	Elems    []ColumnType
	Frozen   bool
	IsStatic bool
	// the column already exists, only its index markers are applied
	Changed bool

	bp *Blueprint
}

func typeKeyword(t ColumnType) string {
	if t == TypeText {
		return string(TypeVarchar)
	}
	return string(t)
}

func elemList(elems []ColumnType) string {
	s := make([]string, len(elems))
	for i := range elems {
		s[i] = typeKeyword(elems[i])
	}
	return strings.Join(s, ", ")
}

// TypeString renders the declared type, e.g. map<varchar, int> or frozen<list<int>>.
func (c *ColumnDefinition) TypeString() string {
	return renderType(c.Type, c.Elems, c.Frozen)
}

func renderType(t ColumnType, elems []ColumnType, frozen bool) string {
	s := typeKeyword(t)
	if len(elems) > 0 {
		s += "<" + elemList(elems) + ">"
	}
	if frozen {
		s = "frozen<" + s + ">"
	}
	return s
}

func (c *ColumnDefinition) validate() error {
	const op = "AddColumn"
	if c.Name == "" {
		return invalidArgument(op, "column name is empty")
	}
	if _, ok := typeKeywords[string(c.Type)]; !ok {
		return invalidArgument(op, "column %s: unknown type %q", c.Name, c.Type)
	}
	for _, e := range c.Elems {
		if !e.IsScalar() {
			return invalidArgument(op, "column %s: element type %q is not a scalar type", c.Name, e)
		}
	}
	n := len(c.Elems)
	switch c.Type {
	case TypeList, TypeSet:
		if n != 1 {
			return invalidArgument(op, "column %s: %s takes exactly one element type", c.Name, c.Type)
		}
	case TypeMap:
		if n != 2 {
			return invalidArgument(op, "column %s: map takes a key and a value type", c.Name)
		}
	case TypeTuple:
		if n == 0 {
			return invalidArgument(op, "column %s: tuple takes at least one element type", c.Name)
		}
	case TypeFrozen:
		return invalidArgument(op, "column %s: frozen needs an inner collection or tuple type", c.Name)
	default:
		if n != 0 {
			return invalidArgument(op, "column %s: %s does not take element types", c.Name, c.Type)
		}
	}
	if c.Frozen && !c.Type.IsCollection() && c.Type != TypeTuple {
		return invalidArgument(op, "column %s: only collections and tuples can be frozen", c.Name)
	}
	return nil
}

/*
	fluent role markers. They are recorded on the blueprint in declaration order
	and folded into key / index commands when the blueprint is compiled.
*/

func (c *ColumnDefinition) mark(kind markerKind, on bool, value ...string) *ColumnDefinition {
	m := columnMarker{column: c, kind: kind, on: on}
	if len(value) > 0 {
		m.value = value[0]
	}
	c.bp.markers = append(c.bp.markers, m)
	return c
}

// Partition makes the column part of the partition key. An optional name labels the key.
func (c *ColumnDefinition) Partition(name ...string) *ColumnDefinition {
	return c.mark(markPartition, true, name...)
}

// Primary is an alias of Partition.
func (c *ColumnDefinition) Primary(name ...string) *ColumnDefinition {
	return c.mark(markPrimary, true, name...)
}

// Clustering makes the column a clustering column, order is ASC (default) or DESC.
func (c *ColumnDefinition) Clustering(order ...string) *ColumnDefinition {
	return c.mark(markClustering, true, order...)
}

func (c *ColumnDefinition) Index(name ...string) *ColumnDefinition {
	return c.mark(markIndex, true, name...)
}

// NoIndex drops the conventional index of a changed column.
func (c *ColumnDefinition) NoIndex() *ColumnDefinition {
	return c.mark(markIndex, false)
}

func (c *ColumnDefinition) Unique(name ...string) *ColumnDefinition {
	return c.mark(markUnique, true, name...)
}

func (c *ColumnDefinition) FullText(name ...string) *ColumnDefinition {
	return c.mark(markFullText, true, name...)
}

func (c *ColumnDefinition) SpatialIndex(name ...string) *ColumnDefinition {
	return c.mark(markSpatial, true, name...)
}

func (c *ColumnDefinition) Static() *ColumnDefinition {
	c.IsStatic = true
	return c
}

func (c *ColumnDefinition) Change() *ColumnDefinition {
	c.Changed = true
	return c
}

/*
ParseColumnType reads a type as the store reports it in system_schema
(or as written in yaml definitions): int, set<text>, map<text, int>,
frozen<list<int>>, tuple<int, text>.
*/
func ParseColumnType(s string) (ColumnType, []ColumnType, bool, error) {
	const op = "ParseColumnType"
	s = strings.ToLower(strings.Replace(strings.TrimSpace(s), " ", "", -1))
	frozen := false
	if strings.HasPrefix(s, "frozen<") && strings.HasSuffix(s, ">") {
		frozen = true
		s = s[len("frozen<") : len(s)-1]
	}
	name, rest := s, ""
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return "", nil, false, invalidArgument(op, "malformed type %q", s)
		}
		name, rest = s[:i], s[i+1:len(s)-1]
	}
	t, ok := LookupType(name)
	if !ok {
		return "", nil, false, invalidArgument(op, "unknown type %q", name)
	}
	var elems []ColumnType
	if rest != "" {
		if strings.ContainsAny(rest, "<>") {
			return "", nil, false, invalidArgument(op, "nested collection types are not supported: %q", s)
		}
		for _, e := range strings.Split(rest, ",") {
			et, ok := LookupType(e)
			if !ok {
				return "", nil, false, invalidArgument(op, "unknown element type %q", e)
			}
			elems = append(elems, et)
		}
	}
	c := ColumnDefinition{Name: "parsed", Type: t, Elems: elems, Frozen: frozen}
	if err := c.validate(); err != nil {
		return "", nil, false, invalidArgument(op, "invalid type %q", s)
	}
	return t, elems, frozen, nil
}

// NormalizeType renders a raw type string in its canonical dialect spelling.
func NormalizeType(s string) (string, error) {
	t, elems, frozen, err := ParseColumnType(s)
	if err != nil {
		return "", err
	}
	return renderType(t, elems, frozen), nil
}
