package cass

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SchemaGrammar renders blueprints and catalog lookups as DDL / system_schema statements.
type SchemaGrammar struct {
	keyspace string
}

func NewSchemaGrammar(c *Config) *SchemaGrammar {
	return &SchemaGrammar{keyspace: c.keyspace()}
}

func (g *SchemaGrammar) WrapTable(table string) string {
	return wrapTable(g.keyspace, table)
}

// keyspace the table lives in, empty when neither qualified nor configured
func (g *SchemaGrammar) keyspaceOf(table string) string {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i]
	}
	return g.keyspace
}

func (g *SchemaGrammar) wrapIndex(table, name string) string {
	if ks := g.keyspaceOf(table); ks != "" {
		return wrapValue(ks) + "." + wrapValue(name)
	}
	return wrapValue(name)
}

func (g *SchemaGrammar) compileBlueprint(b *Blueprint) ([]string, error) {
	var ret []string
	if b.creating {
		s, err := g.CompileCreate(b)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	} else {
		ret = append(ret, g.compileAdd(b)...)
	}
	for i := range b.commands {
		s, err := g.compileCommand(b, &b.commands[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func (g *SchemaGrammar) compileCommand(b *Blueprint, c *command) (string, error) {
	t := g.WrapTable(b.Table)
	switch c.kind {
	case cmdDrop:
		return "drop table " + t, nil
	case cmdDropIfExists:
		return "drop table if exists " + t, nil
	case cmdDropColumn:
		if len(c.columns) == 1 {
			return fmt.Sprintf("alter table %s drop %s", t, wrapValue(c.columns[0])), nil
		}
		return fmt.Sprintf("alter table %s drop (%s)", t, columnize(c.columns)), nil
	case cmdRenameColumn:
		return fmt.Sprintf("alter table %s rename %s to %s",
			t, wrapValue(c.columns[0]), wrapValue(c.to)), nil
	case cmdIndex:
		return fmt.Sprintf("create index %s on %s (%s)",
			wrapValue(c.name), t, wrapValue(c.columns[0])), nil
	case cmdSASIIndex:
		return fmt.Sprintf("create custom index %s on %s (%s) using %s",
			wrapValue(c.name), t, wrapValue(c.columns[0]), QuoteString(sasiClass)), nil
	case cmdDropIndex:
		return "drop index " + g.wrapIndex(b.Table, c.name), nil
	case cmdDropIndexIfExists:
		return "drop index if exists " + g.wrapIndex(b.Table, c.name), nil
	}
	return "", invalidState("compileCommand", "unknown blueprint command %d", c.kind)
}

func columnDef(c *ColumnDefinition) string {
	s := wrapValue(c.Name) + " " + c.TypeString()
	if c.IsStatic {
		s += " static"
	}
	return s
}

func (g *SchemaGrammar) compileAdd(b *Blueprint) []string {
	var ret []string
	t := g.WrapTable(b.Table)
	for _, c := range b.columns {
		if c.Changed {
			continue
		}
		ret = append(ret, fmt.Sprintf("alter table %s add %s", t, columnDef(c)))
	}
	return ret
}

func (g *SchemaGrammar) validateCreate(b *Blueprint) error {
	const op = "Create"
	part := b.PartitionKey()
	clust := b.ClusteringKey()
	if len(part) == 0 {
		return unsupported(op, "table "+b.Table+" needs at least one partition key column")
	}

	keys := make(map[string]bool, len(part)+len(clust))
	key := func(name string) error {
		c := b.column(name)
		if c == nil {
			return invalidArgument(op, "key column %s is not declared", name)
		}
		if keys[name] {
			return invalidArgument(op, "column %s is used twice in the primary key", name)
		}
		keys[name] = true
		if c.Type.IsCollection() && !c.Frozen {
			return invalidArgument(op, "collection column %s must be frozen to be part of the primary key", name)
		}
		if c.Type == TypeCounter {
			return invalidArgument(op, "counter column %s cannot be part of the primary key", name)
		}
		if c.IsStatic {
			return invalidArgument(op, "static column %s cannot be part of the primary key", name)
		}
		return nil
	}
	for _, p := range part {
		if err := key(p); err != nil {
			return err
		}
	}
	for i := range clust {
		if err := key(clust[i].Name); err != nil {
			return err
		}
	}

	counters, regular := 0, 0
	for _, c := range b.columns {
		if keys[c.Name] {
			continue
		}
		if c.IsStatic && len(clust) == 0 {
			return invalidArgument(op, "static column %s requires clustering columns", c.Name)
		}
		if c.Type == TypeCounter {
			counters++
		} else {
			regular++
		}
	}
	if counters > 0 && regular > 0 {
		return invalidArgument(op, "table %s mixes counter and non counter columns", b.Table)
	}
	return nil
}

// CompileCreate renders the create table statement of a resolved blueprint.
func (g *SchemaGrammar) CompileCreate(b *Blueprint) (string, error) {
	if err := g.validateCreate(b); err != nil {
		return "", err
	}
	defs := make([]string, 0, len(b.columns)+1)
	for _, c := range b.columns {
		defs = append(defs, columnDef(c))
	}
	clust := b.ClusteringKey()
	defs = append(defs, primaryKeyDef(b.PartitionKey(), clust))
	return "create table " + g.WrapTable(b.Table) +
		" (" + strings.Join(defs, ", ") + ")" +
		clusteringOrder(clust), nil
}

func primaryKeyDef(part []string, clust []ClusteringColumn) string {
	s := "primary key ((" + columnize(part) + ")"
	for _, c := range clust {
		s += ", " + wrapValue(c.Name)
	}
	return s + ")"
}

func clusteringOrder(clust []ClusteringColumn) string {
	if len(clust) == 0 {
		return ""
	}
	o := make([]string, len(clust))
	for i := range clust {
		ord := clust[i].Order
		if ord == "" {
			ord = "ASC"
		}
		o[i] = wrapValue(clust[i].Name) + " " + ord
	}
	return " with clustering order by (" + strings.Join(o, ", ") + ")"
}

/*
	keyspaces
*/

// Replication holds the replication map of a keyspace. "class" is always rendered first.
type Replication map[string]string

func DefaultReplication() Replication {
	return Replication{"class": "SimpleStrategy", "replication_factor": "1"}
}

func (r Replication) String() string {
	if len(r) == 0 {
		r = DefaultReplication()
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		if k != "class" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var parts []string
	if c, ok := r["class"]; ok {
		parts = append(parts, QuoteString("class")+": "+QuoteString(c))
	}
	for _, k := range keys {
		v := r[k]
		if _, err := strconv.Atoi(v); err != nil {
			v = QuoteString(v)
		}
		parts = append(parts, QuoteString(k)+": "+v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (g *SchemaGrammar) CompileCreateKeyspace(name string, ifNotExists bool, r Replication) (string, error) {
	if name == "" {
		return "", invalidArgument("CreateKeyspace", "keyspace name is empty")
	}
	s := "create keyspace "
	if ifNotExists {
		s += "if not exists "
	}
	return s + wrapValue(name) + " with replication = " + r.String(), nil
}

func (g *SchemaGrammar) CompileDropKeyspace(name string, ifExists bool) (string, error) {
	if name == "" {
		return "", invalidArgument("DropKeyspace", "keyspace name is empty")
	}
	s := "drop keyspace "
	if ifExists {
		s += "if exists "
	}
	return s + wrapValue(name), nil
}

func (g *SchemaGrammar) CompileDropTableIfExists(keyspace, table string) string {
	return "drop table if exists " + wrapTable(keyspace, table)
}

/*
	system catalog lookups
*/

func (g *SchemaGrammar) CompileTables(keyspace string) string {
	return "select * from system_schema.tables where keyspace_name = " + QuoteString(keyspace)
}

func (g *SchemaGrammar) CompileViews(keyspace string) string {
	return "select * from system_schema.views where keyspace_name = " + QuoteString(keyspace)
}

func (g *SchemaGrammar) CompileColumns(keyspace, table string) string {
	return fmt.Sprintf(
		"select * from system_schema.columns where keyspace_name = %s and table_name = %s",
		QuoteString(keyspace), QuoteString(table))
}

func (g *SchemaGrammar) CompileIndexes(keyspace, table string) string {
	return fmt.Sprintf(
		"select * from system_schema.indexes where keyspace_name = %s and table_name = %s",
		QuoteString(keyspace), QuoteString(table))
}

/*
	materialized views
*/

func pkFromModel(pk *PrimaryKey) ([]string, []ClusteringColumn) {
	if pk == nil {
		return nil, nil
	}
	part := make([]PKPartitionColumn, len(pk.PartitionColumns))
	copy(part, pk.PartitionColumns)
	sort.SliceStable(part, func(i, j int) bool { return part[i].Position < part[j].Position })
	clust := make([]PKClusteringColumn, len(pk.ClusteringColumns))
	copy(clust, pk.ClusteringColumns)
	sort.SliceStable(clust, func(i, j int) bool { return clust[i].Position < clust[j].Position })

	names := make([]string, len(part))
	for i := range part {
		names[i] = part[i].Name
	}
	cc := make([]ClusteringColumn, len(clust))
	for i := range clust {
		cc[i] = ClusteringColumn{Name: clust[i].Name, Order: strings.ToUpper(clust[i].Order)}
	}
	return names, cc
}

func (g *SchemaGrammar) CompileCreateView(m *MaterializedView) (string, error) {
	const op = "CreateView"
	if m.Name == "" || m.Base == "" {
		return "", invalidArgument(op, "view and base table names are required")
	}
	part, clust := pkFromModel(m.PrimaryKey)
	if len(part) == 0 {
		return "", unsupported(op, "view "+m.Name+" needs at least one partition key column")
	}
	for i := range clust {
		if clust[i].Order == "" {
			clust[i].Order = "ASC"
		}
		if _, err := normalizeOrder(op, clust[i].Order); err != nil {
			return "", err
		}
	}
	cols := "*"
	if len(m.Columns) > 0 {
		names := make([]string, 0, len(m.Columns))
		for k := range m.Columns {
			names = append(names, k)
		}
		sort.Strings(names)
		cols = columnize(names)
	}
	where := strings.TrimSpace(m.WhereClause)
	if where == "" {
		// every key column of a view must be filtered
		w := make([]string, 0, len(part)+len(clust))
		for _, p := range part {
			w = append(w, wrapValue(p)+" is not null")
		}
		for _, c := range clust {
			w = append(w, wrapValue(c.Name)+" is not null")
		}
		where = strings.Join(w, " and ")
	}
	return "create materialized view " + g.WrapTable(m.Name) +
		" as select " + cols + " from " + g.WrapTable(m.Base) +
		" where " + where + " " + primaryKeyDef(part, clust) +
		clusteringOrder(clust), nil
}

func (g *SchemaGrammar) CompileDropView(name string, ifExists bool) string {
	s := "drop materialized view "
	if ifExists {
		s += "if exists "
	}
	return s + g.WrapTable(name)
}
