package cass

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Session is the execution collaborator: it sends one statement and returns raw rows.
type Session interface {
	Exec(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error)
	// keyspace the session was opened for, may be empty
	Keyspace() string
	SetConsistency(c Consistency)
	SetIgnoreWarnings(ignore bool)
}

/*
Builder runs schema operations against a Session.
The consistency and warning policy are re-applied to the session right before
every statement. A Builder is not safe for concurrent use.
*/
type Builder struct {
	sess        Session
	grammar     *SchemaGrammar
	cfg         Config
	consistency Consistency
	replication Replication
}

func NewBuilder(sess Session, c *Config) (*Builder, error) {
	if sess == nil {
		return nil, invalidState("NewBuilder", "schema builder needs a session")
	}
	b := &Builder{sess: sess}
	if c != nil {
		b.cfg = *c
	}
	if b.cfg.Keyspace == "" {
		b.cfg.Keyspace = sess.Keyspace()
	}
	if !b.cfg.DefaultConsistency.Valid() && b.cfg.DefaultConsistency != "" {
		return nil, invalidArgument("NewBuilder", "unknown consistency level %q", b.cfg.DefaultConsistency)
	}
	b.grammar = NewSchemaGrammar(&b.cfg)
	return b, nil
}

func (b *Builder) Grammar() *SchemaGrammar {
	return b.grammar
}

// SetConsistency overrides the configured default for all following statements.
func (b *Builder) SetConsistency(c Consistency) error {
	if !c.Valid() {
		return invalidArgument("SetConsistency", "unknown consistency level %q", c)
	}
	b.consistency = c
	return nil
}

// Consistency is the level the next statement will run with.
func (b *Builder) Consistency() Consistency {
	return b.consistency.Or(b.cfg.consistency())
}

func (b *Builder) IgnoreWarnings(ignore bool) {
	b.cfg.IgnoreWarnings = ignore
}

// SetReplication sets the replication map used by CreateKeyspace.
func (b *Builder) SetReplication(r Replication) {
	b.replication = r
}

func (b *Builder) exec(ctx context.Context, stmt string) ([]map[string]interface{}, error) {
	b.sess.SetConsistency(b.Consistency())
	b.sess.SetIgnoreWarnings(b.cfg.IgnoreWarnings)
	rows, err := b.sess.Exec(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return rows, nil
}

// GetCurrentSchemaName returns the keyspace unqualified tables belong to.
func (b *Builder) GetCurrentSchemaName() (string, error) {
	if b.cfg.Keyspace == "" {
		return "", invalidState("GetCurrentSchemaName", "schema name is required, configure a keyspace")
	}
	return b.cfg.Keyspace, nil
}

/*
ParseSchemaAndTable splits "ks.table". Unqualified names get the current keyspace.
*/
func (b *Builder) ParseSchemaAndTable(ref string) (string, string, error) {
	parts := strings.Split(ref, ".")
	switch len(parts) {
	case 1:
		ks, err := b.GetCurrentSchemaName()
		if err != nil {
			return "", "", err
		}
		return ks, parts[0], nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return "", "", invalidArgument("ParseSchemaAndTable", "malformed table reference %q", ref)
		}
		return parts[0], parts[1], nil
	}
	return "", "", invalidArgument("ParseSchemaAndTable",
		"three-part reference %q is not supported, connect to keyspace %s instead", ref,
		parts[0])
}

// Build compiles the blueprint and runs its statements in order.
func (b *Builder) Build(ctx context.Context, bp *Blueprint) error {
	if !strings.Contains(bp.Table, ".") {
		if _, err := b.GetCurrentSchemaName(); err != nil {
			return err
		}
	}
	stmts, err := bp.ToStatements(b.grammar)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := b.exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) Create(ctx context.Context, table string, fn func(*Blueprint)) error {
	bp := NewCreateBlueprint(table)
	fn(bp)
	return b.Build(ctx, bp)
}

func (b *Builder) Table(ctx context.Context, table string, fn func(*Blueprint)) error {
	bp := NewBlueprint(table)
	fn(bp)
	return b.Build(ctx, bp)
}

func (b *Builder) Drop(ctx context.Context, table string) error {
	bp := NewBlueprint(table)
	bp.Drop()
	return b.Build(ctx, bp)
}

func (b *Builder) DropIfExists(ctx context.Context, table string) error {
	bp := NewBlueprint(table)
	bp.DropIfExists()
	return b.Build(ctx, bp)
}

/*
	keyspaces
*/

func (b *Builder) createKeyspace(ctx context.Context, name string, ifNotExists bool) error {
	s, err := b.grammar.CompileCreateKeyspace(name, ifNotExists, b.replication)
	if err != nil {
		return err
	}
	_, err = b.exec(ctx, s)
	return err
}

func (b *Builder) CreateKeyspace(ctx context.Context, name string) error {
	return b.createKeyspace(ctx, name, false)
}

func (b *Builder) CreateKeyspaceIfNotExists(ctx context.Context, name string) error {
	return b.createKeyspace(ctx, name, true)
}

func (b *Builder) dropKeyspace(ctx context.Context, name string, ifExists bool) error {
	s, err := b.grammar.CompileDropKeyspace(name, ifExists)
	if err != nil {
		return err
	}
	_, err = b.exec(ctx, s)
	return err
}

func (b *Builder) DropKeyspace(ctx context.Context, name string) error {
	return b.dropKeyspace(ctx, name, false)
}

func (b *Builder) DropKeyspaceIfExists(ctx context.Context, name string) error {
	return b.dropKeyspace(ctx, name, true)
}

func (b *Builder) CreateDatabase(ctx context.Context, name string) error {
	return b.CreateKeyspace(ctx, name)
}

func (b *Builder) DropDatabaseIfExists(ctx context.Context, name string) error {
	return b.DropKeyspaceIfExists(ctx, name)
}

/*
	materialized views
*/

func (b *Builder) CreateView(ctx context.Context, m *MaterializedView) error {
	s, err := b.grammar.CompileCreateView(m)
	if err != nil {
		return err
	}
	_, err = b.exec(ctx, s)
	return err
}

func (b *Builder) DropView(ctx context.Context, name string) error {
	_, err := b.exec(ctx, b.grammar.CompileDropView(name, false))
	return err
}

func (b *Builder) DropViewIfExists(ctx context.Context, name string) error {
	_, err := b.exec(ctx, b.grammar.CompileDropView(name, true))
	return err
}

/*
	introspection
*/

func rowString(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func rowInt(row map[string]interface{}, key string) int {
	switch v := row[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	}
	return 0
}

func rowBool(row map[string]interface{}, key string) bool {
	v, _ := row[key].(bool)
	return v
}

func rowStringMap(row map[string]interface{}, key string) map[string]string {
	switch v := row[key].(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		ret := make(map[string]string, len(v))
		for k := range v {
			ret[k] = fmt.Sprint(v[k])
		}
		return ret
	}
	return map[string]string{}
}

func (b *Builder) GetTables(ctx context.Context) ([]TableInfo, error) {
	ks, err := b.GetCurrentSchemaName()
	if err != nil {
		return nil, err
	}
	rows, err := b.exec(ctx, b.grammar.CompileTables(ks))
	if err != nil {
		return nil, err
	}
	ret := make([]TableInfo, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, TableInfo{
			Keyspace:          rowString(r, "keyspace_name"),
			Name:              rowString(r, "table_name"),
			Comment:           rowString(r, "comment"),
			DefaultTimeToLive: rowInt(r, "default_time_to_live"),
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

func (b *Builder) GetViews(ctx context.Context) ([]ViewInfo, error) {
	ks, err := b.GetCurrentSchemaName()
	if err != nil {
		return nil, err
	}
	rows, err := b.exec(ctx, b.grammar.CompileViews(ks))
	if err != nil {
		return nil, err
	}
	ret := make([]ViewInfo, 0, len(rows))
	for _, r := range rows {
		ret = append(ret, ViewInfo{
			Keyspace:          rowString(r, "keyspace_name"),
			Name:              rowString(r, "view_name"),
			BaseTable:         rowString(r, "base_table_name"),
			WhereClause:       rowString(r, "where_clause"),
			IncludeAllColumns: rowBool(r, "include_all_columns"),
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

var kindRank = map[string]int{
	KindPartitionKey: 0,
	KindClustering:   1,
	KindStatic:       2,
	KindRegular:      3,
}

/*
GetColumns lists the columns of a table or view: partition key columns,
then clustering columns (both by position), then static and regular columns by name.
*/
func (b *Builder) GetColumns(ctx context.Context, table string) ([]Column, error) {
	ks, t, err := b.ParseSchemaAndTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec(ctx, b.grammar.CompileColumns(ks, t))
	if err != nil {
		return nil, err
	}
	ret := make([]Column, 0, len(rows))
	for _, r := range rows {
		c := Column{
			Name:            rowString(r, "column_name"),
			Type:            rowString(r, "type"),
			Kind:            rowString(r, "kind"),
			Position:        rowInt(r, "position"),
			ClusteringOrder: strings.ToUpper(rowString(r, "clustering_order")),
		}
		if c.ClusteringOrder == "NONE" {
			c.ClusteringOrder = ""
		}
		ret = append(ret, c)
	}
	sort.SliceStable(ret, func(i, j int) bool {
		ri, rj := kindRank[ret[i].Kind], kindRank[ret[j].Kind]
		if ri != rj {
			return ri < rj
		}
		if ri < 2 {
			return ret[i].Position < ret[j].Position
		}
		return ret[i].Name < ret[j].Name
	})
	return ret, nil
}

func (b *Builder) GetIndexes(ctx context.Context, table string) ([]Index, error) {
	ks, t, err := b.ParseSchemaAndTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := b.exec(ctx, b.grammar.CompileIndexes(ks, t))
	if err != nil {
		return nil, err
	}
	ret := make([]Index, 0, len(rows))
	for _, r := range rows {
		opts := rowStringMap(r, "options")
		ret = append(ret, Index{
			Name:    rowString(r, "index_name"),
			Kind:    rowString(r, "kind"),
			Target:  opts["target"],
			Options: opts,
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

// GetPrimaryKey reads the primary key of a table or view from its columns.
func (b *Builder) GetPrimaryKey(ctx context.Context, table string) (*PrimaryKey, error) {
	cols, err := b.GetColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	return primaryKeyOf(cols), nil
}

func primaryKeyOf(cols []Column) *PrimaryKey {
	var pk PrimaryKey
	for _, c := range cols {
		switch c.Kind {
		case KindPartitionKey:
			pk.PartitionColumns = append(pk.PartitionColumns,
				PKPartitionColumn{Name: c.Name, Position: c.Position})
		case KindClustering:
			pk.ClusteringColumns = append(pk.ClusteringColumns,
				PKClusteringColumn{Name: c.Name, Position: c.Position, Order: c.ClusteringOrder})
		}
	}
	return &pk
}

// GetKeys returns the key of a table as declarations: one partition key, one declaration per clustering column.
func (b *Builder) GetKeys(ctx context.Context, table string) ([]KeyDeclaration, error) {
	pk, err := b.GetPrimaryKey(ctx, table)
	if err != nil {
		return nil, err
	}
	var ret []KeyDeclaration
	if len(pk.PartitionColumns) > 0 {
		k := KeyDeclaration{Role: KeyPartition}
		for _, c := range pk.PartitionColumns {
			k.Columns = append(k.Columns, c.Name)
		}
		ret = append(ret, k)
	}
	for _, c := range pk.ClusteringColumns {
		o := c.Order
		if o == "" {
			o = "ASC"
		}
		ret = append(ret, KeyDeclaration{Role: KeyClustering, Columns: []string{c.Name}, Order: o})
	}
	return ret, nil
}

func (b *Builder) HasTable(ctx context.Context, table string) (bool, error) {
	ks, t, err := b.ParseSchemaAndTable(table)
	if err != nil {
		return false, err
	}
	rows, err := b.exec(ctx, b.grammar.CompileTables(ks))
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		if rowString(r, "table_name") == t {
			return true, nil
		}
	}
	return false, nil
}

func (b *Builder) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := b.GetColumns(ctx, table)
	if err != nil {
		return false, err
	}
	for i := range cols {
		if strings.EqualFold(cols[i].Name, column) {
			return true, nil
		}
	}
	return false, nil
}

// DropAllTablesScript lists the drop statements for every table of the current keyspace.
func (b *Builder) DropAllTablesScript(ctx context.Context) ([]string, error) {
	tables, err := b.GetTables(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(tables))
	for _, t := range tables {
		ks := t.Keyspace
		if ks == "" {
			ks = b.cfg.Keyspace
		}
		ret = append(ret, b.grammar.CompileDropTableIfExists(ks, t.Name))
	}
	return ret, nil
}

// DropAllTables drops every table of the current keyspace.
func (b *Builder) DropAllTables(ctx context.Context) error {
	stmts, err := b.DropAllTablesScript(ctx)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if _, err := b.exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) Rename(from, to string) error {
	return unsupported("Rename", "renaming tables is not supported")
}

func (b *Builder) EnableForeignKeyConstraints() error {
	return unsupported("EnableForeignKeyConstraints", noForeignKeys)
}

func (b *Builder) DisableForeignKeyConstraints() error {
	return unsupported("DisableForeignKeyConstraints", noForeignKeys)
}

func (b *Builder) GetForeignKeys(table string) error {
	return unsupported("GetForeignKeys", noForeignKeys)
}
