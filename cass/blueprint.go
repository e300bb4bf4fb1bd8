package cass

import (
	"strings"
)

type markerKind int

// resolution order of the fluent markers on one column
const (
	markPartition markerKind = iota
	markClustering
	markPrimary
	markUnique
	markIndex
	markFullText
	markSpatial
)

type columnMarker struct {
	column *ColumnDefinition
	kind   markerKind
	// false asks for the index to be dropped (changed columns only)
	on    bool
	value string
}

type KeyRole int

const (
	KeyPartition KeyRole = iota
	KeyClustering
)

// KeyDeclaration assigns columns to the partition or clustering key.
type KeyDeclaration struct {
	Role    KeyRole
	Name    string
	Columns []string
	// clustering only, ASC or DESC
	Order string
}

type commandKind int

const (
	cmdDrop commandKind = iota
	cmdDropIfExists
	cmdDropColumn
	cmdRenameColumn
	cmdIndex
	cmdSASIIndex
	cmdDropIndex
	cmdDropIndexIfExists
)

type command struct {
	kind    commandKind
	columns []string
	name    string
	to      string
}

// TableDefiner is what a generic schema caller needs from a dialect blueprint.
type TableDefiner interface {
	AddColumn(t ColumnType, name string, elems ...ColumnType) *ColumnDefinition
	Partition(columns ...string) error
	Clustering(order string, columns ...string) error
	Index(column, name string) error
}

/*
Blueprint describes one create or alter table operation.
It is filled by the caller, compiled once, then thrown away.
Definition errors are returned where possible and also remembered,
a blueprint that recorded an error never compiles.
*/
type Blueprint struct {
	Table string

	creating bool
	columns  []*ColumnDefinition
	markers  []columnMarker
	keys     []KeyDeclaration
	commands []command
	err      error
	resolved bool
}

var _ TableDefiner = (*Blueprint)(nil)

// NewBlueprint starts an alter table blueprint.
func NewBlueprint(table string) *Blueprint {
	return &Blueprint{Table: table}
}

// NewCreateBlueprint starts a create table blueprint.
func NewCreateBlueprint(table string) *Blueprint {
	return &Blueprint{Table: table, creating: true}
}

func (b *Blueprint) Creating() bool {
	return b.creating
}

func (b *Blueprint) Err() error {
	return b.err
}

func (b *Blueprint) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return err
}

func (b *Blueprint) Columns() []*ColumnDefinition {
	return b.columns
}

// Keys returns the explicit key declarations made so far.
func (b *Blueprint) Keys() []KeyDeclaration {
	return b.keys
}

func (b *Blueprint) column(name string) *ColumnDefinition {
	for _, c := range b.columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (b *Blueprint) AddColumn(t ColumnType, name string, elems ...ColumnType) *ColumnDefinition {
	c := &ColumnDefinition{Name: name, Type: t, Elems: elems, bp: b}
	if t == TypeText {
		c.Type = TypeVarchar
	}
	if err := c.validate(); err != nil {
		b.fail(err)
	} else if b.column(name) != nil {
		b.fail(invalidArgument("AddColumn", "column %s is declared twice", name))
	}
	b.columns = append(b.columns, c)
	return c
}

func (b *Blueprint) Ascii(column string) *ColumnDefinition {
	return b.AddColumn(TypeAscii, column)
}

func (b *Blueprint) Bigint(column string) *ColumnDefinition {
	return b.AddColumn(TypeBigint, column)
}

func (b *Blueprint) BigInteger(column string) *ColumnDefinition {
	return b.AddColumn(TypeBigint, column)
}

func (b *Blueprint) Binary(column string) *ColumnDefinition {
	return b.AddColumn(TypeBlob, column)
}

func (b *Blueprint) Blob(column string) *ColumnDefinition {
	return b.AddColumn(TypeBlob, column)
}

func (b *Blueprint) Boolean(column string) *ColumnDefinition {
	return b.AddColumn(TypeBoolean, column)
}

func (b *Blueprint) Char(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) Counter(column string) *ColumnDefinition {
	return b.AddColumn(TypeCounter, column)
}

func (b *Blueprint) Date(column string) *ColumnDefinition {
	return b.AddColumn(TypeDate, column)
}

func (b *Blueprint) DateTime(column string) *ColumnDefinition {
	return b.AddColumn(TypeTimestamp, column)
}

func (b *Blueprint) DateTimeTz(column string) *ColumnDefinition {
	return b.AddColumn(TypeTimestamp, column)
}

func (b *Blueprint) Decimal(column string) *ColumnDefinition {
	return b.AddColumn(TypeDecimal, column)
}

func (b *Blueprint) Double(column string) *ColumnDefinition {
	return b.AddColumn(TypeDouble, column)
}

func (b *Blueprint) Duration(column string) *ColumnDefinition {
	return b.AddColumn(TypeDuration, column)
}

func (b *Blueprint) Float(column string) *ColumnDefinition {
	return b.AddColumn(TypeFloat, column)
}

// Frozen declares a frozen collection or tuple, e.g. Frozen("tags", TypeSet, TypeText).
func (b *Blueprint) Frozen(column string, inner ColumnType, elems ...ColumnType) *ColumnDefinition {
	c := &ColumnDefinition{Name: column, Type: inner, Elems: elems, Frozen: true, bp: b}
	if err := c.validate(); err != nil {
		b.fail(err)
	} else if b.column(column) != nil {
		b.fail(invalidArgument("Frozen", "column %s is declared twice", column))
	}
	b.columns = append(b.columns, c)
	return c
}

func (b *Blueprint) Inet(column string) *ColumnDefinition {
	return b.AddColumn(TypeInet, column)
}

func (b *Blueprint) Int(column string) *ColumnDefinition {
	return b.AddColumn(TypeInt, column)
}

func (b *Blueprint) Integer(column string) *ColumnDefinition {
	return b.AddColumn(TypeInt, column)
}

func (b *Blueprint) IPAddress(column string) *ColumnDefinition {
	return b.AddColumn(TypeInet, column)
}

func (b *Blueprint) List(column string, elem ColumnType) *ColumnDefinition {
	return b.AddColumn(TypeList, column, elem)
}

func (b *Blueprint) ListCollection(column string, elem ColumnType) *ColumnDefinition {
	return b.AddColumn(TypeList, column, elem)
}

func (b *Blueprint) LongText(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) MacAddress(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) MapCollection(column string, key, value ColumnType) *ColumnDefinition {
	return b.AddColumn(TypeMap, column, key, value)
}

func (b *Blueprint) MediumText(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) SetCollection(column string, elem ColumnType) *ColumnDefinition {
	return b.AddColumn(TypeSet, column, elem)
}

func (b *Blueprint) Smallint(column string) *ColumnDefinition {
	return b.AddColumn(TypeSmallint, column)
}

func (b *Blueprint) SmallInteger(column string) *ColumnDefinition {
	return b.AddColumn(TypeSmallint, column)
}

func (b *Blueprint) String(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) Text(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) Time(column string) *ColumnDefinition {
	return b.AddColumn(TypeTime, column)
}

func (b *Blueprint) TimeTz(column string) *ColumnDefinition {
	return b.AddColumn(TypeTime, column)
}

func (b *Blueprint) Timestamp(column string) *ColumnDefinition {
	return b.AddColumn(TypeTimestamp, column)
}

func (b *Blueprint) TimestampTz(column string) *ColumnDefinition {
	return b.AddColumn(TypeTimestamp, column)
}

func (b *Blueprint) Timeuuid(column string) *ColumnDefinition {
	return b.AddColumn(TypeTimeuuid, column)
}

func (b *Blueprint) Tinyint(column string) *ColumnDefinition {
	return b.AddColumn(TypeTinyint, column)
}

func (b *Blueprint) TinyInteger(column string) *ColumnDefinition {
	return b.AddColumn(TypeTinyint, column)
}

func (b *Blueprint) TinyText(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) Tuple(column string, elems ...ColumnType) *ColumnDefinition {
	return b.AddColumn(TypeTuple, column, elems...)
}

func (b *Blueprint) ULID(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) UUID(column string) *ColumnDefinition {
	return b.AddColumn(TypeUUID, column)
}

func (b *Blueprint) Varchar(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarchar, column)
}

func (b *Blueprint) Varint(column string) *ColumnDefinition {
	return b.AddColumn(TypeVarint, column)
}

func (b *Blueprint) Year(column string) *ColumnDefinition {
	return b.AddColumn(TypeDate, column)
}

/*
	keys and indexes
*/

func (b *Blueprint) hasPartition() bool {
	for i := range b.keys {
		if b.keys[i].Role == KeyPartition {
			return true
		}
	}
	for i := range b.markers {
		if b.markers[i].on && (b.markers[i].kind == markPartition || b.markers[i].kind == markPrimary) {
			return true
		}
	}
	return false
}

func (b *Blueprint) partition(op, name string, columns []string) error {
	if !b.creating {
		return b.fail(unsupported(op, "the primary key of an existing table cannot be changed"))
	}
	if len(columns) == 0 {
		return b.fail(invalidArgument(op, "no columns given"))
	}
	b.keys = append(b.keys, KeyDeclaration{Role: KeyPartition, Name: name, Columns: columns})
	return nil
}

// Partition appends columns to the partition key.
func (b *Blueprint) Partition(columns ...string) error {
	return b.partition("Partition", "", columns)
}

// PartitionNamed is Partition with an explicit key name.
func (b *Blueprint) PartitionNamed(name string, columns ...string) error {
	return b.partition("Partition", name, columns)
}

// Primary declares the partition key, the store has no other primary key notion.
func (b *Blueprint) Primary(columns ...string) error {
	return b.partition("Primary", "", columns)
}

func normalizeOrder(op, order string) (string, error) {
	if order == "" {
		return "ASC", nil
	}
	o := strings.ToUpper(strings.TrimSpace(order))
	if o != "ASC" && o != "DESC" {
		return "", unsupported(op, `the order by clause must be either "ASC" or "DESC"`)
	}
	return o, nil
}

// Clustering appends columns to the clustering key. order is ASC (default) or DESC.
func (b *Blueprint) Clustering(order string, columns ...string) error {
	return b.clustering("Clustering", order, "", columns)
}

func (b *Blueprint) clustering(op, order, name string, columns []string) error {
	if !b.creating {
		return b.fail(unsupported(op, "the primary key of an existing table cannot be changed"))
	}
	o, err := normalizeOrder(op, order)
	if err != nil {
		return b.fail(err)
	}
	if !b.hasPartition() {
		return b.fail(unsupported(op, "a partition key must be declared before clustering columns"))
	}
	if len(columns) == 0 {
		return b.fail(invalidArgument(op, "no columns given"))
	}
	b.keys = append(b.keys, KeyDeclaration{Role: KeyClustering, Name: name, Columns: columns, Order: o})
	return nil
}

func (b *Blueprint) indexName(kind string, columns []string) string {
	n := b.Table
	if i := strings.LastIndexByte(n, '.'); i >= 0 {
		n = n[i+1:]
	}
	n = strings.ToLower(n + "_" + strings.Join(columns, "_") + "_" + kind)
	return strings.NewReplacer("-", "_", ".", "_").Replace(n)
}

// Index creates a secondary index. An empty name uses <table>_<column>_index.
func (b *Blueprint) Index(column, name string) error {
	if column == "" {
		return b.fail(invalidArgument("Index", "no column given"))
	}
	if name == "" {
		name = b.indexName("index", []string{column})
	}
	b.commands = append(b.commands, command{kind: cmdIndex, columns: []string{column}, name: name})
	return nil
}

// SASIIndex creates a custom SASI index on the column.
func (b *Blueprint) SASIIndex(column, name string) error {
	if column == "" {
		return b.fail(invalidArgument("SASIIndex", "no column given"))
	}
	if name == "" {
		name = b.indexName("sasi", []string{column})
	}
	b.commands = append(b.commands, command{kind: cmdSASIIndex, columns: []string{column}, name: name})
	return nil
}

func (b *Blueprint) DropIndex(name string) error {
	if name == "" {
		return b.fail(invalidArgument("DropIndex", "no index name given"))
	}
	b.commands = append(b.commands, command{kind: cmdDropIndex, name: name})
	return nil
}

func (b *Blueprint) DropIndexIfExists(name string) error {
	if name == "" {
		return b.fail(invalidArgument("DropIndexIfExists", "no index name given"))
	}
	b.commands = append(b.commands, command{kind: cmdDropIndexIfExists, name: name})
	return nil
}

func (b *Blueprint) DropColumn(columns ...string) error {
	if len(columns) == 0 {
		return b.fail(invalidArgument("DropColumn", "no columns given"))
	}
	b.commands = append(b.commands, command{kind: cmdDropColumn, columns: columns})
	return nil
}

// RenameColumn renames a column. The store only allows it for primary key columns.
func (b *Blueprint) RenameColumn(from, to string) error {
	if from == "" || to == "" {
		return b.fail(invalidArgument("RenameColumn", "column names must not be empty"))
	}
	b.commands = append(b.commands, command{kind: cmdRenameColumn, columns: []string{from}, to: to})
	return nil
}

func (b *Blueprint) Drop() {
	b.commands = append(b.commands, command{kind: cmdDrop})
}

func (b *Blueprint) DropIfExists() {
	b.commands = append(b.commands, command{kind: cmdDropIfExists})
}

/*
resolveMarkers folds the recorded markers into key and index commands.
Columns are visited in declaration order. Each pass honours at most one
marker per column (the first one in markerKind order), the others wait
for the next pass.
*/
func (b *Blueprint) resolveMarkers() error {
	if b.resolved {
		return nil
	}
	b.resolved = true

	pending := make(map[*ColumnDefinition][]columnMarker)
	for _, m := range b.markers {
		pending[m.column] = append(pending[m.column], m)
	}

	for {
		emitted := false
		for _, c := range b.columns {
			ms := pending[c]
			if len(ms) == 0 {
				continue
			}
			first := 0
			for i := range ms {
				if ms[i].kind < ms[first].kind {
					first = i
				}
			}
			m := ms[first]
			pending[c] = append(ms[:first:first], ms[first+1:]...)
			emitted = true
			if err := b.applyMarker(m); err != nil {
				return err
			}
		}
		if !emitted {
			return nil
		}
	}
}

func (b *Blueprint) applyMarker(m columnMarker) error {
	col := []string{m.column.Name}
	if !m.on {
		if !m.column.Changed {
			return nil
		}
		switch m.kind {
		case markIndex:
			return b.DropIndex(b.indexName("index", col))
		case markPartition:
			return b.DropPartition(col...)
		case markClustering:
			return b.DropClustering(col...)
		case markPrimary:
			return b.DropPrimary(col...)
		case markUnique:
			return b.DropUnique(col...)
		case markFullText:
			return b.DropFullText(col...)
		case markSpatial:
			return b.DropSpatialIndex(col...)
		}
		return nil
	}
	switch m.kind {
	case markPartition:
		return b.partition("Partition", m.value, col)
	case markPrimary:
		return b.partition("Primary", m.value, col)
	case markClustering:
		return b.clustering("Clustering", m.value, "", col)
	case markIndex:
		return b.Index(m.column.Name, m.value)
	case markUnique:
		return b.Unique(col...)
	case markFullText:
		return b.FullText(col...)
	case markSpatial:
		return b.SpatialIndex(col...)
	}
	return nil
}

/*
PartitionKey and ClusteringKey flatten the key declarations.
Valid once the markers have been resolved.
*/
func (b *Blueprint) PartitionKey() []string {
	var ret []string
	for _, k := range b.keys {
		if k.Role == KeyPartition {
			ret = append(ret, k.Columns...)
		}
	}
	return ret
}

type ClusteringColumn struct {
	Name  string
	Order string
}

func (b *Blueprint) ClusteringKey() []ClusteringColumn {
	var ret []ClusteringColumn
	for _, k := range b.keys {
		if k.Role != KeyClustering {
			continue
		}
		for _, c := range k.Columns {
			ret = append(ret, ClusteringColumn{Name: c, Order: k.Order})
		}
	}
	return ret
}

// ToStatements resolves the blueprint and renders it with the given grammar.
func (b *Blueprint) ToStatements(g *SchemaGrammar) ([]string, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.resolveMarkers(); err != nil {
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}
	return g.compileBlueprint(b)
}

/*
	everything below cannot be expressed by the store.
	The methods exist so callers fail loudly instead of silently losing a definition.
*/

const noAutoIncrement = "auto-increment columns are not supported"
const noForeignKeys = "foreign keys are not supported"

func (b *Blueprint) BigIncrements(column string) error {
	return b.fail(unsupported("BigIncrements", noAutoIncrement))
}

func (b *Blueprint) Charset(charset string) error {
	return b.fail(unsupported("Charset", "setting the charset is not supported"))
}

func (b *Blueprint) Collation(collation string) error {
	return b.fail(unsupported("Collation", "setting the collation is not supported"))
}

func (b *Blueprint) Comment(comment string) error {
	return b.fail(unsupported("Comment", "comments are not supported"))
}

func (b *Blueprint) Computed(column, expression string) error {
	return b.fail(unsupported("Computed", "computed columns are not supported"))
}

func (b *Blueprint) DropClustering(columns ...string) error {
	return b.fail(unsupported("DropClustering", "dropping clustering columns is not supported"))
}

func (b *Blueprint) DropConstrainedForeignID(column string) error {
	return b.fail(unsupported("DropConstrainedForeignID", noForeignKeys))
}

func (b *Blueprint) DropForeign(index string) error {
	return b.fail(unsupported("DropForeign", noForeignKeys))
}

func (b *Blueprint) DropFullText(columns ...string) error {
	return b.fail(unsupported("DropFullText", "fulltext indexes are not supported"))
}

func (b *Blueprint) DropPartition(columns ...string) error {
	return b.fail(unsupported("DropPartition", "dropping partition columns is not supported"))
}

func (b *Blueprint) DropPrimary(columns ...string) error {
	return b.fail(unsupported("DropPrimary", "dropping a primary key is not supported"))
}

func (b *Blueprint) DropSpatialIndex(columns ...string) error {
	return b.fail(unsupported("DropSpatialIndex", "spatial indexes are not supported"))
}

func (b *Blueprint) DropUnique(columns ...string) error {
	return b.fail(unsupported("DropUnique", "unique indexes are not supported"))
}

func (b *Blueprint) Engine(engine string) error {
	return b.fail(unsupported("Engine", "setting the storage engine is not supported"))
}

func (b *Blueprint) Enum(column string, allowed ...string) error {
	return b.fail(unsupported("Enum", "enum columns are not supported"))
}

func (b *Blueprint) Foreign(columns ...string) error {
	return b.fail(unsupported("Foreign", noForeignKeys))
}

func (b *Blueprint) ForeignID(column string) error {
	return b.fail(unsupported("ForeignID", "foreign ids are not supported"))
}

func (b *Blueprint) ForeignULID(column string) error {
	return b.fail(unsupported("ForeignULID", noForeignKeys))
}

func (b *Blueprint) ForeignUUID(column string) error {
	return b.fail(unsupported("ForeignUUID", noForeignKeys))
}

func (b *Blueprint) FullText(columns ...string) error {
	return b.fail(unsupported("FullText", "fulltext indexes are not supported"))
}

func (b *Blueprint) Geography(column string) error {
	return b.fail(unsupported("Geography", "geography columns are not supported"))
}

func (b *Blueprint) Geometry(column string) error {
	return b.fail(unsupported("Geometry", "geometry columns are not supported"))
}

func (b *Blueprint) ID(column string) error {
	return b.fail(unsupported("ID", noAutoIncrement))
}

func (b *Blueprint) Increments(column string) error {
	return b.fail(unsupported("Increments", noAutoIncrement))
}

func (b *Blueprint) InnoDB() error {
	return b.fail(unsupported("InnoDB", "setting the storage engine is not supported"))
}

func (b *Blueprint) IntegerIncrements(column string) error {
	return b.fail(unsupported("IntegerIncrements", noAutoIncrement))
}

func (b *Blueprint) JSON(column string) error {
	return b.fail(unsupported("JSON", "json columns are not supported"))
}

func (b *Blueprint) JSONB(column string) error {
	return b.fail(unsupported("JSONB", "jsonb columns are not supported"))
}

func (b *Blueprint) MediumIncrements(column string) error {
	return b.fail(unsupported("MediumIncrements", noAutoIncrement))
}

func (b *Blueprint) MediumInteger(column string) error {
	return b.fail(unsupported("MediumInteger", "medium integer (3-byte) columns are not supported"))
}

func (b *Blueprint) Rename(to string) error {
	return b.fail(unsupported("Rename", "renaming tables is not supported"))
}

func (b *Blueprint) RenameIndex(from, to string) error {
	return b.fail(unsupported("RenameIndex", "renaming indexes is not supported"))
}

// Set is the relational enumerated set column. Use SetCollection instead.
func (b *Blueprint) Set(column string, allowed ...string) error {
	return b.fail(unsupported("Set", "set columns are not supported, use SetCollection instead"))
}

func (b *Blueprint) SmallIncrements(column string) error {
	return b.fail(unsupported("SmallIncrements", noAutoIncrement))
}

func (b *Blueprint) SpatialIndex(columns ...string) error {
	return b.fail(unsupported("SpatialIndex", "spatial indexes are not supported"))
}

func (b *Blueprint) Temporary() error {
	return b.fail(unsupported("Temporary", "temporary tables are not supported"))
}

func (b *Blueprint) TinyIncrements(column string) error {
	return b.fail(unsupported("TinyIncrements", noAutoIncrement))
}

func (b *Blueprint) Unique(columns ...string) error {
	return b.fail(unsupported("Unique", "unique indexes are not supported"))
}

func (b *Blueprint) UnsignedBigInteger(column string) error {
	return b.fail(unsupported("UnsignedBigInteger", noAutoIncrement))
}

func (b *Blueprint) UnsignedInteger(column string) error {
	return b.fail(unsupported("UnsignedInteger", "unsigned integer columns are not supported"))
}

func (b *Blueprint) UnsignedMediumInteger(column string) error {
	return b.fail(unsupported("UnsignedMediumInteger", noAutoIncrement))
}

func (b *Blueprint) UnsignedSmallInteger(column string) error {
	return b.fail(unsupported("UnsignedSmallInteger", noAutoIncrement))
}

func (b *Blueprint) UnsignedTinyInteger(column string) error {
	return b.fail(unsupported("UnsignedTinyInteger", noAutoIncrement))
}

func (b *Blueprint) Vector(column string, dimensions int) error {
	return b.fail(unsupported("Vector", "vector columns are not supported, use ListCollection instead"))
}
