package cass

import "strings"

type ColumnType string

const (
	TypeAscii     ColumnType = "ascii"
	TypeBigint    ColumnType = "bigint"
	TypeBlob      ColumnType = "blob"
	TypeBoolean   ColumnType = "boolean"
	TypeCounter   ColumnType = "counter"
	TypeDate      ColumnType = "date"
	TypeDecimal   ColumnType = "decimal"
	TypeDouble    ColumnType = "double"
	TypeDuration  ColumnType = "duration"
	TypeFloat     ColumnType = "float"
	TypeFrozen    ColumnType = "frozen"
	TypeInet      ColumnType = "inet"
	TypeInt       ColumnType = "int"
	TypeList      ColumnType = "list"
	TypeMap       ColumnType = "map"
	TypeSet       ColumnType = "set"
	TypeSmallint  ColumnType = "smallint"
	TypeText      ColumnType = "text"
	TypeVarchar   ColumnType = "varchar"
	TypeTime      ColumnType = "time"
	TypeTimestamp ColumnType = "timestamp"
	TypeTimeuuid  ColumnType = "timeuuid"
	TypeTinyint   ColumnType = "tinyint"
	TypeTuple     ColumnType = "tuple"
	TypeUUID      ColumnType = "uuid"
	TypeVarint    ColumnType = "varint"
)

/*
abstract type names (and their relational aliases) -> dialect keyword
*/
var typeKeywords = map[string]ColumnType{
	"ascii":      TypeAscii,
	"bigint":     TypeBigint,
	"biginteger": TypeBigint,
	"blob":       TypeBlob,
	"binary":     TypeBlob,
	"boolean":    TypeBoolean,
	"counter":    TypeCounter,
	"date":       TypeDate,
	"decimal":    TypeDecimal,
	"double":     TypeDouble,
	"duration":   TypeDuration,
	"float":      TypeFloat,
	"frozen":     TypeFrozen,
	"inet":       TypeInet,
	"ipaddress":  TypeInet,
	"int":        TypeInt,
	"integer":    TypeInt,
	"list":       TypeList,
	"map":        TypeMap,
	"set":        TypeSet,
	"smallint":   TypeSmallint,
	"text":       TypeVarchar,
	"varchar":    TypeVarchar,
	"string":     TypeVarchar,
	"char":       TypeVarchar,
	"time":       TypeTime,
	"timestamp":  TypeTimestamp,
	"datetime":   TypeTimestamp,
	"timeuuid":   TypeTimeuuid,
	"tinyint":    TypeTinyint,
	"tuple":      TypeTuple,
	"uuid":       TypeUUID,
	"varint":     TypeVarint,
}

// LookupType resolves an abstract type name (case insensitive) to the dialect keyword.
func LookupType(name string) (ColumnType, bool) {
	t, ok := typeKeywords[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

func (t ColumnType) IsCollection() bool {
	return t == TypeSet || t == TypeList || t == TypeMap
}

// scalar means usable as a collection or tuple element
func (t ColumnType) IsScalar() bool {
	switch t {
	case TypeSet, TypeList, TypeMap, TypeTuple, TypeFrozen, TypeCounter, "":
		return false
	}
	_, ok := typeKeywords[string(t)]
	return ok
}

/*
	the model below describes what already lives in (or is declared for) a keyspace.
	It is used by introspection and the yaml driven merge.
*/

type Column struct {
	Name            string
	Type            string
	Static          bool   `yaml:"static"`
	Kind            string `yaml:"-"`
	Position        int    `yaml:"-"`
	ClusteringOrder string `yaml:"-"`
}

const (
	KindPartitionKey = "partition_key"
	KindClustering   = "clustering"
	KindRegular      = "regular"
	KindStatic       = "static"
)

type SASIIndex struct {
	Name   string
	Column string
}

type Index struct {
	Name    string
	Kind    string
	Target  string
	Options map[string]string
}

const sasiClass = "org.apache.cassandra.index.sasi.SASIIndex"

func (ix *Index) IsSASI() bool {
	return ix.Options["class_name"] == sasiClass
}

type PKClusteringColumn struct {
	Name     string
	Order    string
	Position int
}

type PKPartitionColumn struct {
	Name     string
	Position int
}

type PrimaryKey struct {
	PartitionColumns  []PKPartitionColumn  `yaml:"partition"`
	ClusteringColumns []PKClusteringColumn `yaml:"clustering"`
}

type Table struct {
	Name        string
	Columns     map[string]*Column
	PrimaryKey  *PrimaryKey           `yaml:"primary"`
	SASIIndexes map[string]*SASIIndex `yaml:"sasi_index"`
}

type MaterializedView struct {
	Name        string
	Base        string
	Columns     map[string]*Column
	WhereClause string      `yaml:"where"`
	PrimaryKey  *PrimaryKey `yaml:"primary"`
}

type TableInfo struct {
	Keyspace          string
	Name              string
	Comment           string
	DefaultTimeToLive int
}

type ViewInfo struct {
	Keyspace          string
	Name              string
	BaseTable         string
	WhereClause       string
	IncludeAllColumns bool
}
