package cass

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ksSchema() *SchemaGrammar {
	return NewSchemaGrammar(&Config{Keyspace: "ks"})
}

func compile(t *testing.T, bp *Blueprint) []string {
	t.Helper()
	stmts, err := bp.ToStatements(ksSchema())
	require.NoError(t, err)
	return stmts
}

func golden(t *testing.T, name string, stmts []string) {
	t.Helper()
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, []byte(strings.Join(stmts, "\n")+"\n"))
}

func TestBlueprintCreateGolden(t *testing.T) {
	bp := NewCreateBlueprint("posts")
	bp.UUID("user_id").Partition()
	bp.Timestamp("created_at").Clustering("desc")
	bp.Timeuuid("post_id").Clustering()
	bp.Text("title")
	bp.SetCollection("tags", TypeText)
	bp.MapCollection("meta", TypeText, TypeInt)
	bp.Frozen("coords", TypeTuple, TypeDouble, TypeDouble)
	bp.Varchar("author_name").Static()
	bp.Varchar("category").Index()

	golden(t, "create_posts", compile(t, bp))
}

func TestBlueprintExplicitKeys(t *testing.T) {
	bp := NewCreateBlueprint("events")
	bp.Varchar("tenant")
	bp.Date("day")
	bp.Timestamp("at")
	bp.Counter("hits")
	require.NoError(t, bp.Partition("tenant", "day"))
	require.NoError(t, bp.Clustering("DESC", "at"))

	stmts := compile(t, bp)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		"create table ks.events (tenant varchar, day date, at timestamp, hits counter, "+
			"primary key ((tenant, day), at)) with clustering order by (at DESC)",
		stmts[0])
	assert.Equal(t, []string{"tenant", "day"}, bp.PartitionKey())
	assert.Equal(t, []ClusteringColumn{{Name: "at", Order: "DESC"}}, bp.ClusteringKey())
}

func TestBlueprintScalarTypes(t *testing.T) {
	tests := []struct {
		add     func(*Blueprint, string) *ColumnDefinition
		keyword string
	}{
		{(*Blueprint).Ascii, "ascii"},
		{(*Blueprint).Bigint, "bigint"},
		{(*Blueprint).BigInteger, "bigint"},
		{(*Blueprint).Binary, "blob"},
		{(*Blueprint).Blob, "blob"},
		{(*Blueprint).Boolean, "boolean"},
		{(*Blueprint).Char, "varchar"},
		{(*Blueprint).Date, "date"},
		{(*Blueprint).DateTime, "timestamp"},
		{(*Blueprint).DateTimeTz, "timestamp"},
		{(*Blueprint).Decimal, "decimal"},
		{(*Blueprint).Double, "double"},
		{(*Blueprint).Duration, "duration"},
		{(*Blueprint).Float, "float"},
		{(*Blueprint).Inet, "inet"},
		{(*Blueprint).Int, "int"},
		{(*Blueprint).Integer, "int"},
		{(*Blueprint).IPAddress, "inet"},
		{(*Blueprint).LongText, "varchar"},
		{(*Blueprint).MacAddress, "varchar"},
		{(*Blueprint).MediumText, "varchar"},
		{(*Blueprint).Smallint, "smallint"},
		{(*Blueprint).SmallInteger, "smallint"},
		{(*Blueprint).String, "varchar"},
		{(*Blueprint).Text, "varchar"},
		{(*Blueprint).Time, "time"},
		{(*Blueprint).TimeTz, "time"},
		{(*Blueprint).Timestamp, "timestamp"},
		{(*Blueprint).TimestampTz, "timestamp"},
		{(*Blueprint).Timeuuid, "timeuuid"},
		{(*Blueprint).Tinyint, "tinyint"},
		{(*Blueprint).TinyInteger, "tinyint"},
		{(*Blueprint).TinyText, "varchar"},
		{(*Blueprint).ULID, "varchar"},
		{(*Blueprint).UUID, "uuid"},
		{(*Blueprint).Varchar, "varchar"},
		{(*Blueprint).Varint, "varint"},
		{(*Blueprint).Year, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			bp := NewCreateBlueprint("t")
			bp.UUID("id").Partition()
			tt.add(bp, "col")
			stmts := compile(t, bp)
			require.Len(t, stmts, 1)
			assert.Equal(t, 1, strings.Count(stmts[0], "col "+tt.keyword+","), stmts[0])
			assert.True(t, strings.Index(stmts[0], "id uuid") < strings.Index(stmts[0], "col "+tt.keyword))
		})
	}
}

func TestBlueprintCollectionTypes(t *testing.T) {
	bp := NewCreateBlueprint("t")
	bp.UUID("id").Partition()
	bp.List("l", TypeInt)
	bp.ListCollection("l2", TypeBigint)
	bp.SetCollection("s", TypeUUID)
	bp.MapCollection("m", TypeVarchar, TypeDouble)
	bp.Tuple("tp", TypeInt, TypeText, TypeBoolean)
	bp.Frozen("fl", TypeList, TypeInt)

	stmts := compile(t, bp)
	assert.Equal(t,
		"create table ks.t (id uuid, l list<int>, l2 list<bigint>, s set<uuid>, m map<varchar, double>, "+
			"tp tuple<int, varchar, boolean>, fl frozen<list<int>>, primary key ((id)))",
		stmts[0])
}

func TestBlueprintInvalidColumns(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Blueprint)
	}{
		{"list without element", func(b *Blueprint) { b.AddColumn(TypeList, "l") }},
		{"map with one element", func(b *Blueprint) { b.AddColumn(TypeMap, "m", TypeInt) }},
		{"nested collection", func(b *Blueprint) { b.List("l", TypeSet) }},
		{"counter element", func(b *Blueprint) { b.SetCollection("s", TypeCounter) }},
		{"scalar with elements", func(b *Blueprint) { b.AddColumn(TypeInt, "i", TypeInt) }},
		{"frozen scalar", func(b *Blueprint) { b.Frozen("f", TypeInt) }},
		{"bare frozen", func(b *Blueprint) { b.AddColumn(TypeFrozen, "f") }},
		{"unknown type", func(b *Blueprint) { b.AddColumn(ColumnType("jsonb"), "j") }},
		{"empty tuple", func(b *Blueprint) { b.Tuple("tp") }},
		{"duplicate column", func(b *Blueprint) { b.Int("a"); b.Int("a") }},
		{"empty name", func(b *Blueprint) { b.Int("") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := NewCreateBlueprint("t")
			bp.UUID("id").Partition()
			tt.build(bp)
			_, err := bp.ToStatements(ksSchema())
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestBlueprintKeyRules(t *testing.T) {
	t.Run("clustering before partition", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id")
		bp.Timestamp("at")
		err := bp.Clustering("ASC", "at")
		assert.True(t, errors.Is(err, ErrUnsupported))
		_, err = bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("clustering order", func(t *testing.T) {
		for _, o := range []string{"up", "ascending", "desc nulls last"} {
			bp := NewCreateBlueprint("t")
			bp.UUID("id").Partition()
			bp.Timestamp("at").Clustering(o)
			_, err := bp.ToStatements(ksSchema())
			assert.True(t, errors.Is(err, ErrUnsupported), o)
		}
	})

	t.Run("clustering marker before partition marker", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.Timestamp("at").Clustering("Desc")
		bp.UUID("id").Partition()
		stmts := compile(t, bp)
		assert.Equal(t,
			"create table ks.t (at timestamp, id uuid, primary key ((id), at)) with clustering order by (at DESC)",
			stmts[0])
	})

	t.Run("no partition key", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id")
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrUnsupported))
	})

	t.Run("primary is partition", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id").Primary()
		bp.Int("n")
		stmts := compile(t, bp)
		assert.Equal(t, "create table ks.t (id uuid, n int, primary key ((id)))", stmts[0])
	})

	t.Run("undeclared key column", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id")
		require.NoError(t, bp.Partition("missing"))
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("key column twice", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id").Partition()
		require.NoError(t, bp.Clustering("ASC", "id"))
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("collection key must be frozen", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.SetCollection("s", TypeInt).Partition()
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))

		bp = NewCreateBlueprint("t")
		bp.Frozen("s", TypeSet, TypeInt).Partition()
		stmts := compile(t, bp)
		assert.Equal(t, "create table ks.t (s frozen<set<int>>, primary key ((s)))", stmts[0])
	})

	t.Run("static needs clustering", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id").Partition()
		bp.Int("n").Static()
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("static key", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id").Partition()
		bp.Int("n").Static().Clustering()
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("counter mixed with regular", func(t *testing.T) {
		bp := NewCreateBlueprint("t")
		bp.UUID("id").Partition()
		bp.Counter("hits")
		bp.Int("n")
		_, err := bp.ToStatements(ksSchema())
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})

	t.Run("key change on alter", func(t *testing.T) {
		bp := NewBlueprint("t")
		assert.True(t, errors.Is(bp.Partition("id"), ErrUnsupported))
		assert.True(t, errors.Is(bp.Clustering("ASC", "at"), ErrUnsupported))
	})
}

func TestBlueprintMarkerResolution(t *testing.T) {
	bp := NewCreateBlueprint("users")
	bp.UUID("id").Partition()
	bp.Varchar("email").Index("by_email")
	bp.Timestamp("joined").Index().Clustering("desc")

	stmts := compile(t, bp)
	require.Len(t, stmts, 3)
	assert.Equal(t,
		"create table ks.users (id uuid, email varchar, joined timestamp, primary key ((id), joined)) "+
			"with clustering order by (joined DESC)",
		stmts[0])
	// the clustering marker of joined wins the first pass, its index waits for the second
	assert.Equal(t, "create index by_email on ks.users (email)", stmts[1])
	assert.Equal(t, "create index users_joined_index on ks.users (joined)", stmts[2])

	// resolving twice must not duplicate commands
	again, err := bp.ToStatements(ksSchema())
	require.NoError(t, err)
	assert.Equal(t, stmts, again)
}

func TestBlueprintChangedColumnDropsIndex(t *testing.T) {
	bp := NewBlueprint("users")
	bp.Varchar("email").Change().NoIndex()
	bp.Varchar("nick").NoIndex()
	bp.Int("age")

	stmts := compile(t, bp)
	assert.Equal(t, []string{
		"alter table ks.users add nick varchar",
		"alter table ks.users add age int",
		"drop index ks.users_email_index",
	}, stmts)
}

func TestBlueprintAlterCommands(t *testing.T) {
	bp := NewBlueprint("users")
	bp.SetCollection("roles", TypeText)
	bp.Varchar("bio").Change().Index()
	require.NoError(t, bp.DropColumn("old"))
	require.NoError(t, bp.DropColumn("a", "b"))
	require.NoError(t, bp.RenameColumn("id", "user_id"))
	require.NoError(t, bp.SASIIndex("name", ""))
	require.NoError(t, bp.DropIndex("stale"))
	require.NoError(t, bp.DropIndexIfExists("maybe"))

	golden(t, "alter_users", compile(t, bp))
}

func TestBlueprintDrop(t *testing.T) {
	bp := NewBlueprint("users")
	bp.Drop()
	assert.Equal(t, []string{"drop table ks.users"}, compile(t, bp))

	bp = NewBlueprint("other.users")
	bp.DropIfExists()
	assert.Equal(t, []string{"drop table if exists other.users"}, compile(t, bp))
}

func TestBlueprintUnsupported(t *testing.T) {
	tests := map[string]func(*Blueprint) error{
		"BigIncrements":            func(b *Blueprint) error { return b.BigIncrements("id") },
		"Charset":                  func(b *Blueprint) error { return b.Charset("utf8") },
		"Collation":                func(b *Blueprint) error { return b.Collation("utf8_bin") },
		"Comment":                  func(b *Blueprint) error { return b.Comment("c") },
		"Computed":                 func(b *Blueprint) error { return b.Computed("c", "a + b") },
		"DropClustering":           func(b *Blueprint) error { return b.DropClustering("a") },
		"DropConstrainedForeignID": func(b *Blueprint) error { return b.DropConstrainedForeignID("a") },
		"DropForeign":              func(b *Blueprint) error { return b.DropForeign("fk") },
		"DropFullText":             func(b *Blueprint) error { return b.DropFullText("a") },
		"DropPartition":            func(b *Blueprint) error { return b.DropPartition("a") },
		"DropPrimary":              func(b *Blueprint) error { return b.DropPrimary("a") },
		"DropSpatialIndex":         func(b *Blueprint) error { return b.DropSpatialIndex("a") },
		"DropUnique":               func(b *Blueprint) error { return b.DropUnique("a") },
		"Engine":                   func(b *Blueprint) error { return b.Engine("InnoDB") },
		"Enum":                     func(b *Blueprint) error { return b.Enum("e", "a", "b") },
		"Foreign":                  func(b *Blueprint) error { return b.Foreign("a") },
		"ForeignID":                func(b *Blueprint) error { return b.ForeignID("a") },
		"ForeignULID":              func(b *Blueprint) error { return b.ForeignULID("a") },
		"ForeignUUID":              func(b *Blueprint) error { return b.ForeignUUID("a") },
		"FullText":                 func(b *Blueprint) error { return b.FullText("a") },
		"Geography":                func(b *Blueprint) error { return b.Geography("a") },
		"Geometry":                 func(b *Blueprint) error { return b.Geometry("a") },
		"ID":                       func(b *Blueprint) error { return b.ID("id") },
		"Increments":               func(b *Blueprint) error { return b.Increments("id") },
		"InnoDB":                   func(b *Blueprint) error { return b.InnoDB() },
		"IntegerIncrements":        func(b *Blueprint) error { return b.IntegerIncrements("id") },
		"JSON":                     func(b *Blueprint) error { return b.JSON("j") },
		"JSONB":                    func(b *Blueprint) error { return b.JSONB("j") },
		"MediumIncrements":         func(b *Blueprint) error { return b.MediumIncrements("id") },
		"MediumInteger":            func(b *Blueprint) error { return b.MediumInteger("n") },
		"Rename":                   func(b *Blueprint) error { return b.Rename("other") },
		"RenameIndex":              func(b *Blueprint) error { return b.RenameIndex("a", "b") },
		"Set":                      func(b *Blueprint) error { return b.Set("s", "a") },
		"SmallIncrements":          func(b *Blueprint) error { return b.SmallIncrements("id") },
		"SpatialIndex":             func(b *Blueprint) error { return b.SpatialIndex("a") },
		"Temporary":                func(b *Blueprint) error { return b.Temporary() },
		"TinyIncrements":           func(b *Blueprint) error { return b.TinyIncrements("id") },
		"Unique":                   func(b *Blueprint) error { return b.Unique("a") },
		"UnsignedBigInteger":       func(b *Blueprint) error { return b.UnsignedBigInteger("a") },
		"UnsignedInteger":          func(b *Blueprint) error { return b.UnsignedInteger("a") },
		"UnsignedMediumInteger":    func(b *Blueprint) error { return b.UnsignedMediumInteger("a") },
		"UnsignedSmallInteger":     func(b *Blueprint) error { return b.UnsignedSmallInteger("a") },
		"UnsignedTinyInteger":      func(b *Blueprint) error { return b.UnsignedTinyInteger("a") },
		"Vector":                   func(b *Blueprint) error { return b.Vector("v", 3) },
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			bp := NewCreateBlueprint("t")
			bp.UUID("id").Partition()
			err := fn(bp)
			assert.True(t, errors.Is(err, &Error{Kind: KindUnsupported, Op: name}), "got %v", err)

			// the blueprint refuses to render afterwards
			stmts, err := bp.ToStatements(ksSchema())
			assert.Nil(t, stmts)
			assert.True(t, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestBlueprintUnsupportedMarkers(t *testing.T) {
	for name, mark := range map[string]func(*ColumnDefinition) *ColumnDefinition{
		"Unique":       func(c *ColumnDefinition) *ColumnDefinition { return c.Unique() },
		"FullText":     func(c *ColumnDefinition) *ColumnDefinition { return c.FullText() },
		"SpatialIndex": func(c *ColumnDefinition) *ColumnDefinition { return c.SpatialIndex() },
	} {
		t.Run(name, func(t *testing.T) {
			bp := NewCreateBlueprint("t")
			bp.UUID("id").Partition()
			mark(bp.Varchar("v"))
			_, err := bp.ToStatements(ksSchema())
			assert.True(t, errors.Is(err, &Error{Kind: KindUnsupported, Op: name}), "got %v", err)
		})
	}
}

func TestTableDefinerInterface(t *testing.T) {
	var d TableDefiner = NewCreateBlueprint("t")
	d.AddColumn(TypeUUID, "id")
	d.AddColumn(TypeTimestamp, "at")
	require.NoError(t, d.Partition("id"))
	require.NoError(t, d.Clustering("asc", "at"))
	require.NoError(t, d.Index("at", ""))

	stmts := compile(t, d.(*Blueprint))
	assert.Equal(t, []string{
		"create table ks.t (id uuid, at timestamp, primary key ((id), at)) with clustering order by (at ASC)",
		"create index t_at_index on ks.t (at)",
	}, stmts)
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"TEXT", "varchar"},
		{"set<text>", "set<varchar>"},
		{"map<text, int>", "map<varchar, int>"},
		{"frozen<list<int>>", "frozen<list<int>>"},
		{"tuple<int, text>", "tuple<int, varchar>"},
		{"dateTime", "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "jsonb", "list<list<int>>", "map<int>", "set<", "frozen<int>", "list<nothing>"} {
		_, err := NormalizeType(bad)
		assert.True(t, errors.Is(err, ErrInvalidArgument), bad)
	}
}
