package cass

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileKeyspace(t *testing.T) {
	g := ksSchema()

	s, err := g.CompileCreateKeyspace("app", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "create keyspace app with replication = {'class': 'SimpleStrategy', 'replication_factor': 1}", s)

	s, err = g.CompileCreateKeyspace("app", true, Replication{
		"class": "NetworkTopologyStrategy",
		"dc2":   "2",
		"dc1":   "3",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"create keyspace if not exists app with replication = {'class': 'NetworkTopologyStrategy', 'dc1': 3, 'dc2': 2}",
		s)

	s, err = g.CompileDropKeyspace("app", true)
	require.NoError(t, err)
	assert.Equal(t, "drop keyspace if exists app", s)

	s, err = g.CompileDropKeyspace("app", false)
	require.NoError(t, err)
	assert.Equal(t, "drop keyspace app", s)

	_, err = g.CompileCreateKeyspace("", false, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	_, err = g.CompileDropKeyspace("", false)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCompileCatalog(t *testing.T) {
	g := ksSchema()
	assert.Equal(t,
		"select * from system_schema.tables where keyspace_name = 'ks'",
		g.CompileTables("ks"))
	assert.Equal(t,
		"select * from system_schema.views where keyspace_name = 'ks'",
		g.CompileViews("ks"))
	assert.Equal(t,
		"select * from system_schema.columns where keyspace_name = 'ks' and table_name = 'users'",
		g.CompileColumns("ks", "users"))
	assert.Equal(t,
		"select * from system_schema.indexes where keyspace_name = 'ks' and table_name = 'o''brien'",
		g.CompileIndexes("ks", "o'brien"))
	assert.Equal(t, "drop table if exists ks.users", g.CompileDropTableIfExists("ks", "users"))
}

func TestCompileView(t *testing.T) {
	v := &MaterializedView{
		Name: "posts_by_tag",
		Base: "posts",
		Columns: map[string]*Column{
			"user_id": {},
			"tag":     {},
			"post_id": {},
		},
		PrimaryKey: &PrimaryKey{
			PartitionColumns: []PKPartitionColumn{{Name: "tag"}},
			ClusteringColumns: []PKClusteringColumn{
				{Name: "user_id"},
				{Name: "post_id", Order: "desc"},
			},
		},
	}
	s, err := ksSchema().CompileCreateView(v)
	require.NoError(t, err)
	golden(t, "create_view", []string{s})

	v.WhereClause = "tag is not null and user_id is not null and post_id is not null and user_id > 0"
	v.Columns = nil
	s, err = ksSchema().CompileCreateView(v)
	require.NoError(t, err)
	assert.Equal(t,
		"create materialized view ks.posts_by_tag as select * from ks.posts "+
			"where tag is not null and user_id is not null and post_id is not null and user_id > 0 "+
			"primary key ((tag), user_id, post_id) with clustering order by (user_id ASC, post_id DESC)",
		s)

	assert.Equal(t, "drop materialized view ks.posts_by_tag", ksSchema().CompileDropView("posts_by_tag", false))
	assert.Equal(t, "drop materialized view if exists ks.v", ksSchema().CompileDropView("v", true))
}

func TestCompileViewInvalid(t *testing.T) {
	_, err := ksSchema().CompileCreateView(&MaterializedView{Name: "v"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = ksSchema().CompileCreateView(&MaterializedView{Name: "v", Base: "t", PrimaryKey: &PrimaryKey{}})
	assert.True(t, errors.Is(err, ErrUnsupported))

	_, err = ksSchema().CompileCreateView(&MaterializedView{
		Name: "v",
		Base: "t",
		PrimaryKey: &PrimaryKey{
			PartitionColumns:  []PKPartitionColumn{{Name: "a"}},
			ClusteringColumns: []PKClusteringColumn{{Name: "b", Order: "random"}},
		},
	})
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestSchemaGrammarUnqualified(t *testing.T) {
	bp := NewBlueprint("users")
	require.NoError(t, bp.DropIndex("by_email"))
	stmts, err := bp.ToStatements(NewSchemaGrammar(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"drop index by_email"}, stmts)

	bp = NewBlueprint("other.users")
	require.NoError(t, bp.DropIndex("by_email"))
	stmts, err = bp.ToStatements(ksSchema())
	require.NoError(t, err)
	assert.Equal(t, []string{"drop index other.by_email"}, stmts)
}
