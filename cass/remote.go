package cass

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/kzaag/cassdp/cmn"
)

/*
Conn is the gocql backed Session.
Server warnings are printed as they arrive unless ignored.
*/
type Conn struct {
	sess           *gocql.Session
	keyspace       string
	consistency    Consistency
	ignoreWarnings bool
	raw            bool
}

var _ Session = (*Conn)(nil)

// NewConn wraps an open gocql session. raw disables ansi formatting of warnings.
func NewConn(sess *gocql.Session, c *Config, raw bool) *Conn {
	ret := &Conn{sess: sess, raw: raw}
	if c != nil {
		ret.keyspace = c.Keyspace
		ret.consistency = c.DefaultConsistency
		ret.ignoreWarnings = c.IgnoreWarnings
	}
	return ret
}

func (c *Conn) Keyspace() string {
	return c.keyspace
}

func (c *Conn) SetConsistency(cl Consistency) {
	c.consistency = cl
}

func (c *Conn) SetIgnoreWarnings(ignore bool) {
	c.ignoreWarnings = ignore
}

func (c *Conn) Exec(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error) {
	q := c.sess.Query(stmt, args...).
		WithContext(ctx).
		Consistency(c.consistency.Or(DefaultConsistency).Gocql())
	iter := q.Iter()

	// warnings live in the frame, which is released by Close
	if !c.ignoreWarnings {
		for _, w := range iter.Warnings() {
			cmn.CndPrintfln(c.raw, cmn.PrintflnWarn, "    ", "%s", w)
		}
	}

	var rows []map[string]interface{}
	for {
		row := make(map[string]interface{})
		if !iter.MapScan(row) {
			break
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("cass: exec: %w", err)
	}
	return rows, nil
}

func (c *Conn) Close() {
	c.sess.Close()
}

func remoteColumns(cols []Column) map[string]*Column {
	ret := make(map[string]*Column, len(cols))
	for i := range cols {
		c := cols[i]
		c.Static = c.Kind == KindStatic
		ret[c.Name] = &c
	}
	return ret
}

// RemoteGetMatchingTables introspects the keyspace tables that are also declared locally.
func RemoteGetMatchingTables(
	ctx context.Context, b *Builder, tables map[string]*Table,
) (map[string]*Table, error) {
	infos, err := b.GetTables(ctx)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]*Table)
	for _, ti := range infos {
		if _, ok := tables[ti.Name]; !ok {
			continue
		}
		cols, err := b.GetColumns(ctx, ti.Name)
		if err != nil {
			return nil, err
		}
		idx, err := b.GetIndexes(ctx, ti.Name)
		if err != nil {
			return nil, err
		}
		t := &Table{
			Name:        ti.Name,
			Columns:     remoteColumns(cols),
			PrimaryKey:  primaryKeyOf(cols),
			SASIIndexes: make(map[string]*SASIIndex),
		}
		for i := range idx {
			if !idx[i].IsSASI() {
				continue
			}
			if idx[i].Target == "" {
				return nil, fmt.Errorf("couldnt find target for sasi index %s", idx[i].Name)
			}
			t.SASIIndexes[idx[i].Name] = &SASIIndex{Name: idx[i].Name, Column: idx[i].Target}
		}
		ret[t.Name] = t
	}
	return ret, nil
}

func RemoteGetViews(ctx context.Context, b *Builder) (map[string]*MaterializedView, error) {
	infos, err := b.GetViews(ctx)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]*MaterializedView)
	for _, vi := range infos {
		cols, err := b.GetColumns(ctx, vi.Name)
		if err != nil {
			return nil, err
		}
		ret[vi.Name] = &MaterializedView{
			Name:        vi.Name,
			Base:        vi.BaseTable,
			Columns:     remoteColumns(cols),
			WhereClause: vi.WhereClause,
			PrimaryKey:  primaryKeyOf(cols),
		}
	}
	return ret, nil
}
