package cass

import (
	"context"
	"sort"
)

// true if both keys are the same
func MergeCmpPK(p1, p2 *PrimaryKey) bool {
	if p1 == nil || p2 == nil {
		return p1 == p2
	}
	if len(p1.ClusteringColumns) != len(p2.ClusteringColumns) {
		return false
	}
	if len(p1.PartitionColumns) != len(p2.PartitionColumns) {
		return false
	}
	for i := range p1.ClusteringColumns {
		c1, c2 := &p1.ClusteringColumns[i], &p2.ClusteringColumns[i]
		if c1.Name != c2.Name || clusteringOrderOf(c1) != clusteringOrderOf(c2) {
			return false
		}
	}
	for i := range p1.PartitionColumns {
		if p2.PartitionColumns[i].Name != p1.PartitionColumns[i].Name {
			return false
		}
	}
	return true
}

func sortedNames(m interface{}) []string {
	var ret []string
	switch v := m.(type) {
	case map[string]*Table:
		for k := range v {
			ret = append(ret, k)
		}
	case map[string]*MaterializedView:
		for k := range v {
			ret = append(ret, k)
		}
	case map[string]*Column:
		for k := range v {
			ret = append(ret, k)
		}
	case map[string]*SASIIndex:
		for k := range v {
			ret = append(ret, k)
		}
	}
	sort.Strings(ret)
	return ret
}

func addColumn(bp *Blueprint, c *Column) error {
	t, elems, frozen, err := ParseColumnType(c.Type)
	if err != nil {
		return err
	}
	var def *ColumnDefinition
	if frozen {
		def = bp.Frozen(c.Name, t, elems...)
	} else {
		def = bp.AddColumn(t, c.Name, elems...)
	}
	if c.Static {
		def.Static()
	}
	return bp.Err()
}

/*
TableBlueprint turns a declared table into a create blueprint.
Key columns come first in key order, the rest by name.
*/
func TableBlueprint(t *Table) (*Blueprint, error) {
	bp := NewCreateBlueprint(t.Name)
	part, clust := pkFromModel(t.PrimaryKey)
	seen := make(map[string]bool)
	var order []string
	for _, p := range part {
		order = append(order, p)
		seen[p] = true
	}
	for _, c := range clust {
		order = append(order, c.Name)
		seen[c.Name] = true
	}
	for _, n := range sortedNames(t.Columns) {
		if !seen[n] {
			order = append(order, n)
		}
	}
	for _, n := range order {
		c := t.Columns[n]
		if c == nil {
			return nil, invalidArgument("TableBlueprint", "key column %s of %s is not declared", n, t.Name)
		}
		c.Name = n
		if err := addColumn(bp, c); err != nil {
			return nil, err
		}
	}
	if err := bp.Partition(part...); err != nil {
		return nil, err
	}
	for _, c := range clust {
		if err := bp.Clustering(c.Order, c.Name); err != nil {
			return nil, err
		}
	}
	for _, n := range sortedNames(t.SASIIndexes) {
		ix := t.SASIIndexes[n]
		if err := bp.SASIIndex(ix.Column, n); err != nil {
			return nil, err
		}
	}
	return bp, nil
}

/*
Merger diffs declared tables and views against what the keyspace holds.
Drops are emitted before creates, views are dropped before their tables.
*/
type Merger struct {
	grammar *SchemaGrammar
	drop    []string
	create  []string
	// tables dropped and recreated, their views go with them
	recreated map[string]bool
}

func NewMerger(g *SchemaGrammar) *Merger {
	return &Merger{grammar: g, recreated: make(map[string]bool)}
}

func (m *Merger) emit(drop bool, bp *Blueprint) error {
	s, err := bp.ToStatements(m.grammar)
	if err != nil {
		return err
	}
	if drop {
		m.drop = append(m.drop, s...)
	} else {
		m.create = append(m.create, s...)
	}
	return nil
}

func (m *Merger) createTable(lt *Table) error {
	bp, err := TableBlueprint(lt)
	if err != nil {
		return err
	}
	return m.emit(false, bp)
}

func (m *Merger) mergeColumns(lt, rt *Table) error {
	add := NewBlueprint(lt.Name)
	drop := NewBlueprint(lt.Name)

	for _, n := range sortedNames(lt.Columns) {
		lc := lt.Columns[n]
		lc.Name = n
		rc, ok := rt.Columns[n]
		if !ok {
			if err := addColumn(add, lc); err != nil {
				return err
			}
			continue
		}
		rtype, err := NormalizeType(rc.Type)
		if err != nil {
			return err
		}
		ltype, err := NormalizeType(lc.Type)
		if err != nil {
			return err
		}
		if rtype != ltype {
			return unsupported("Merge", "column "+lt.Name+"."+n+" cannot change type from "+rtype+" to "+ltype)
		}
	}

	for _, n := range sortedNames(rt.SASIIndexes) {
		if lix, ok := lt.SASIIndexes[n]; !ok || lix.Column != rt.SASIIndexes[n].Column {
			if err := drop.DropIndex(n); err != nil {
				return err
			}
		}
	}
	// indexes go before the columns they are built on
	var dropped []string
	for _, n := range sortedNames(rt.Columns) {
		if _, ok := lt.Columns[n]; !ok {
			dropped = append(dropped, n)
		}
	}
	if len(dropped) > 0 {
		if err := drop.DropColumn(dropped...); err != nil {
			return err
		}
	}

	for _, n := range sortedNames(lt.SASIIndexes) {
		if rix, ok := rt.SASIIndexes[n]; !ok || rix.Column != lt.SASIIndexes[n].Column {
			if err := add.SASIIndex(lt.SASIIndexes[n].Column, n); err != nil {
				return err
			}
		}
	}

	if err := m.emit(true, drop); err != nil {
		return err
	}
	return m.emit(false, add)
}

func (m *Merger) MergeTables(local, remote map[string]*Table) error {
	for _, n := range sortedNames(local) {
		lt := local[n]
		rt, ok := remote[n]
		switch {
		case !ok:
			if err := m.createTable(lt); err != nil {
				return err
			}
		case MergeCmpPK(lt.PrimaryKey, rt.PrimaryKey):
			if err := m.mergeColumns(lt, rt); err != nil {
				return err
			}
		default:
			// the key of an existing table cannot change
			m.recreated[n] = true
			bp := NewBlueprint(n)
			bp.Drop()
			if err := m.emit(true, bp); err != nil {
				return err
			}
			if err := m.createTable(lt); err != nil {
				return err
			}
		}
	}
	return nil
}

func viewChanged(lv, rv *MaterializedView) bool {
	return lv.Base != rv.Base || !MergeCmpPK(lv.PrimaryKey, rv.PrimaryKey)
}

func (m *Merger) MergeViews(local, remote map[string]*MaterializedView) error {
	var drops []string
	for _, n := range sortedNames(remote) {
		rv := remote[n]
		lv, ok := local[n]
		if !ok || m.recreated[rv.Base] || viewChanged(lv, rv) {
			drops = append(drops, m.grammar.CompileDropView(n, false))
		}
	}
	// views must go before the tables they are built on
	m.drop = append(drops, m.drop...)

	for _, n := range sortedNames(local) {
		lv := local[n]
		rv, ok := remote[n]
		if ok && !m.recreated[rv.Base] && !viewChanged(lv, rv) {
			continue
		}
		s, err := m.grammar.CompileCreateView(lv)
		if err != nil {
			return err
		}
		m.create = append(m.create, s)
	}
	return nil
}

// Script returns the drop statements followed by the create statements.
func (m *Merger) Script() []string {
	ret := make([]string, 0, len(m.drop)+len(m.create))
	ret = append(ret, m.drop...)
	return append(ret, m.create...)
}

/*
Merge introspects the keyspace through the builder and returns the
statements that bring it to the declared state. Nothing is executed.
*/
func Merge(ctx context.Context, b *Builder, local *Objects) ([]string, error) {
	remoteTables, err := RemoteGetMatchingTables(ctx, b, local.Tables)
	if err != nil {
		return nil, err
	}
	remoteViews, err := RemoteGetViews(ctx, b)
	if err != nil {
		return nil, err
	}
	m := NewMerger(b.Grammar())
	if err := m.MergeTables(local.Tables, remoteTables); err != nil {
		return nil, err
	}
	if err := m.MergeViews(local.Views, remoteViews); err != nil {
		return nil, err
	}
	return m.Script(), nil
}
