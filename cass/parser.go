package cass

import (
	"fmt"
	"strings"

	"github.com/kzaag/cassdp/cmn"
	"gopkg.in/yaml.v2"
)

// Objects are the tables and views declared in yaml sources, by name.
type Objects struct {
	Tables map[string]*Table
	Views  map[string]*MaterializedView
}

func NewObjects() *Objects {
	return &Objects{
		Tables: make(map[string]*Table),
		Views:  make(map[string]*MaterializedView),
	}
}

var sourceExts = []string{".yml", ".yaml"}

func validatePK(pk *PrimaryKey, columns map[string]*Column, what, path string) error {
	if pk == nil || len(pk.PartitionColumns) == 0 {
		return fmt.Errorf("validate %s: %s doesnt have a partition key", path, what)
	}
	for i := range pk.PartitionColumns {
		c := &pk.PartitionColumns[i]
		c.Position = i
		if columns != nil && columns[c.Name] == nil {
			return fmt.Errorf("validate %s: %s key column %s is not declared", path, what, c.Name)
		}
	}
	for i := range pk.ClusteringColumns {
		c := &pk.ClusteringColumns[i]
		c.Position = i
		o, err := normalizeOrder("Clustering", c.Order)
		if err != nil {
			return fmt.Errorf("validate %s: %s column %s: %w", path, what, c.Name, err)
		}
		c.Order = o
		if columns != nil && columns[c.Name] == nil {
			return fmt.Errorf("validate %s: %s key column %s is not declared", path, what, c.Name)
		}
	}
	return nil
}

func ParserValidateView(v *MaterializedView, path string) error {
	if v.Name == "" {
		return fmt.Errorf("validate %s: view doesnt have name specified", path)
	}
	if v.Base == "" {
		return fmt.Errorf("validate %s: view %s doesnt have base table specified", path, v.Name)
	}
	for k := range v.Columns {
		if v.Columns[k] == nil {
			v.Columns[k] = &Column{}
		}
		v.Columns[k].Name = k
	}
	return validatePK(v.PrimaryKey, nil, "view "+v.Name, path)
}

func ParserValidateTable(t *Table, path string) error {
	if t.Name == "" {
		return fmt.Errorf("validate %s: table doesnt have name specified", path)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("validate %s: table %s doesnt have columns", path, t.Name)
	}
	for k := range t.Columns {
		c := t.Columns[k]
		if c == nil || c.Type == "" {
			return fmt.Errorf("validate %s: column %s doesnt specify type", path, k)
		}
		c.Name = k
		n, err := NormalizeType(c.Type)
		if err != nil {
			return fmt.Errorf("validate %s: column %s: %w", path, k, err)
		}
		c.Type = n
	}
	for k, ix := range t.SASIIndexes {
		if ix == nil || t.Columns[ix.Column] == nil {
			return fmt.Errorf("validate %s: sasi index %s has no valid column", path, k)
		}
		ix.Name = k
	}
	return validatePK(t.PrimaryKey, t.Columns, "table "+t.Name, path)
}

// ParseObject reads one yaml document holding either a table or a view.
func (o *Objects) ParseObject(path string, fc []byte) error {
	var obj struct {
		Table *Table
		View  *MaterializedView
	}
	if err := yaml.Unmarshal(fc, &obj); err != nil {
		return fmt.Errorf("couldnt unmarshal %s: %v", path, err)
	}
	if (obj.Table != nil) == (obj.View != nil) {
		return fmt.Errorf("couldnt validate %s: file must declare exactly one table or view", path)
	}
	if obj.Table != nil {
		if err := ParserValidateTable(obj.Table, path); err != nil {
			return err
		}
		if _, ok := o.Tables[obj.Table.Name]; ok {
			return fmt.Errorf("%s: table %s declared twice", path, obj.Table.Name)
		}
		o.Tables[obj.Table.Name] = obj.Table
		return nil
	}
	if err := ParserValidateView(obj.View, path); err != nil {
		return err
	}
	if _, ok := o.Views[obj.View.Name]; ok {
		return fmt.Errorf("%s: view %s declared twice", path, obj.View.Name)
	}
	o.Views[obj.View.Name] = obj.View
	return nil
}

// ParserGetObjects reads every .yml / .yaml file under the given paths.
func ParserGetObjects(paths ...string) (*Objects, error) {
	o := NewObjects()
	for _, p := range paths {
		if err := cmn.WalkSource(p, sourceExts, o.ParseObject); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func clusteringOrderOf(c *PKClusteringColumn) string {
	o := strings.ToUpper(c.Order)
	if o == "" || o == "NONE" {
		return "ASC"
	}
	return o
}
