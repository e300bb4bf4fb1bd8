package cass

import (
	"context"
	"fmt"
)

// DB binds queries to a session so they can be executed.
type DB struct {
	sess    Session
	grammar *Grammar
	cfg     Config
}

func NewDB(sess Session, c *Config) (*DB, error) {
	if sess == nil {
		return nil, invalidState("NewDB", "query executor needs a session")
	}
	db := &DB{sess: sess}
	if c != nil {
		db.cfg = *c
	}
	if db.cfg.Keyspace == "" {
		db.cfg.Keyspace = sess.Keyspace()
	}
	db.grammar = NewGrammar(&db.cfg)
	return db, nil
}

func (db *DB) Grammar() *Grammar {
	return db.grammar
}

func (db *DB) Table(name string) *Query {
	q := NewQuery(name)
	q.db = db
	return q
}

func (q *Query) run(ctx context.Context, op, stmt string, args []interface{}) ([]map[string]interface{}, error) {
	if q.db == nil {
		return nil, invalidState(op, "query is not bound to a connection")
	}
	q.db.sess.SetConsistency(q.Consistency.Or(q.db.cfg.consistency()))
	q.db.sess.SetIgnoreWarnings(q.db.cfg.IgnoreWarnings)
	rows, err := q.db.sess.Exec(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	return rows, nil
}

func (q *Query) grammar(op string) (*Grammar, error) {
	if q.db == nil {
		return nil, invalidState(op, "query is not bound to a connection")
	}
	return q.db.grammar, nil
}

func (q *Query) Get(ctx context.Context) ([]map[string]interface{}, error) {
	g, err := q.grammar("Get")
	if err != nil {
		return nil, err
	}
	stmt, args, err := g.CompileSelect(q)
	if err != nil {
		return nil, err
	}
	return q.run(ctx, "Get", stmt, args)
}

// First returns nil without error when nothing matches.
func (q *Query) First(ctx context.Context) (map[string]interface{}, error) {
	rows, err := q.clone().Take(1).Get(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (q *Query) Count(ctx context.Context) (int64, error) {
	rows, err := q.clone().SelectAggregate("count").Get(ctx)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	switch v := rows[0]["aggregate"].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	}
	return 0, invalidState("Count", "unexpected aggregate value %v", rows[0]["aggregate"])
}

func (q *Query) Insert(ctx context.Context, values interface{}) error {
	g, err := q.grammar("Insert")
	if err != nil {
		return err
	}
	stmt, args, err := g.CompileInsert(q, values)
	if err != nil {
		return err
	}
	_, err = q.run(ctx, "Insert", stmt, args)
	return err
}

func (q *Query) Update(ctx context.Context, values map[string]interface{}) error {
	g, err := q.grammar("Update")
	if err != nil {
		return err
	}
	stmt, args, err := g.CompileUpdate(q, values)
	if err != nil {
		return err
	}
	_, err = q.run(ctx, "Update", stmt, args)
	return err
}

func (q *Query) Delete(ctx context.Context) error {
	g, err := q.grammar("Delete")
	if err != nil {
		return err
	}
	stmt, args, err := g.CompileDelete(q)
	if err != nil {
		return err
	}
	_, err = q.run(ctx, "Delete", stmt, args)
	return err
}

func (q *Query) Truncate(ctx context.Context) error {
	g, err := q.grammar("Truncate")
	if err != nil {
		return err
	}
	if q.err != nil {
		return q.err
	}
	_, err = q.run(ctx, "Truncate", g.CompileTruncate(q), nil)
	return err
}

// ToCQL renders the select with its bindings inlined.
func (q *Query) ToCQL() (string, error) {
	g, err := q.grammar("ToCQL")
	if err != nil {
		return "", err
	}
	stmt, args, err := g.CompileSelect(q)
	if err != nil {
		return "", err
	}
	return g.Substitute(stmt, args)
}
