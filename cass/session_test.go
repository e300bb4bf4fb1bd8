package cass

import (
	"context"
	"errors"
	"strings"
)

type execCall struct {
	stmt           string
	args           []interface{}
	consistency    Consistency
	ignoreWarnings bool
}

// fakeSession records what would have been sent to the cluster.
type fakeSession struct {
	keyspace       string
	consistency    Consistency
	ignoreWarnings bool
	calls          []execCall
	// rows per statement prefix
	rows  map[string][]map[string]interface{}
	errOn string
}

var errFake = errors.New("fake: request failed")

func newFakeSession(keyspace string) *fakeSession {
	return &fakeSession{keyspace: keyspace, rows: make(map[string][]map[string]interface{})}
}

func (s *fakeSession) Exec(ctx context.Context, stmt string, args ...interface{}) ([]map[string]interface{}, error) {
	s.calls = append(s.calls, execCall{stmt, args, s.consistency, s.ignoreWarnings})
	if s.errOn != "" && strings.Contains(stmt, s.errOn) {
		return nil, errFake
	}
	for prefix, rows := range s.rows {
		if strings.HasPrefix(stmt, prefix) {
			return rows, nil
		}
	}
	return nil, nil
}

func (s *fakeSession) Keyspace() string {
	return s.keyspace
}

func (s *fakeSession) SetConsistency(c Consistency) {
	s.consistency = c
}

func (s *fakeSession) SetIgnoreWarnings(ignore bool) {
	s.ignoreWarnings = ignore
}

func (s *fakeSession) stmts() []string {
	ret := make([]string, len(s.calls))
	for i := range s.calls {
		ret[i] = s.calls[i].stmt
	}
	return ret
}

func columnRow(table, name, typ, kind string, pos int, order string) map[string]interface{} {
	return map[string]interface{}{
		"keyspace_name":    "ks",
		"table_name":       table,
		"column_name":      name,
		"type":             typ,
		"kind":             kind,
		"position":         pos,
		"clustering_order": order,
	}
}
