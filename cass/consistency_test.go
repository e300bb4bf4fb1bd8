package cass

import (
	"errors"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParseConsistency(t *testing.T) {
	for _, c := range Consistencies() {
		got, err := ParseConsistency(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.True(t, got.Valid())
	}

	got, err := ParseConsistency(" local_quorum ")
	require.NoError(t, err)
	assert.Equal(t, LocalQuorum, got)

	_, err = ParseConsistency("MOST")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestConsistencyCount(t *testing.T) {
	assert.Len(t, Consistencies(), 11)
	assert.Equal(t, LocalOne, DefaultConsistency)
}

func TestConsistencyOr(t *testing.T) {
	assert.Equal(t, Quorum, Consistency("").Or(Quorum))
	assert.Equal(t, One, One.Or(Quorum))
}

func TestConsistencyGocql(t *testing.T) {
	assert.Equal(t, gocql.Quorum, Quorum.Gocql())
	assert.Equal(t, gocql.LocalOne, LocalOne.Gocql())
	assert.Equal(t, gocql.Consistency(gocql.Serial), Serial.Gocql())
	assert.Equal(t, gocql.LocalOne, Consistency("bogus").Gocql())
}

func TestConsistencyYAML(t *testing.T) {
	var c Config
	require.NoError(t, yaml.Unmarshal([]byte("keyspace: ks\nconsistency: each_quorum\nignore_warnings: true\n"), &c))
	assert.Equal(t, Config{Keyspace: "ks", DefaultConsistency: EachQuorum, IgnoreWarnings: true}, c)

	err := yaml.Unmarshal([]byte("consistency: sometimes\n"), &c)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	var c *Config
	assert.Equal(t, LocalOne, c.consistency())
	assert.Equal(t, "", c.keyspace())
	assert.Equal(t, Two, (&Config{DefaultConsistency: Two}).consistency())
}

func TestErrorMatching(t *testing.T) {
	err := unsupported("WhereBetween", "between predicates are not supported")
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.True(t, errors.Is(err, &Error{Kind: KindUnsupported, Op: "WhereBetween"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindUnsupported, Op: "WhereLike"}))
	assert.Equal(t, "cass: unsupported operation: WhereBetween: between predicates are not supported", err.Error())

	var ce *Error
	require.True(t, errors.As(invalidState("NewBuilder", "no session"), &ce))
	assert.Equal(t, KindInvalidState, ce.Kind)
}
