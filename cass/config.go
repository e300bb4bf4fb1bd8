package cass

// Config is handed explicitly to every grammar, builder and session.
type Config struct {
	// keyspace prefixed to every table reference. empty means unqualified.
	Keyspace string `yaml:"keyspace"`
	// empty resolves to DefaultConsistency
	DefaultConsistency Consistency `yaml:"consistency"`
	IgnoreWarnings     bool        `yaml:"ignore_warnings"`
}

func (c *Config) consistency() Consistency {
	if c == nil {
		return DefaultConsistency
	}
	return c.DefaultConsistency.Or(DefaultConsistency)
}

func (c *Config) keyspace() string {
	if c == nil {
		return ""
	}
	return c.Keyspace
}
