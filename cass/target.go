package cass

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/kzaag/cassdp/cmn"
	"github.com/kzaag/cassdp/target"
	"golang.org/x/crypto/ssh/terminal"
)

// TargetConfig reads the dialect settings out of the target args.
func TargetConfig(t *target.Target) (*Config, error) {
	c := &Config{Keyspace: t.Database}
	if v := t.GetString("consistency", ""); v != "" {
		cl, err := ParseConsistency(v)
		if err != nil {
			return nil, err
		}
		c.DefaultConsistency = cl
	}
	if err := t.GetBool("ignore_warnings", &c.IgnoreWarnings); err != nil {
		return nil, err
	}
	return c, nil
}

/*
TargetReplication builds the keyspace replication map from the target args:
replication_class, replication_factor, and replication_<datacenter> for
NetworkTopologyStrategy.
*/
func TargetReplication(t *target.Target) Replication {
	r := Replication{}
	for k, v := range t.Args {
		switch {
		case k == "replication_factor":
			r[k] = v
		case strings.HasPrefix(k, "replication_") && len(k) > len("replication_"):
			r[strings.TrimPrefix(k, "replication_")] = v
		}
	}
	if r["class"] == "" {
		r["class"] = "SimpleStrategy"
	}
	if r["class"] == "SimpleStrategy" && r["replication_factor"] == "" {
		r["replication_factor"] = "1"
	}
	return r
}

func readPassword(t *target.Target) (string, error) {
	fmt.Fprintf(os.Stderr, "password for %s@%s: ", t.User, t.Name)
	b, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func dbNew(ctx context.Context, t *target.Target, uargv *target.Args) (interface{}, error) {
	var timeout, retries, interval int = 10, 1, 2
	for _, a := range []struct {
		name string
		val  *int
	}{{"timeout", &timeout}, {"retries", &retries}, {"interval", &interval}} {
		if err := t.GetInt(a.name, a.val); err != nil {
			return nil, err
		}
	}
	cfg, err := TargetConfig(t)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(t.Server...)
	cluster.Timeout = time.Second * time.Duration(timeout)
	cluster.Consistency = cfg.consistency().Gocql()
	if t.User != "" {
		if t.Password == "" {
			if t.Password, err = readPassword(t); err != nil {
				return nil, err
			}
		}
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: t.User,
			Password: t.Password,
		}
	}

	var sess *gocql.Session
	for {
		if sess, err = cluster.CreateSession(); err == nil {
			break
		}
		retries--
		if retries <= 0 {
			return nil, err
		}
		cmn.CndPrintfln(uargv.Raw, cmn.PrintflnWarn, "    ", "%v, retrying in %ds", err, interval)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second * time.Duration(interval)):
		}
	}
	return NewConn(sess, cfg, uargv.Raw), nil
}

func dbClose(db interface{}) {
	db.(*Conn).Close()
}

func dbExec(ctx context.Context, db interface{}, stmt string) error {
	_, err := db.(*Conn).Exec(ctx, stmt)
	return err
}

func builderOf(db interface{}, t *target.Target) (*Builder, error) {
	cfg, err := TargetConfig(t)
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(db.(Session), cfg)
	if err != nil {
		return nil, err
	}
	b.SetReplication(TargetReplication(t))
	return b, nil
}

func getMergeScript(
	ctx context.Context, db interface{}, t *target.Target, argv []string,
) ([]string, error) {
	local, err := ParserGetObjects(argv...)
	if err != nil {
		return nil, err
	}
	b, err := builderOf(db, t)
	if err != nil {
		return nil, err
	}
	return Merge(ctx, b, local)
}

// keyspace step: creates the target keyspace, or the keyspaces given as args
func getKeyspaceScript(
	ctx context.Context, db interface{}, t *target.Target, argv []string,
) ([]string, error) {
	b, err := builderOf(db, t)
	if err != nil {
		return nil, err
	}
	names := argv
	if len(names) == 0 {
		names = []string{t.Database}
	}
	ret := make([]string, 0, len(names))
	for _, n := range names {
		s, err := b.Grammar().CompileCreateKeyspace(n, true, b.replication)
		if err != nil {
			return nil, err
		}
		ret = append(ret, s)
	}
	return ret, nil
}

func getDropAllScript(
	ctx context.Context, db interface{}, t *target.Target, argv []string,
) ([]string, error) {
	b, err := builderOf(db, t)
	if err != nil {
		return nil, err
	}
	return b.DropAllTablesScript(ctx)
}

func TargetCtxNew() *target.Ctx {
	return &target.Ctx{
		DbClose:  dbClose,
		DbExec:   dbExec,
		DbNew:    dbNew,
		DbPing:   nil,
		DbSuffix: ".cql",
		Generators: map[string]target.Generator{
			"merge":    getMergeScript,
			"keyspace": getKeyspaceScript,
			"drop_all": getDropAllScript,
		},
	}
}

// WithTargetBuilder connects to the target and hands a schema builder to fn.
func WithTargetBuilder(
	ctx context.Context, tctx *target.Ctx, t *target.Target, uargv *target.Args,
	fn func(*Builder) error,
) error {
	db, err := tctx.DbNew(ctx, t, uargv)
	if err != nil {
		return err
	}
	defer tctx.DbClose(db)
	b, err := builderOf(db, t)
	if err != nil {
		return err
	}
	return fn(b)
}
