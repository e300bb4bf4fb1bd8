package main

import (
	"github.com/kzaag/cassdp/cass"
	"github.com/kzaag/cassdp/cmn"
	"github.com/kzaag/cassdp/target"
	"github.com/spf13/cobra"
)

func newRootCommand(args *target.Args) *cobra.Command {
	run := newRunCommand(args)
	cmd := &cobra.Command{
		Use:           "cassdp",
		Short:         "cassdp - schema deployment for cassandra keyspaces",
		Long:          "Runs the exec steps of every target in the config: statements, cql scripts, yaml schema merges.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          run.RunE,
	}

	args.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(run)
	cmd.AddCommand(newDescribeCommand(args))
	cmd.AddCommand(newTablesCommand(args))
	return cmd
}

func newRunCommand(args *target.Args) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the exec steps of all targets (dry run unless -e)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := target.NewConfigFromPath(args.ConfigPath, args)
			if err != nil {
				return err
			}
			return cass.TargetCtxNew().ExecConfig(cmd.Context(), c, args)
		},
	}
}

func withBuilder(cmd *cobra.Command, args *target.Args, fn func(*cass.Builder) error) error {
	c, err := target.NewConfigFromPath(args.ConfigPath, args)
	if err != nil {
		return err
	}
	t, err := c.Find(args.Target)
	if err != nil {
		return err
	}
	return cass.WithTargetBuilder(cmd.Context(), cass.TargetCtxNew(), t, args, fn)
}

func newDescribeCommand(args *target.Args) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <table>",
		Short: "Print the columns, key and indexes of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return withBuilder(cmd, args, func(b *cass.Builder) error {
				ctx := cmd.Context()
				cols, err := b.GetColumns(ctx, argv[0])
				if err != nil {
					return err
				}
				if len(cols) == 0 {
					cmn.CndPrintfln(args.Raw, cmn.PrintflnWarn, "", "table %s not found", argv[0])
					return nil
				}
				for _, c := range cols {
					role := c.Kind
					if c.ClusteringOrder != "" {
						role += " " + c.ClusteringOrder
					}
					cmn.CndPrintfln(args.Raw, cmn.PrintflnNotify, "", "%s %s (%s)", c.Name, c.Type, role)
				}
				idx, err := b.GetIndexes(ctx, argv[0])
				if err != nil {
					return err
				}
				for _, ix := range idx {
					kind := ix.Kind
					if ix.IsSASI() {
						kind = "SASI"
					}
					cmn.CndPrintfln(args.Raw, cmn.PrintflnNotify, "", "index %s on %s (%s)", ix.Name, ix.Target, kind)
				}
				return nil
			})
		},
	}
}

func newTablesCommand(args *target.Args) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables and materialized views of the target keyspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBuilder(cmd, args, func(b *cass.Builder) error {
				tables, err := b.GetTables(cmd.Context())
				if err != nil {
					return err
				}
				for _, t := range tables {
					cmn.CndPrintln(args.Raw, cmn.PrintflnNotify, "", t.Name)
				}
				views, err := b.GetViews(cmd.Context())
				if err != nil {
					return err
				}
				for _, v := range views {
					cmn.CndPrintfln(args.Raw, cmn.PrintflnNotify, "", "%s (view of %s)", v.Name, v.BaseTable)
				}
				return nil
			})
		},
	}
}
