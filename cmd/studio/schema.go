package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/studio/internal/meta"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "DocType schema commands",
	}

	cmd.AddCommand(newSchemaSyncCmd())
	return cmd
}

func newSchemaSyncCmd() *cobra.Command {
	var (
		configPath string
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync DocType definitions into the database",
		Long:  "Reads every .json/.yaml/.yml DocType definition under the schema directory and upserts it, replacing each DocType's fields.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaSync(cmd, configPath, dir)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().StringVar(&dir, "dir", "", "definition directory (defaults to schema.dir from config)")
	return cmd
}

func runSchemaSync(cmd *cobra.Command, configPath, dir string) error {
	cfg, _, reg, err := registryFromConfig(configPath)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = cfg.Schema.Dir
	}
	if dir == "" {
		return fmt.Errorf("no schema directory: set schema.dir in %s or pass --dir", configPath)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := reg.SyncDir(ctx, dir)
	if err != nil {
		return err
	}
	printSyncResult(cmd.OutOrStdout(), res)
	return nil
}

func printSyncResult(out io.Writer, res *meta.SyncResult) {
	fmt.Fprintf(out, "Synced %d doctypes (%d new, %d updated), %d fields\n",
		len(res.Created)+len(res.Updated), len(res.Created), len(res.Updated), res.Fields)
	if len(res.Created) > 0 {
		fmt.Fprintf(out, "  created: %s\n", strings.Join(res.Created, ", "))
	}
	if len(res.Updated) > 0 {
		fmt.Fprintf(out, "  updated: %s\n", strings.Join(res.Updated, ", "))
	}
}
