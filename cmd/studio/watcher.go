package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/studio/internal/watcher"
)

func newWatcherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watcher",
		Short: "Studio Page watcher commands",
	}

	cmd.AddCommand(newWatcherAddCmd())
	cmd.AddCommand(newWatcherListCmd())
	cmd.AddCommand(newWatcherRemoveCmd())
	return cmd
}

func newWatcherAddCmd() *cobra.Command {
	var (
		configPath string
		pageName   string
		opts       watcher.Opts
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a watcher to a page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcherAdd(cmd, configPath, pageName, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().StringVar(&pageName, "page", "", "owning page name (required)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "watched source expression")
	cmd.Flags().StringVar(&opts.Script, "script", "", "script to run when the source changes")
	cmd.Flags().BoolVar(&opts.Immediate, "immediate", false, "run the script once on page load")
	cmd.MarkFlagRequired("page")
	return cmd
}

func runWatcherAdd(cmd *cobra.Command, configPath, pageName string, opts watcher.Opts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := watcher.Add(ctx, gormDB, pageName, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added watcher %s to %s at row %d\n", w.Name, w.Parent, w.Idx)
	return nil
}

func newWatcherListCmd() *cobra.Command {
	var (
		configPath string
		pageName   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page's watchers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcherList(cmd, configPath, pageName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().StringVar(&pageName, "page", "", "owning page name (required)")
	cmd.MarkFlagRequired("page")
	return cmd
}

func runWatcherList(cmd *cobra.Command, configPath, pageName string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := watcher.List(ctx, gormDB, pageName)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "Page %s has no watchers.\n", pageName)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tNAME\tSOURCE\tIMMEDIATE\tSCRIPT")
	for _, row := range rows {
		immediate := ""
		if row.Immediate {
			immediate = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", row.Idx, row.Name, row.Source, immediate, firstLine(row.Script, 40))
	}
	return w.Flush()
}

func newWatcherRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a watcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcherRemove(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	return cmd
}

func runWatcherRemove(cmd *cobra.Command, configPath, name string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := watcher.Remove(ctx, gormDB, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed watcher %s\n", name)
	return nil
}

// firstLine returns the first line of s, cut to at most n runes.
func firstLine(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
