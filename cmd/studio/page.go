package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/studio/internal/page"
)

func newPageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Studio Page commands",
	}

	cmd.AddCommand(newPageCreateCmd())
	cmd.AddCommand(newPageListCmd())
	cmd.AddCommand(newPageUpdateCmd())
	cmd.AddCommand(newPagePublishCmd())
	cmd.AddCommand(newPageDeleteCmd())
	return cmd
}

func newPageCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       page.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a Studio Page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageCreate(cmd, configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().StringVar(&opts.Title, "title", "", "page title (required)")
	cmd.Flags().StringVar(&opts.Route, "route", "", "page route (derived from title if empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "page name (generated if empty)")
	cmd.MarkFlagRequired("title")
	return cmd
}

func runPageCreate(cmd *cobra.Command, configPath string, opts page.CreateOpts) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := page.Create(ctx, gormDB, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created page %s: %s (/%s)\n", p.Name, p.PageTitle, p.Route)
	return nil
}

func newPageListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Studio Pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageList(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	return cmd
}

func runPageList(cmd *cobra.Command, configPath string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pages, err := page.List(ctx, gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tROUTE\tMODIFIED")
	for _, p := range pages {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.PageTitle, p.Route, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func newPageUpdateCmd() *cobra.Command {
	var (
		configPath string
		title      string
		route      string
		draftFile  string
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a Studio Page",
		Long: `Changes the title, route or draft blocks of a page. Only the flags given
are applied. --route "" re-derives the route from the title. --draft-file
reads the draft block tree (JSON) from a file, or from stdin with "-".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts page.UpdateOpts
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("route") {
				opts.Route = &route
			}
			if cmd.Flags().Changed("draft-file") {
				draft, err := readDraft(cmd, draftFile)
				if err != nil {
					return err
				}
				opts.DraftBlocks = &draft
			}
			return runPageUpdate(cmd, configPath, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().StringVar(&title, "title", "", "new page title")
	cmd.Flags().StringVar(&route, "route", "", "new page route")
	cmd.Flags().StringVar(&draftFile, "draft-file", "", "file holding the draft blocks JSON (- for stdin)")
	return cmd
}

func readDraft(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read draft blocks: %w", err)
	}
	return string(data), nil
}

func runPageUpdate(cmd *cobra.Command, configPath, name string, opts page.UpdateOpts) error {
	if opts.Title == nil && opts.Route == nil && opts.DraftBlocks == nil {
		return fmt.Errorf("nothing to update: pass --title, --route or --draft-file")
	}
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := page.Update(ctx, gormDB, name, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated page %s: %s (/%s)\n", p.Name, p.PageTitle, p.Route)
	return nil
}

func newPagePublishCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "publish <name>",
		Short: "Publish a page's draft blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPagePublish(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	return cmd
}

func runPagePublish(cmd *cobra.Command, configPath, name string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := page.Publish(ctx, gormDB, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published page %s at /%s\n", p.Name, p.Route)
	return nil
}

func newPageDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a page and its watchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPageDelete(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	return cmd
}

func runPageDelete(cmd *cobra.Command, configPath, name string) error {
	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := page.Delete(ctx, gormDB, name); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted page %s\n", name)
	return nil
}
