package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/studio/internal/meta"
)

func newFieldsCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "fields <doctype>",
		Short: "List the value fields of a DocType",
		Long:  "Prints the fields of a DocType that store a value, in order, skipping layout and display-only fields.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(cmd, configPath, args[0], asJSON)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Studio config file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print field descriptors as JSON")
	return cmd
}

func runFields(cmd *cobra.Command, configPath, doctype string, asJSON bool) error {
	_, _, reg, err := registryFromConfig(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	fields, err := meta.GetDocTypeFields(ctx, reg, doctype)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	}

	if len(fields) == 0 {
		fmt.Fprintf(out, "%s has no value fields.\n", doctype)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tFIELDNAME\tFIELDTYPE\tLABEL\tREQD")
	for _, f := range fields {
		reqd := ""
		if f.Reqd {
			reqd = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", f.Idx, f.Fieldname, f.Fieldtype, f.Label, reqd)
	}
	return w.Flush()
}
