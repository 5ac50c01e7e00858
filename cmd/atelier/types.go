package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/atelier/bootstrap"
	"pkt.systems/atelier/internal/appconfig"
)

func newTypesCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the panel type catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			entries, err := bootstrap.LoadEntries(cfg.Catalog.File)
			if err != nil {
				return err
			}
			return printTypes(cmd, entries)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func printTypes(cmd *cobra.Command, entries []bootstrap.PanelEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTITLE\tRENDER TARGET\tSECTION")
	for _, entry := range entries {
		section := ""
		if entry.Section {
			section = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Key, entry.Title, entry.RenderTarget, section)
	}
	return w.Flush()
}
