package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/filmdev-mcp/internal/params"
)

func newPresetsCmd() *cobra.Command {
	var fields bool

	cmd := &cobra.Command{
		Use:   "presets [kind]",
		Short: "Print factory presets as JSON",
		Long: "Print the factory parameter presets as JSON. With a kind (" +
			kindList() + ") only that preset is printed. The output can be edited " +
			"and passed back to develop with --params.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if fields {
				for _, f := range params.Fields() {
					fmt.Fprintln(out, f)
				}
				return nil
			}

			var v interface{}
			if len(args) == 1 {
				p, err := params.Preset(args[0])
				if err != nil {
					return err
				}
				v = p
			} else {
				all := make(map[string]params.EditParameters, len(params.Kinds))
				for _, k := range params.Kinds {
					all[k.String()] = params.ForKind(k)
				}
				v = all
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	cmd.Flags().BoolVar(&fields, "fields", false, "list the parameter keys accepted by --set instead")
	return cmd
}

func kindList() string {
	names := make([]string, len(params.Kinds))
	for i, k := range params.Kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
