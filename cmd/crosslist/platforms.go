package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlatformsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and whether they can be searched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tCAPABILITY\tAUTH\tAVAILABLE")
			for _, p := range a.registry.Platforms() {
				c, err := a.registry.Get(string(p), a.creds.Credentials(p))
				if err != nil {
					fmt.Fprintf(w, "%s\t-\t-\terror: %v\n", p, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p, c.Capability(), yesNo(c.RequiresAuth()), yesNo(c.IsAvailable()))
			}
			return w.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
