package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPluginsCommand builds `pluginctl plugins`.
func NewPluginsCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect installed plugins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plugins discovered in plugins.dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := env.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVERSION\tDB OVERRIDE")
			for _, m := range sess.Registry.All() {
				override := "-"
				if m.DatabaseType != "" || m.ConnectionString != "" {
					override = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, m.DisplayName(), m.Version, override)
			}
			return tw.Flush()
		},
	})
	return cmd
}
