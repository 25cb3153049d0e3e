package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanizio/adept/internal/pluginconfig"
)

// NewConfigCommand builds `pluginctl config`.  Site id 0 addresses the
// plugin's global config.
func NewConfigCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write plugin config entries",
		Long: `Read and write plugin config entries.

Values are JSON.  Storing null removes the entry.

Examples:
  pluginctl config list seo 3
  pluginctl config get seo 3 sitemap
  pluginctl config set seo 0 defaults '{"robots":"index"}'
  pluginctl config rm seo 3 sitemap
  pluginctl config purge seo`,
	}
	cmd.AddCommand(
		newConfigListCommand(env),
		newConfigGetCommand(env),
		newConfigSetCommand(env),
		newConfigRmCommand(env),
		newConfigPurgeCommand(env),
	)
	return cmd
}

// withStore opens a session and hands fn the plugin's store.
func withStore(cmd *cobra.Command, env *Env, pluginID string, fn func(*pluginconfig.Store) error) error {
	sess, err := env.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := sess.Store(pluginID)
	if err != nil {
		return err
	}
	return fn(st)
}

func newConfigListCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list <plugin> <site>",
		Short: "List config names for a site",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := parseSiteID(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, env, args[0], func(st *pluginconfig.Store) error {
				names, err := st.NamesE(cmd.Context(), siteID)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(env.Out, n)
				}
				return nil
			})
		},
	}
}

func newConfigGetCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <plugin> <site> <name>",
		Short: "Print one config value as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := parseSiteID(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, env, args[0], func(st *pluginconfig.Store) error {
				var raw json.RawMessage
				found, err := st.LoadE(cmd.Context(), siteID, args[2], &raw)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("config %q not found for plugin %s site %d", args[2], args[0], siteID)
				}
				fmt.Fprintln(env.Out, string(raw))
				return nil
			})
		},
	}
}

func newConfigSetCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <plugin> <site> <name> <json>",
		Short: "Store one config value",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := parseSiteID(args[1])
			if err != nil {
				return err
			}
			if !json.Valid([]byte(args[3])) {
				return fmt.Errorf("value is not valid JSON: %q", args[3])
			}
			return withStore(cmd, env, args[0], func(st *pluginconfig.Store) error {
				return st.SetE(cmd.Context(), siteID, args[2], json.RawMessage(args[3]))
			})
		},
	}
}

func newConfigRmCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <plugin> <site> <name>",
		Short: "Remove one config value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := parseSiteID(args[1])
			if err != nil {
				return err
			}
			return withStore(cmd, env, args[0], func(st *pluginconfig.Store) error {
				return st.RemoveE(cmd.Context(), siteID, args[2])
			})
		},
	}
}

func newConfigPurgeCommand(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <plugin>",
		Short: "Remove every config entry of a plugin, on all sites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, env, args[0], func(st *pluginconfig.Store) error {
				n, err := st.PurgeE(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(env.Out, "removed %d entries\n", n)
				return nil
			})
		},
	}
}
