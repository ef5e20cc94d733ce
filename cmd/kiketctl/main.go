// kiketctl is the operator CLI for Kiket extensions: secret management
// against the platform API and manifest inspection.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kiket-dev/dispatch"
	"github.com/kiket-dev/dispatch/endpoints"
	"github.com/kiket-dev/dispatch/manifest"
	"github.com/kiket-dev/dispatch/secrets"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kiketctl:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	baseURL        string
	workspaceToken string
	extensionID    string
}

func newRootCmd() *cobra.Command {
	env := dispatch.ConfigFromEnv()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "kiketctl",
		Short:         "Operator tooling for Kiket extensions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", env.BaseURL, "platform API base URL (defaults KIKET_BASE_URL)")
	root.PersistentFlags().StringVar(&flags.workspaceToken, "workspace-token", env.WorkspaceToken, "workspace API token (defaults KIKET_WORKSPACE_TOKEN)")
	root.PersistentFlags().StringVar(&flags.extensionID, "extension", env.ExtensionID, "extension ID (defaults KIKET_EXTENSION_ID)")

	root.AddCommand(newSecretsCmd(flags))
	root.AddCommand(newManifestCmd())
	return root
}

func (f *rootFlags) manager() (*secrets.Manager, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("--base-url or KIKET_BASE_URL is required")
	}
	client := endpoints.NewClient(endpoints.Config{
		BaseURL:        f.baseURL,
		WorkspaceToken: f.workspaceToken,
		ExtensionID:    f.extensionID,
	})
	return client.Secrets(), nil
}

func newSecretsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage stored extension secrets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored secret keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.manager()
			if err != nil {
				return err
			}
			items, err := mgr.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tUPDATED")
			for _, it := range items {
				updated := ""
				if it.UpdatedAt != nil {
					updated = it.UpdatedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%s\t%s\n", it.Key, updated)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a secret value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.manager()
			if err != nil {
				return err
			}
			val, err := mgr.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), val.Value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Create or update a secret",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.manager()
			if err != nil {
				return err
			}
			if err := mgr.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "secret %q set\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate <key>",
		Short: "Replace a secret with a freshly generated value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.manager()
			if err != nil {
				return err
			}
			next, err := mgr.Rotate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), next)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a stored secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := flags.manager()
			if err != nil {
				return err
			}
			if err := mgr.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "secret %q deleted\n", args[0])
			return nil
		},
	})

	return cmd
}

func newManifestCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the extension manifest",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", ".", "directory containing extension.yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the parsed manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Discover(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:    %s\n", m.Name)
			fmt.Fprintf(out, "version: %s\n", m.Version)
			if m.Description != "" {
				fmt.Fprintf(out, "about:   %s\n", m.Description)
			}
			if len(m.Events) > 0 {
				fmt.Fprintln(out, "events:")
				for _, ev := range m.Events {
					version := ev.Version
					if version == "" {
						version = "v1"
					}
					fmt.Fprintf(out, "  %s@%s", ev.Name, version)
					if len(ev.Scopes) > 0 {
						fmt.Fprintf(out, " (scopes: %v)", ev.Scopes)
					}
					fmt.Fprintln(out)
				}
			}
			if len(m.Secrets) > 0 {
				fmt.Fprintln(out, "secrets:")
				for _, key := range m.Secrets {
					fmt.Fprintf(out, "  %s (env %s)\n", key, secrets.EnvName(key))
				}
			}
			return nil
		},
	})

	return cmd
}
