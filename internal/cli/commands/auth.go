package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/nanowrimo/internal/cli/ui"
	"github.com/conduit-lang/nanowrimo/pkg/nano/model"
)

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		Long: `Log in with the configured account.

With the redis session backend the token is saved and reused by later
commands until it expires or you log out. Credentials come from nano.yaml,
NANO_AUTH_IDENTIFIER and NANO_AUTH_SECRET, or an interactive prompt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authenticated(cmd.Context()); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Logged in as "+a.cfg.Auth.Identifier, a.noColor)
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Logged out "+a.cfg.Auth.Identifier, a.noColor)
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	var includes []string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			include, err := resolveKinds(includes)
			if err != nil {
				return err
			}
			c, err := a.authenticated(cmd.Context())
			if err != nil {
				return err
			}

			item, err := c.CurrentUser(cmd.Context(), include...)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), item)
			}

			user, err := model.AttributesAs[*model.UserAttributes](&item.Data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ui.Header(out, fmt.Sprintf("%s (%d)", user.Name, item.Data.ID), a.noColor)
			table := ui.NewKeyValueTable(out, a.noColor)
			table.AddRow("slug", user.Slug)
			table.AddRow("time zone", user.TimeZone)
			table.AddRow("location", deref(user.Location))
			table.Render()

			if len(item.Included) > 0 {
				fmt.Fprintf(out, "\n%d included: %s\n", len(item.Included), includedSummary(item.Included))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&includes, "include", "i", nil, "side-load related kinds (e.g. projects,genres)")
	return cmd
}
