package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long: `Sign in against the AssessAssist backend and persist the token and profile
in the configured store.

When --password is omitted the password is read from the first line of stdin.

Example:
  assessgate login --email admin@example.com < password.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			session := opts.app.Gate.Session
			if err := session.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			user := session.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", user.FullName(), user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when empty)")

	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.app.Gate.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := opts.app.Gate.Session.Snapshot()
			if !snap.IsAuthenticated() {
				return ErrNotLoggedIn
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.User)
			}

			fmt.Fprintf(out, "Name:        %s\n", snap.User.FullName())
			fmt.Fprintf(out, "Email:       %s\n", snap.User.Email)
			if snap.User.Role.Name != "" {
				fmt.Fprintf(out, "Role:        %s\n", snap.User.Role.Name)
			}
			fmt.Fprintf(out, "Permissions: %s\n", strings.Join(snap.PermissionNames(), ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as JSON")

	return cmd
}
