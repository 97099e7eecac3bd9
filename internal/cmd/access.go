package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lborres/assessgate/core"
)

func newNavCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the menu entries visible to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, item := range opts.app.Gate.Navigator.Items() {
				fmt.Fprintf(w, "%s\t%s\n", item.Label, item.Path)
			}
			return w.Flush()
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var permission, route, method string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate access to a permission or route",
		Long: `Print the guard decision (pending, redirect, deny or allow) for a permission
or a registered route. The command fails unless the decision is allow.

Example:
  assessgate check --permission READ_USERS
  assessgate check --route /users/edit/:id`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (permission == "") == (route == "") {
				return fmt.Errorf("exactly one of --permission or --route is required")
			}

			gate := opts.app.Gate
			var decision core.Decision
			if route != "" {
				r, ok := gate.Routes.Lookup(strings.ToUpper(method), route)
				if !ok {
					return fmt.Errorf("unknown route %s %s", strings.ToUpper(method), route)
				}
				decision = gate.Check(r)
			} else {
				decision = gate.Guard.Check("check", core.Requirement{Permission: permission})
			}

			fmt.Fprintln(cmd.OutOrStdout(), decision)
			if decision != core.DecisionAllow {
				return fmt.Errorf("%w: %s", ErrAccessNotGranted, decision)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&permission, "permission", "", "permission name, e.g. READ_USERS")
	cmd.Flags().StringVar(&route, "route", "", "registered route path, e.g. /users")
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "route method")

	return cmd
}
