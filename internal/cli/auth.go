package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/veronicavalera/gritgirls/internal/adapter/api"
	"github.com/veronicavalera/gritgirls/internal/session"
)

type authCall func(c *api.Client, ctx context.Context, email, password string) (*api.LoginResponse, error)

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return newAuthCommand(rootOpts, "login", "Sign in and remember the session", "Logged in as %s\n", (*api.Client).Login)
}

func NewSignupCommand(rootOpts *RootOptions) *cobra.Command {
	return newAuthCommand(rootOpts, "signup", "Create an account and remember the session", "Signed up as %s\n", (*api.Client).Signup)
}

// newAuthCommand builds login and signup, which differ only in endpoint.
func newAuthCommand(rootOpts *RootOptions, use, short, done string, call authCall) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return NewExitError(ExitCommandError, "--email and --password are required")
			}
			rt := rootOpts.rt
			resp, err := call(rt.api, cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := rt.sessions.Save(session.Session{Token: resp.AccessToken, UserEmail: resp.User.Email}); err != nil {
				return err
			}

			return commandFormatter(rootOpts, cmd).Success(resp.User, "", func(w io.Writer) {
				fmt.Fprintf(w, done, resp.User.Email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.rt.sessions.Clear(); err != nil {
				return err
			}
			return commandFormatter(rootOpts, cmd).Success(nil, "", func(w io.Writer) {
				fmt.Fprintln(w, "Logged out")
			})
		},
	}
}
