package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"backend-storymap/internal/session"

	"github.com/spf13/cobra"
)

func newSignUpCmd(app *cli) *cobra.Command {
	return credentialsCmd(app, "signup", "Create an account and sign in", func(cmd *cobra.Command, email, password string) (*session.Session, error) {
		return app.client().SignUp(cmd.Context(), email, password)
	})
}

func newLoginCmd(app *cli) *cobra.Command {
	return credentialsCmd(app, "login", "Sign in", func(cmd *cobra.Command, email, password string) (*session.Session, error) {
		return app.client().SignIn(cmd.Context(), email, password)
	})
}

func credentialsCmd(app *cli, use, short string, do func(*cobra.Command, string, string) (*session.Session, error)) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return report(cmd, errors.New("--email is required"))
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "password: ")
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return report(cmd, err)
				}
				password = line
			}
			s, err := do(cmd, email, password)
			if err != nil {
				return report(cmd, err)
			}
			return app.emit(cmd, s, func(w io.Writer) {
				fmt.Fprintf(w, "signed in as %s\n", s.Email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and revoke the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.client().SignOut(cmd.Context()); err != nil {
				return report(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoAmICmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.client().Viewer() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			me, err := app.client().Me(cmd.Context())
			if err != nil {
				return report(cmd, err)
			}
			return app.emit(cmd, me, func(w io.Writer) {
				fmt.Fprintf(w, "%s (%s)\n", me.Email, me.UserID)
			})
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
