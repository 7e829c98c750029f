package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/stockgpt/internal/auth"
	"github.com/Alias1177/stockgpt/models"
)

func newAuthCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the local demo session",
	}

	var email, password, name string

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := auth.NewService(a.store).Login(cmd.Context(), email, password)
			return a.signedIn(user, err)
		},
	}
	login.Flags().StringVar(&email, "email", "", "email address")
	login.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")

	signup := &cobra.Command{
		Use:   "signup",
		Short: "Create a local account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := auth.NewService(a.store).Signup(cmd.Context(), email, password, name)
			return a.signedIn(user, err)
		},
	}
	signup.Flags().StringVar(&email, "email", "", "email address")
	signup.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")
	signup.Flags().StringVar(&name, "name", "", "display name")

	google := &cobra.Command{
		Use:   "google",
		Short: "Sign in with a demo Google identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := auth.NewService(a.store).GoogleSignIn(cmd.Context())
			return a.signedIn(user, err)
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := auth.NewService(a.store).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := auth.NewService(a.store).Current(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(a.out, "Not signed in")
				return nil
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}

	cmd.AddCommand(login, signup, google, logout, whoami)
	return cmd
}

func (a *app) signedIn(user *models.User, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}
