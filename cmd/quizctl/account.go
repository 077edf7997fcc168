package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"roadsafe-quiz/internal/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange credentials for an access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" || password == "" {
			return fmt.Errorf("--email and --password are required")
		}

		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		tokens, err := api.Login(cmd.Context(), models.LoginRequest{Email: email, Password: password})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), tokens.AccessToken)
		fmt.Fprintln(cmd.ErrOrStderr(), "Export it as ACCESS_TOKEN or pass it with --token.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		if !api.Auth().Authorized() {
			return fmt.Errorf("not logged in")
		}

		user, err := api.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>, language %s\n", user.Username, user.Email, user.PreferredLanguage)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
}
