package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"roadsafe-quiz/internal/auth"
	"roadsafe-quiz/internal/config"
	"roadsafe-quiz/internal/services"
)

var rootCmd = &cobra.Command{
	Use:           "quizctl",
	Short:         "Road safety quizzes in the terminal",
	Long:          "quizctl plays road safety quizzes against the learning backend and runs a few admin chores.",
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

var cfg = config.Load()

func init() {
	rootCmd.PersistentFlags().String("api", cfg.APIURL, "Backend base URL (overrides API_URL)")
	rootCmd.PersistentFlags().String("token", cfg.AccessToken, "Access token (overrides ACCESS_TOKEN)")
	rootCmd.PersistentFlags().String("lang", cfg.DefaultLanguage, "Learner language: english, french or kinyarwanda")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show diagnostic logging")

	rootCmd.AddCommand(quizzesCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pdfCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(statsCmd)
}

// learner builds the auth context from --token and --lang.
func learner(cmd *cobra.Command) (auth.Context, error) {
	token, _ := cmd.Flags().GetString("token")
	lang, _ := cmd.Flags().GetString("lang")

	ac, err := auth.FromToken(token, lang)
	if err != nil {
		return ac, fmt.Errorf("invalid access token: %w", err)
	}
	return ac, nil
}

func apiClient(cmd *cobra.Command) (*services.APIClient, error) {
	ac, err := learner(cmd)
	if err != nil {
		return nil, err
	}
	base, _ := cmd.Flags().GetString("api")
	return services.NewAPIClient(base, ac), nil
}
