package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"roadsafe-quiz/internal/models"
)

var quizzesCmd = &cobra.Command{
	Use:   "quizzes",
	Short: "List quizzes available in your language",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		quizzes, err := api.ListQuizzes(cmd.Context(), models.QuizFilter{
			Language: api.Auth().Language,
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		if len(quizzes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No quizzes found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tLANGUAGE")
		for _, q := range quizzes {
			if !q.IsActive {
				continue
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", q.ID, q.Title, q.Language)
		}
		return w.Flush()
	},
}

func init() {
	quizzesCmd.Flags().Int("limit", 50, "Maximum number of quizzes to list")
}
