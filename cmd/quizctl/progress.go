package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show your course enrollments and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		if !api.Auth().Authorized() {
			return fmt.Errorf("not logged in")
		}

		enrollments, err := api.ListEnrollments(cmd.Context())
		if err != nil {
			return err
		}
		if len(enrollments) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Not enrolled in any course.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COURSE\tPROGRESS\tCERTIFICATE")
		for _, e := range enrollments {
			cert := "-"
			if e.CertificateIssued {
				cert = "issued"
			}
			fmt.Fprintf(w, "%d\t%.0f%%\t%s\n", e.CourseID, e.ProgressPercentage, cert)
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show platform statistics (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		if !api.Auth().IsAdmin {
			return fmt.Errorf("stats require an admin token")
		}

		s, err := api.DashboardStats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Users:       %d (%d active, %d admins)\n", s.Users.Total, s.Users.Active, s.Users.Admins)
		fmt.Fprintf(out, "Courses:     %d (%d active)\n", s.Courses.Total, s.Courses.Active)
		fmt.Fprintf(out, "Quizzes:     %d (%d active)\n", s.Quizzes.Total, s.Quizzes.Active)
		fmt.Fprintf(out, "Enrollments: %d (%d completed)\n", s.Enrollments.Total, s.Enrollments.Completed)
		fmt.Fprintf(out, "Last 7 days: %d enrollments, %d progress updates\n",
			s.RecentActivity.Enrollments7Days, s.RecentActivity.ProgressUpdates7Days)
		return nil
	},
}
