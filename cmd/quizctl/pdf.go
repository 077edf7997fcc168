package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"roadsafe-quiz/internal/services"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Check a lesson PDF and optionally upload it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		out := cmd.OutOrStdout()

		info, err := services.NewPDFInspector().Inspect(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %d pages, %d with text\n", path, info.Pages, info.TextPages)
		if info.Preview != "" {
			fmt.Fprintf(out, "  %s\n", info.Preview)
		}

		if upload, _ := cmd.Flags().GetBool("upload"); !upload {
			return nil
		}

		api, err := apiClient(cmd)
		if err != nil {
			return err
		}
		if !api.Auth().IsAdmin {
			return fmt.Errorf("uploading lessons needs an admin token")
		}

		result, err := api.UploadPDF(cmd.Context(), path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Uploaded %s (%d pages)", result.Filename, result.Pages)
		if len(result.LessonIDs) > 0 {
			fmt.Fprintf(out, ", lessons %v", result.LessonIDs)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	pdfCmd.Flags().Bool("upload", false, "Send the PDF to the lesson ingestion endpoint")
}
