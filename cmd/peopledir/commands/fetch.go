package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/palantir/compute-module-people-directory/internal/app"
	"github.com/palantir/compute-module-people-directory/internal/export"
)

func fetchCmd() *cobra.Command {
	var (
		format     string
		output     string
		search     string
		department string
		pageSize   int
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the directory with live presence and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return configError{err}
			}
			if cmd.Flags().Changed("page-size") {
				cfg.Directory.PageSize = pageSize
			}
			a, err := newApp()
			if err != nil {
				return err
			}

			opts := app.FetchOptions{Format: f, Search: search, Department: department}
			if output == "" {
				return a.RunFetch(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			// Buffer so a failed fetch leaves an existing output file untouched.
			var buf bytes.Buffer
			if err := a.RunFetch(cmd.Context(), &buf, opts); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatTable), "Output format: table|csv|json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive display name filter")
	cmd.Flags().StringVar(&department, "department", "", "Only show this department")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Profiles per page (env: PAGE_SIZE)")
	return cmd
}
