package commands

import (
	"errors"
	"fmt"
	"os"

	"codetrack-backend/services/tracker"
	"codetrack-backend/services/tracker/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	refreshPlatform string
	refreshForce    bool
)

func init() {
	refreshCmd.Flags().StringVar(&refreshPlatform, "platform", "", "Refresh a single platform instead of all of them.")
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Bypass the freshness gate.")
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <roll number>",
	Short: "Scrape a student's platforms and reconcile the results.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := openService(cmd.Context())

		record, err := service.GetStudentByRoll(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		var summary tracker.RefreshSummary
		if refreshPlatform != "" {
			platform, err := store.ParsePlatform(refreshPlatform)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			summary, err = service.RefreshPlatform(cmd.Context(), record.ID.Hex(), platform, refreshForce)
			if err != nil {
				reportRefreshError(err)
				return
			}
		} else {
			summary, err = service.RefreshStudent(cmd.Context(), record.ID.Hex(), refreshForce)
			if err != nil {
				reportRefreshError(err)
				return
			}
		}

		t := newTable()
		t.AppendHeader(table.Row{"platform", "outcome"})
		for _, platform := range summary.Successful {
			t.AppendRow(table.Row{platform, "ok"})
		}
		for _, platform := range summary.Skipped {
			t.AppendRow(table.Row{platform, "skipped (no identifier)"})
		}
		for _, failure := range summary.Failed {
			t.AppendRow(table.Row{failure.Platform, failure.Error})
		}
		t.Render()
	},
}

func reportRefreshError(err error) {
	if errors.Is(err, tracker.ErrNotDue) {
		fmt.Println("record is still fresh, pass --force to refresh anyway")
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
