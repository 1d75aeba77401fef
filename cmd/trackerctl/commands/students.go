package commands

import (
	"fmt"
	"os"
	"strings"

	"codetrack-backend/lib/timezone"
	"codetrack-backend/services/tracker/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	addCmd.Flags().StringVar(&addEmail, "email", "", "The student's email address.")
	addCmd.Flags().StringVar(&addName, "name", "", "The student's full name.")
	addCmd.Flags().StringVar(&addBatch, "batch", "", "The student's graduating batch.")
	addCmd.Flags().StringVar(&addPassword, "password", "", "An initial dashboard password.")
	addCmd.Flags().StringArrayVar(&addLinks, "link", nil, "A profile link, formatted platform=url. Repeatable.")
	addCmd.Flags().StringArrayVar(&addUsernames, "username", nil, "A platform username, formatted platform=name. Repeatable.")

	studentsCmd.AddCommand(listCmd)
	studentsCmd.AddCommand(addCmd)
	studentsCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(studentsCmd)
}

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "Inspect and manage student records.",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active student records.",
	Run: func(cmd *cobra.Command, args []string) {
		studentStore, _ := openStore(cmd.Context())

		// a cutoff far in the future returns every active record
		records, err := studentStore.ListStale(cmd.Context(), timezone.Now().AddDate(100, 0, 0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"roll", "name", "email", "batch", "last scraped", "errors"})
		for _, r := range records {
			lastScraped := "never"
			if !r.LastScrapedAt.IsZero() {
				lastScraped = r.LastScrapedAt.Format("2006-01-02 15:04")
			}
			t.AppendRow(table.Row{r.RollNo, r.Name, r.Email, r.Batch, lastScraped, len(r.ScrapingErrors)})
		}
		t.Render()
	},
}

var (
	addEmail     string
	addName      string
	addBatch     string
	addPassword  string
	addLinks     []string
	addUsernames []string
)

var addCmd = &cobra.Command{
	Use:   "add <roll number>",
	Short: "Create a student record.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		studentStore, _ := openStore(cmd.Context())

		record := &store.StudentRecord{
			RollNo:   args[0],
			Email:    addEmail,
			Name:     addName,
			Batch:    addBatch,
			IsActive: true,
		}
		if addPassword != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(addPassword), bcrypt.DefaultCost)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			record.PasswordHash = string(hash)
		}

		record.PlatformLinks = parsePlatformPairs(addLinks)
		record.PlatformUsernames = parsePlatformPairs(addUsernames)

		err := studentStore.Save(cmd.Context(), record)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(record.ID.Hex())
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <roll number>",
	Short: "Soft-delete a student record.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		studentStore, _ := openStore(cmd.Context())

		record, err := studentStore.GetByRoll(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		err = studentStore.Deactivate(cmd.Context(), record.ID.Hex())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	},
}

func parsePlatformPairs(pairs []string) map[store.Platform]string {
	if len(pairs) == 0 {
		return nil
	}
	out := map[store.Platform]string{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "expected platform=value, got %q\n", pair)
			os.Exit(1)
		}
		platform, err := store.ParsePlatform(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		out[platform] = value
	}
	return out
}
