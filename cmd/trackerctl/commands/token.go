package commands

import (
	"fmt"
	"os"

	"codetrack-backend/services/auth"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token <roll number>",
	Short: "Mint a bearer token for a student, mainly for testing the API.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		studentStore, cfg := openStore(cmd.Context())

		record, err := studentStore.GetByRoll(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		verifier, err := auth.NewVerifier(cfg.Auth)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		token, err := verifier.Sign(auth.Identity{
			StudentID: record.ID.Hex(),
			Email:     record.Email,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Println(token)
	},
}
