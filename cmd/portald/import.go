package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-portal/internal/exam"
)

var importCmd = &cobra.Command{
	Use:   "import-questions <file.csv|file.json>",
	Short: "Bulk-load questions into the bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		author, _ := cmd.Flags().GetString("author")
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		qs, err := exam.ParseQuestions(f, author)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		dbh, err := openDB(loadConfig(cmd))
		if err != nil {
			return err
		}
		defer dbh.Close()
		n, err := exam.NewSQLBank(dbh).Import(cmd.Context(), qs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions\n", n)
		return nil
	},
}

func init() {
	importCmd.Flags().String("author", "cli", "recorded as the questions' author")
}
