package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var letterCmd = &cobra.Command{
	Use:   "letter <job-id>",
	Short: "Write an application email for a posting",
	Args:  cobra.ExactArgs(1),
	RunE:  runLetter,
}

func init() {
	rootCmd.AddCommand(letterCmd)
}

func runLetter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	posting, err := a.store.GetPosting(ctx, args[0])
	if err != nil {
		return err
	}

	letter, err := setupLetterWriter(a.cfg, a.logger).Write(ctx, *posting)
	if err != nil {
		return fmt.Errorf("write letter: %w", err)
	}
	fmt.Println(letter)
	return nil
}
