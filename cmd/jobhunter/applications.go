package main

import (
	"github.com/spf13/cobra"
)

var showRejected bool

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "List sent applications",
	Long:    "Lists applications that are waiting, in interview or offered. --rejected shows the ones that were not selected.",
	RunE:    runApplications,
}

func init() {
	applicationsCmd.Flags().BoolVar(&showRejected, "rejected", false, "show rejected applications instead")
	rootCmd.AddCommand(applicationsCmd)
}

func runApplications(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.engine.Applications
	if showRejected {
		list = a.engine.Rejected
	}
	apps, err := list(ctx, a.cfg.User.ID)
	if err != nil {
		return err
	}
	printApplications(apps)
	return nil
}
