package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/model"
)

var (
	saveUndo    bool
	dislikeUndo bool
)

var saveCmd = &cobra.Command{
	Use:   "save [job-id...]",
	Short: "Save postings for later, or list saved ones",
	RunE:  preferenceRunner(model.PreferenceSaved, &saveUndo),
}

var dislikeCmd = &cobra.Command{
	Use:   "dislike [job-id...]",
	Short: "Hide postings from the feed, or list hidden ones",
	Long:  "Hides postings from the feed. With --undo the postings are restored to the feed.",
	RunE:  preferenceRunner(model.PreferenceDisliked, &dislikeUndo),
}

func init() {
	saveCmd.Flags().BoolVar(&saveUndo, "undo", false, "remove the postings from the saved list")
	dislikeCmd.Flags().BoolVar(&dislikeUndo, "undo", false, "restore the postings to the feed")
	rootCmd.AddCommand(saveCmd, dislikeCmd)
}

func preferenceRunner(kind model.PreferenceKind, undo *bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			if *undo {
				return errors.New("--undo needs at least one job id")
			}
			postings, err := a.preferredPostings(ctx, kind)
			if err != nil {
				return err
			}
			printPostings(postings, 0)
			return nil
		}

		for _, id := range args {
			if *undo {
				if err := a.store.DeletePreference(ctx, a.cfg.User.ID, id, kind); err != nil {
					fmt.Printf("skip %s: %v\n", id, err)
					continue
				}
				fmt.Printf("%s undone %s\n", kind, id)
				continue
			}
			if _, err := a.store.GetPosting(ctx, id); err != nil {
				fmt.Printf("skip %s: %v\n", id, err)
				continue
			}
			if err := a.store.SetPreference(ctx, a.cfg.User.ID, id, kind); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", kind, id)
		}
		return nil
	}
}

// preferredPostings returns the stored postings carrying the reaction, most
// recent first. Postings removed by retention are left out.
func (a *app) preferredPostings(ctx context.Context, kind model.PreferenceKind) ([]model.JobPosting, error) {
	ids, err := a.store.ListPreferences(ctx, a.cfg.User.ID, kind)
	if err != nil {
		return nil, err
	}
	var postings []model.JobPosting
	for _, id := range ids {
		p, err := a.store.GetPosting(ctx, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		postings = append(postings, *p)
	}
	return postings, nil
}
