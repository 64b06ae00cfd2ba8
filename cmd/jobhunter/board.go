package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobhunter/internal/board"
)

// boardLogFile receives engine logs while the board is open with --debug.
const boardLogFile = "jobhunter-board.log"

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Browse queue, applications and inbox interactively",
	RunE:  runBoard,
}

func init() {
	rootCmd.AddCommand(boardCmd)
}

func runBoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// The board runs in the alt screen; anything logged to stdout meanwhile
	// corrupts it.
	bgLogger, closeLog, err := boardLogger(debug, boardLogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := openAppWithLogger(ctx, bgLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.engine.ResumePending(ctx, a.cfg.User.ID); err != nil {
		a.logger.Warn("could not resume pending responses", "error", err)
	}

	if err := board.Run(ctx, a.engine, a.cfg.User.ID); err != nil {
		return err
	}
	a.waitForResponses(ctx)
	return nil
}

// boardLogger discards logs unless dbg is set, in which case they are
// appended to path.
func boardLogger(dbg bool, path string) (*slog.Logger, func(), error) {
	if !dbg {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open board log: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}
