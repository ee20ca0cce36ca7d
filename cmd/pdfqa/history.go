package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pdf-rag/internal/models"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historySession string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently answered questions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of entries")
	historyCmd.Flags().StringVar(&historySession, "session", "", "only show entries for this session id")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if current.db == nil {
		return errors.New("answer history is not configured (set history.dsn or DATABASE_URL)")
	}

	entries, err := current.db.RecentAnswers(cmd.Context(), historySession, historyLimit)
	if err != nil {
		return err
	}
	printHistory(cmd.OutOrStdout(), entries)
	return nil
}

func printHistory(w io.Writer, entries []models.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No answers recorded.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s (session %s)\n", e.CreatedAt.Local().Format(time.DateTime), e.Question, e.SessionID)
		fmt.Fprintf(w, "  %s\n", snippet(e.Answer, 40))
		if len(e.Citations) > 0 {
			fmt.Fprintf(w, "  Sources: %s\n", strings.Join(e.Citations, "; "))
		}
	}
}
