package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"pdf-rag/internal/models"

	"github.com/spf13/cobra"
)

var (
	askDocs []string
	askK    int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Index documents and answer one question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringSliceVarP(&askDocs, "docs", "d", nil, "documents to index (PDF or text)")
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	session, err := indexDocuments(cmd, askDocs)
	if err != nil {
		return err
	}

	answer, err := session.Ask(cmd.Context(), strings.Join(args, " "), askK)
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), formatAnswer(answer))
	return nil
}

// formatAnswer renders the answer followed by its distinct citations
func formatAnswer(answer *models.Answer) string {
	var sb strings.Builder

	sb.WriteString(answer.Text)
	sb.WriteString("\n\n")

	if len(answer.Citations) > 0 {
		sb.WriteString("Sources:\n")
		for i, c := range answer.Citations {
			fmt.Fprintf(&sb, "  %d. [%s, Page: %d] %s\n", i+1, c.Source, c.Page, snippet(c.Text, 20))
		}
	}

	return sb.String()
}

// snippet returns the first n words of text
func snippet(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " ..."
}
