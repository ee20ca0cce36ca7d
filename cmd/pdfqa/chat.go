package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pdf-rag/internal/models"
	"pdf-rag/internal/rag"

	"github.com/spf13/cobra"
)

var (
	chatDocs []string
	chatK    int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Index documents and ask questions interactively",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringSliceVarP(&chatDocs, "docs", "d", nil, "documents to index (PDF or text)")
	chatCmd.Flags().IntVarP(&chatK, "top-k", "k", 0, "number of passages to retrieve (default from config)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	files, err := readFiles(chatDocs)
	if err != nil {
		return err
	}
	session := current.engine.NewSession()
	k := chatK
	if k <= 0 {
		k = current.engine.TopK()
	}
	runInteractiveMode(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), session, files, k)
	return nil
}

// runInteractiveMode reads questions line by line until exit or EOF
func runInteractiveMode(ctx context.Context, in io.Reader, out io.Writer, session *rag.Session, files []models.SourceFile, k int) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Document Assistant - ask questions about your documents (type 'exit' to quit)")
	fmt.Fprintln(out, "Commands: /reindex, /clear, /k N, /stats")
	reindex(ctx, out, session, files)

	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		lower := strings.ToLower(input)
		if lower == "exit" || lower == "quit" {
			break
		}
		if input == "" {
			continue
		}

		switch {
		case lower == "/clear":
			session.Clear()
			fmt.Fprintln(out, "Index cleared")
			continue
		case lower == "/reindex":
			reindex(ctx, out, session, files)
			continue
		case lower == "/stats":
			printChunkStatistics(out, session.Chunks())
			continue
		case strings.HasPrefix(lower, "/k"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(lower, "/k")))
			if err != nil || n <= 0 {
				fmt.Fprintln(out, "Usage: /k N (N > 0)")
				continue
			}
			k = n
			fmt.Fprintf(out, "Retrieving %d passages per question\n", k)
			continue
		}

		fmt.Fprint(out, "Searching documents... ")
		answer, err := session.Ask(ctx, input, k)
		if err != nil {
			fmt.Fprintf(out, "\rError: %s\n", models.UserMessage(err))
			if ctx.Err() != nil {
				return
			}
			continue
		}

		fmt.Fprint(out, "\r"+formatAnswer(answer))
	}
}

func reindex(ctx context.Context, out io.Writer, session *rag.Session, files []models.SourceFile) {
	stats, err := session.Index(ctx, files)
	if err != nil {
		fmt.Fprintf(out, "Indexing failed: %s\n", models.UserMessage(err))
		return
	}
	fmt.Fprintf(out, "Indexed %d chunks from %d page(s)\n", stats.Chunks, stats.Pages)
}
