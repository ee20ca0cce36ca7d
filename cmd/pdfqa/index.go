package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"pdf-rag/internal/models"

	"github.com/spf13/cobra"
)

var indexDocs []string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index documents and print chunk statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringSliceVarP(&indexDocs, "docs", "d", nil, "documents to index (PDF or text)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	session, err := indexDocuments(cmd, indexDocs)
	if err != nil {
		return err
	}
	printChunkStatistics(cmd.OutOrStdout(), session.Chunks())
	return nil
}

// printChunkStatistics prints statistics about the indexed chunks
func printChunkStatistics(w io.Writer, chunks []models.Chunk) {
	if len(chunks) == 0 {
		fmt.Fprintln(w, "No chunks indexed.")
		return
	}

	var totalWords int
	perSource := make(map[string]int)
	pages := make(map[string]map[int]struct{})
	for _, c := range chunks {
		totalWords += len(strings.Fields(c.Text))
		perSource[c.Source]++
		if pages[c.Source] == nil {
			pages[c.Source] = make(map[int]struct{})
		}
		pages[c.Source][c.Page] = struct{}{}
	}

	fmt.Fprintln(w, "Chunk Statistics:")
	fmt.Fprintf(w, "  Total chunks: %d\n", len(chunks))
	fmt.Fprintf(w, "  Average chunk length: %.1f words\n", float64(totalWords)/float64(len(chunks)))

	sources := make([]string, 0, len(perSource))
	for s := range perSource {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	fmt.Fprintln(w, "  Document breakdown:")
	for _, s := range sources {
		fmt.Fprintf(w, "    %s: %d chunks across %d pages\n", s, perSource[s], len(pages[s]))
	}
}
