package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
)

var (
	askTopK        int
	askJSON        bool
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from all three sources",
	Long: `Retrieves the closest chunks from the document, the report and the
evidence table, then asks the chat model for an answer that cites them.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: needs(needsUpstream),
	RunE:        runAsk,
}

var retrieveCmd = &cobra.Command{
	Use:         "retrieve [query]",
	Short:       "Print the merged context for a query without answering",
	Args:        cobra.MinimumNArgs(1),
	Annotations: needs(needsUpstream),
	RunE:        runRetrieve,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "rows per source (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and sources as JSON")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the context sent to the model")
	retrieveCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "rows per source (default from config)")
	retrieveCmd.Flags().BoolVar(&askJSON, "json", false, "output the rows as JSON")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := current("query service", func(a *App) bool { return a.Query != nil })
	if err != nil {
		return err
	}

	answer, err := a.Query.Ask(cmd.Context(), strings.Join(args, " "), askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answerJSON{
			Answer:  answer.Text,
			Sources: sourcesJSON(answer.Context),
		})
	}

	if askShowContext && answer.Context != nil {
		cmd.Println(answer.Context.Text)
		cmd.Println()
	}
	cmd.Println(answer.Text)
	cmd.Println()
	printSources(cmd, answer.Context)
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	a, err := current("retrieval service", func(a *App) bool { return a.Retrieval != nil })
	if err != nil {
		return err
	}

	merged, err := a.Retrieval.Retrieve(cmd.Context(), strings.Join(args, " "), askTopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, sourcesJSON(merged))
	}
	cmd.Println(merged.Text)
	return nil
}

type answerJSON struct {
	Answer  string               `json:"answer"`
	Sources map[string][]rowJSON `json:"sources"`
}

type rowJSON struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

func sourcesJSON(merged *domain.MergedContext) map[string][]rowJSON {
	out := make(map[string][]rowJSON, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		group := merged.Group(t)
		rows := make([]rowJSON, 0, len(group))
		for i := range group {
			row := &group[i]
			rows = append(rows, rowJSON{
				ID:         row.ID,
				SourceType: string(row.SourceType),
				SourceID:   row.SourceID,
				ChunkIndex: row.ChunkIndex,
				Content:    row.Content,
				Metadata:   row.Metadata,
				Similarity: row.Similarity,
			})
		}
		out[string(t)] = rows
	}
	return out
}

func printSources(cmd *cobra.Command, merged *domain.MergedContext) {
	if merged.IsEmpty() {
		cmd.Println("No sources retrieved.")
		return
	}

	cmd.Println("Sources:")
	for _, t := range domain.SourceTypes {
		for i, row := range merged.Group(t) {
			cmd.Printf("  [%s %d] %s #%d (%.2f)\n", t.Label(), i+1, row.SourceID, row.ChunkIndex, row.Similarity)
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
