package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"go-krea-generate/internal/helpers"
)

var historyCount int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent generation history",
	Long: `Shows the most recent entries of the local history log. Every generate,
edit, and upscale operation appends one entry with its prompt, cost, and
saved file path.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

// historySearchCmd represents the history search subcommand
var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search past prompts",
	Long:  `Searches the full-text index over past prompts and operations.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historySearchCmd)

	historyCmd.Flags().IntVarP(&historyCount, "count", "n", 10, "Number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(historyCount)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tOPERATION\tCOST\tPROMPT\tFILE")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t$%.2f\t%s\t%s\n",
			rec.Timestamp, rec.Operation, rec.Cost,
			helpers.Truncate(rec.Prompt, 40), rec.LocalPath)
	}
	return w.Flush()
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	query := strings.Join(args, " ")
	hits, err := store.Search(query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTIMESTAMP\tOPERATION\tPROMPT\tFILE")
	for _, hit := range hits {
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%s\n",
			hit.Score, hit.Timestamp, hit.Operation,
			helpers.Truncate(hit.Prompt, 40), hit.LocalPath)
	}
	return w.Flush()
}
