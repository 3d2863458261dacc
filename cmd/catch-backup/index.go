package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/catch-backup/internal/catch"
	"github.com/pdiddy/catch-backup/internal/index"
	"github.com/pdiddy/catch-backup/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load a JSON backup into the local notes index",
	Long: `Index reads a JSON backup written by catch-backup (--file) and upserts
every note into a SQLite database (--db). Running it again with a newer
backup updates notes in place.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search [text...]",
	Short: "Search the local notes index",
	Long: `Search finds indexed notes whose text contains the given words, optionally
filtered by tag or note id. Results are listed newest first.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("tag", "", "filter by tag (without #)")
	searchCmd.Flags().String("id", "", "filter by note id")
	searchCmd.Flags().Int("limit", 0, "maximum results (0 = default of 20)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	file := viper.GetString("file")
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	coll, err := catch.Decode(raw)
	if err != nil {
		return err
	}

	store, err := index.Open(types.IndexConfig{DBPath: viper.GetString("db")})
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), coll)
	if err != nil {
		return err
	}
	total, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %s: %d new, %d updated (%d notes in %s)\n",
		file, summary.Inserted, summary.Updated, total, viper.GetString("db"))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetString("tag")
	id, _ := cmd.Flags().GetString("id")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := index.Open(types.IndexConfig{DBPath: viper.GetString("db")})
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(cmd.Context(), index.QueryOptions{
		Query:      strings.Join(args, " "),
		Tag:        strings.TrimPrefix(tag, "#"),
		NoteID:     id,
		MaxResults: limit,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matching notes.")
		return nil
	}

	fmt.Fprintf(out, "%-4s  %-24s  %-10s  %-40s  %s\n", "#", "ID", "CREATED", "TEXT", "TAGS")
	for i, r := range results {
		created := ""
		if r.CreatedAt != nil {
			created = r.CreatedAt.Format("2006-01-02")
		}
		text := truncate(strings.Join(strings.Fields(r.Text), " "), 40)
		fmt.Fprintf(out, "%-4d  %-24s  %-10s  %-40s  %s\n",
			i+1, truncate(r.ID, 24), created, text, renderTagList(r.Tags))
	}
	fmt.Fprintf(out, "\n%d results\n", len(results))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func renderTagList(tags []string) string {
	hashed := make([]string, len(tags))
	for i, t := range tags {
		hashed[i] = "#" + t
	}
	return strings.Join(hashed, " ")
}
