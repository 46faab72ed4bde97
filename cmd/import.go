package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/matheuskafuri/linkcheck/internal/history"
)

var (
	flagImportHistory string
	flagImportDate    string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import previously checked posts into the history file",
	Long: `Import post URLs from a CSV or Excel (.xlsx) report into the checked-posts
history. The file must have a "Post URL" column (matched case-insensitively).
Posts already in the history are left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]

		importDate := flagImportDate
		if importDate == "" {
			importDate = time.Now().Format("2006-01-02T00:00:00")
		}

		var urls []string
		var err error
		switch {
		case strings.HasSuffix(inputFile, ".xlsx"), strings.HasSuffix(inputFile, ".xls"):
			urls, err = importFromExcel(inputFile)
		case strings.HasSuffix(inputFile, ".csv"):
			urls, err = importFromCSV(inputFile)
		default:
			return fmt.Errorf("file must be .xlsx, .xls, or .csv: %s", inputFile)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Found %d unique post URLs\n", len(urls))

		tracker, err := history.Load(flagImportHistory)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Warning: could not load existing history: %v\n", err)
		}
		existing := tracker.Len()
		fmt.Fprintf(cmd.OutOrStdout(), "Existing history: %d posts\n", existing)

		added := 0
		for _, u := range urls {
			if tracker.Add(u, importDate) {
				added++
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %d new posts to history\n", added)
		fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d already in history\n", len(urls)-added)

		if err := tracker.Save(); err != nil {
			return fmt.Errorf("saving history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved history with %d checked posts to %s\n", tracker.Len(), flagImportHistory)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVarP(&flagImportHistory, "history-file", "H", "checked_posts.json", "history file to update")
	importCmd.Flags().StringVar(&flagImportDate, "date", "", "date to use for imported posts (default: today)")
}

// findURLColumn locates the "Post URL" column in a header row, matched
// case-insensitively.
func findURLColumn(header []string) int {
	for i, col := range header {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "post url") || strings.Contains(lower, "post_url") {
			return i
		}
	}
	return -1
}

func collectURLs(rows [][]string) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no rows")
	}
	col := findURLColumn(rows[0])
	if col < 0 {
		return nil, fmt.Errorf("could not find 'Post URL' column, found: %v", rows[0])
	}

	seen := make(map[string]bool)
	var urls []string
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		u := strings.TrimSpace(row[col])
		if u == "" || !strings.HasPrefix(u, "http") || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, nil
}

func importFromCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return collectURLs(rows)
}

func importFromExcel(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return collectURLs(rows)
}
