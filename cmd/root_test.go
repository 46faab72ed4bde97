package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheuskafuri/linkcheck/internal/config"
)

func TestFindURLColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"report header", []string{"post_title", "post_url", "broken_link", "error_type"}, 1},
		{"title case", []string{"Post Title", "Post URL", "Broken Link", "Error Type"}, 1},
		{"first column", []string{"Post URL", "Notes"}, 0},
		{"missing", []string{"title", "link"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findURLColumn(tt.header); got != tt.want {
				t.Errorf("findURLColumn(%v) = %d, want %d", tt.header, got, tt.want)
			}
		})
	}
}

func TestImportFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	content := `Post Title,Post URL,Broken Link,Error Type
First,https://blog.example.com/p/first,https://dead.example.com,HTTP 404
First,https://blog.example.com/p/first,https://gone.example.com,DNS Failure
Second,https://blog.example.com/p/second,https://dead.example.com,HTTP 404
Junk,not-a-url,x,y
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := importFromCSV(path)
	if err != nil {
		t.Fatalf("importFromCSV: %v", err)
	}
	// Duplicates and non-http values are dropped.
	want := []string{"https://blog.example.com/p/first", "https://blog.example.com/p/second"}
	if len(urls) != len(want) {
		t.Fatalf("urls = %v, want %v", urls, want)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], want[i])
		}
	}
}

func TestImportFromCSVMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := importFromCSV(path); err == nil {
		t.Error("importFromCSV succeeded without Post URL column")
	}
}

func TestImportCommandUpdatesHistory(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "report.csv")
	historyPath := filepath.Join(dir, "history.json")

	content := "post_title,post_url,broken_link,error_type\nT,https://blog.example.com/p/one,l,HTTP 404\n"
	if err := os.WriteFile(csvPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"import", csvPath, "--history-file", historyPath, "--date", "2025-06-01T00:00:00"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("import: %v", err)
	}

	data, err := os.ReadFile(historyPath)
	if err != nil {
		t.Fatalf("history not written: %v", err)
	}
	var parsed struct {
		CheckedPosts map[string]string `json:"checked_posts"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatal(err)
	}
	if got := parsed.CheckedPosts["https://blog.example.com/p/one"]; got != "2025-06-01T00:00:00" {
		t.Errorf("checked_posts = %v", parsed.CheckedPosts)
	}
}

func TestLoadDomainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	content := `wikipedia.org
# a comment

linkedin.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadDomainFile(path)
	if err != nil {
		t.Fatalf("loadDomainFile: %v", err)
	}
	if len(got) != 2 || got[0] != "wikipedia.org" || got[1] != "linkedin.com" {
		t.Errorf("domains = %v", got)
	}
}

func TestApplyFlagsSkipDomainsNone(t *testing.T) {
	cfg := &config.Config{Concurrency: 10, SkipDomains: []string{"wikipedia.org"}}

	flagSkipDomains = []string{"none"}
	rootCmd.Flags().Set("skip-domains", "none")
	t.Cleanup(func() {
		flagSkipDomains = nil
		rootCmd.Flags().Lookup("skip-domains").Changed = false
	})

	if err := applyFlags(rootCmd, cfg); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if len(cfg.SkipDomains) != 0 {
		t.Errorf("SkipDomains = %v, want empty", cfg.SkipDomains)
	}
}
