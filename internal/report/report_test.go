package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matheuskafuri/linkcheck/internal/checker"
)

func TestWriteCSV(t *testing.T) {
	records := []checker.BrokenLink{
		{PostTitle: "First Post", PostURL: "https://blog.example.com/p/first", Link: "https://dead.example.com", Reason: "HTTP 404"},
		{PostTitle: "Second, with comma", PostURL: "https://blog.example.com/p/second", Link: "https://gone.example.com", Reason: "DNS Failure"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	wantHeader := []string{"post_title", "post_url", "broken_link", "error_type"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Errorf("header = %v, want %v", rows[0], wantHeader)
	}
	if rows[2][0] != "Second, with comma" {
		t.Errorf("comma field mangled: %q", rows[2][0])
	}
}

func TestSaveCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	records := []checker.BrokenLink{
		{PostTitle: "T", PostURL: "u", Link: "l", Reason: "HTTP 404"},
	}
	if err := SaveCSV(path, records); err != nil {
		t.Fatalf("SaveCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "post_title,post_url,broken_link,error_type\n") {
		t.Errorf("unexpected file content: %q", string(data))
	}
}

func TestSummaryCounters(t *testing.T) {
	out := Summary(checker.Snapshot{
		LinksChecked: 42,
		LinksSkipped: 3,
		AutoBroken:   1,
		CacheHits:    7,
		Retries:      2,
		BrokenLinks:  5,
	})

	for _, want := range []string{"42", "Cache hits", "Broken links found", "5"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryOmitsPostsSkippedWhenZero(t *testing.T) {
	out := Summary(checker.Snapshot{})
	if strings.Contains(out, "Posts skipped") {
		t.Errorf("summary shows posts skipped at zero:\n%s", out)
	}
}
