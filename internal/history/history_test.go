package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileStartsFresh(t *testing.T) {
	tr, err := Load(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr.Len() != 0 {
		t.Errorf("Len = %d, want 0", tr.Len())
	}
}

func TestLoadCorruptFileWarnsAndStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := Load(path)
	if err == nil {
		t.Error("Load returned nil error for corrupt file")
	}
	if tr == nil || tr.Len() != 0 {
		t.Errorf("tracker = %+v, want empty", tr)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "history.json")

	tr, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tr.MarkChecked("https://blog.example.com/p/one")
	tr.MarkChecked("https://blog.example.com/p/two")
	if err := tr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// No leftover temp file.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Errorf("Len = %d, want 2", reloaded.Len())
	}
	if !reloaded.IsChecked("https://blog.example.com/p/one") {
		t.Error("post one missing after reload")
	}
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	content := `{
  "last_updated": "2026-01-05T10:00:00Z",
  "schema": 2,
  "checked_posts": {"https://blog.example.com/p/one": "2026-01-05T10:00:00Z"}
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !tr.IsChecked("https://blog.example.com/p/one") {
		t.Error("post one not loaded")
	}
}

func TestFilterUncheckedPreservesOrder(t *testing.T) {
	tr, _ := Load(filepath.Join(t.TempDir(), "history.json"))
	tr.MarkChecked("https://blog.example.com/p/b")

	posts := []string{
		"https://blog.example.com/p/a",
		"https://blog.example.com/p/b",
		"https://blog.example.com/p/c",
	}
	unchecked, skipped := tr.FilterUnchecked(posts)

	want := []string{"https://blog.example.com/p/a", "https://blog.example.com/p/c"}
	if !reflect.DeepEqual(unchecked, want) {
		t.Errorf("unchecked = %v, want %v", unchecked, want)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestAddKeepsExisting(t *testing.T) {
	tr, _ := Load(filepath.Join(t.TempDir(), "history.json"))

	if !tr.Add("https://blog.example.com/p/one", "2025-06-01T00:00:00Z") {
		t.Error("first Add returned false")
	}
	if tr.Add("https://blog.example.com/p/one", "2026-01-01T00:00:00Z") {
		t.Error("second Add returned true, want false")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

func TestSaveWithoutPathIsNoop(t *testing.T) {
	tr := &Tracker{checked: map[string]string{"x": "y"}}
	if err := tr.Save(); err != nil {
		t.Errorf("Save: %v", err)
	}
}
