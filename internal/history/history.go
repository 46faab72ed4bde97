// Package history tracks which posts have already been checked across runs,
// backed by a JSON file.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type fileFormat struct {
	LastUpdated  string            `json:"last_updated"`
	CheckedPosts map[string]string `json:"checked_posts"`
}

// Tracker maps post URLs to the timestamp they were last checked.
type Tracker struct {
	path    string
	checked map[string]string
}

// Load reads the history at path. A missing file yields an empty tracker; a
// corrupt file also yields an empty tracker but reports the parse error so
// the caller can warn.
func Load(path string) (*Tracker, error) {
	t := &Tracker{path: path, checked: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("reading history %s: %w", path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return t, fmt.Errorf("parsing history %s: %w", path, err)
	}
	if f.CheckedPosts != nil {
		t.checked = f.CheckedPosts
	}
	return t, nil
}

// Save writes the history atomically via a temp file rename.
func (t *Tracker) Save() error {
	if t.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(fileFormat{
		LastUpdated:  time.Now().Format(time.RFC3339),
		CheckedPosts: t.checked,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing history: %w", err)
	}
	return nil
}

// MarkChecked records that postURL was checked now.
func (t *Tracker) MarkChecked(postURL string) {
	t.checked[postURL] = time.Now().Format(time.RFC3339)
}

// Add records postURL as checked at the given timestamp, used by bulk
// imports. Existing entries are kept.
func (t *Tracker) Add(postURL, timestamp string) bool {
	if _, ok := t.checked[postURL]; ok {
		return false
	}
	t.checked[postURL] = timestamp
	return true
}

// IsChecked reports whether postURL is in the history.
func (t *Tracker) IsChecked(postURL string) bool {
	_, ok := t.checked[postURL]
	return ok
}

// FilterUnchecked returns the posts not yet in the history, preserving
// order, plus the number filtered out.
func (t *Tracker) FilterUnchecked(postURLs []string) ([]string, int) {
	var unchecked []string
	for _, u := range postURLs {
		if !t.IsChecked(u) {
			unchecked = append(unchecked, u)
		}
	}
	return unchecked, len(postURLs) - len(unchecked)
}

// Len returns the number of checked posts on record.
func (t *Tracker) Len() int { return len(t.checked) }
