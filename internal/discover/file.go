package discover

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// FromFile loads post URLs from a text file, one per line. Blank lines and
// lines that do not start with http are ignored. limit <= 0 means no limit.
func FromFile(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "http") {
			continue
		}
		urls = append(urls, line)
		if limit > 0 && len(urls) == limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}
	return urls, nil
}
