// Package history keeps the previous run's results folder around and reports
// how the harvested address list changed since then.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	EmailsFile = "emails.txt"
	DiffFile   = "emails.diff"
	oldSuffix  = ".old"
)

// Change is the difference between two runs' address lists.
type Change struct {
	// Previous is false when no earlier list existed.
	Previous bool
	Added    []string
	Removed  []string
}

// Empty reports whether nothing was added or removed.
func (c *Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// OldFolder returns where Rotate moves folder.
func OldFolder(folder string) string {
	return filepath.Clean(folder) + oldSuffix
}

// Rotate moves a non-empty folder to <folder>.old, replacing any earlier
// copy. A missing or empty folder is left alone. It reports whether a
// rotation happened.
func Rotate(folder string) (bool, error) {
	entries, err := os.ReadDir(folder)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	old := OldFolder(folder)
	if _, err := os.Stat(old); err == nil {
		if err := os.RemoveAll(old); err != nil {
			return false, err
		}
	}
	if err := os.Rename(folder, old); err != nil {
		return false, err
	}
	return true, nil
}

// WriteEmails stores addrs in folder/emails.txt, one per line.
func WriteEmails(folder string, addrs []string) (string, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(folder, EmailsFile)
	var b strings.Builder
	for _, addr := range addrs {
		b.WriteString(addr)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadEmails loads an emails.txt list. Blank lines are ignored.
func ReadEmails(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var addrs []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			addrs = append(addrs, line)
		}
	}
	return addrs, nil
}

// Compare diffs <folder>.old/emails.txt against folder/emails.txt and writes
// the result to folder/emails.diff as +/- lines.
func Compare(folder string) (*Change, error) {
	current, err := ReadEmails(filepath.Join(folder, EmailsFile))
	if err != nil {
		return nil, fmt.Errorf("read current list: %w", err)
	}

	previous, err := ReadEmails(filepath.Join(OldFolder(folder), EmailsFile))
	if errors.Is(err, os.ErrNotExist) {
		return &Change{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read previous list: %w", err)
	}

	change := diffLists(previous, current)
	change.Previous = true

	file, err := os.Create(filepath.Join(folder, DiffFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	for _, addr := range change.Added {
		fmt.Fprintf(file, "+%s\n", addr)
	}
	for _, addr := range change.Removed {
		fmt.Fprintf(file, "-%s\n", addr)
	}
	return change, nil
}

func diffLists(previous, current []string) *Change {
	sort.Strings(previous)
	sort.Strings(current)

	dmp := diffmatchpatch.New()
	a, b, c := dmp.DiffLinesToChars(joinLines(previous), joinLines(current))
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, c)

	change := &Change{}
	for _, diff := range diffs {
		for _, line := range strings.Split(diff.Text, "\n") {
			if line == "" {
				continue
			}
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				change.Added = append(change.Added, line)
			case diffmatchpatch.DiffDelete:
				change.Removed = append(change.Removed, line)
			}
		}
	}
	return change
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
