package crawler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/net/html/charset"

	"dorkmail/fetcher"
	"dorkmail/helper"
)

// Sink persists fetched pages.
type Sink interface {
	// Save stores page under sequence number seq and returns where it went.
	Save(seq int, page *fetcher.Page) (string, error)
}

// FolderSink writes page_<seq>.html files into Dir, converted to UTF-8.
type FolderSink struct {
	Dir string
	// Pretty reformats HTML, JavaScript and JSON before writing.
	Pretty bool
}

// NewFolderSink creates dir if needed.
func NewFolderSink(dir string, pretty bool) (*FolderSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FolderSink{Dir: dir, Pretty: pretty}, nil
}

// FileName is the artifact name for sequence number seq.
func FileName(seq int) string {
	return fmt.Sprintf("page_%d.html", seq)
}

func (s *FolderSink) Save(seq int, page *fetcher.Page) (string, error) {
	body, err := toUTF8(page.Body, page.ContentType)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", page.URL, err)
	}
	if s.Pretty {
		body = helper.PrettyContent(page.ContentType, body)
	}

	path := filepath.Join(s.Dir, FileName(seq))
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// toUTF8 decodes body using the charset from contentType, a BOM or a meta
// tag, falling back to the HTML5 default.
func toUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
