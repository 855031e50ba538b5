// Package ingest loads, normalizes, chunks, embeds, and indexes source
// documents.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/bunko/internal/extract"
)

// Source is a loaded document: its path and extracted text.
type Source struct {
	Path string
	Text string
}

// ListSupportedFiles walks folder recursively and returns the paths of all
// files whose extension the extraction layer supports.
func ListSupportedFiles(folder string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extract.Supported(filepath.Ext(path)) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}
	return paths, nil
}

// LoadFile extracts the text of a single file.
func LoadFile(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	text, err := extract.File(path)
	if err != nil {
		return nil, err
	}
	return &Source{Path: path, Text: text}, nil
}
