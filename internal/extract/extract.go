// Package extract pulls plain text out of the document formats the ingestion
// pipeline supports.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the file extensions the pipeline ingests.
var SupportedExtensions = []string{".pdf", ".docx", ".xlsx", ".txt", ".md"}

// Supported reports whether ext (with leading dot, any case) is ingestible.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SupportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// File reads the file at path and returns its text content based on the
// file's extension.
func File(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return Bytes(content, filepath.Ext(path))
}

// Bytes extracts text from content; ext selects the format and includes the
// leading dot. Unknown extensions are treated as plain text.
func Bytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return fromPDF(content)
	case ".docx":
		return fromDOCX(content)
	case ".xlsx":
		return fromExcel(content)
	default:
		return fromPlain(content)
	}
}
