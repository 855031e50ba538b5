package ingest

import (
	"regexp"
	"strings"
)

var (
	runsOfBlank  = regexp.MustCompile(`[ \t]+`)
	nonPrintable = regexp.MustCompile("[^\x20-\x7E\n]")
)

// Normalize cleans extracted text: line endings become \n, runs of spaces and
// tabs collapse to one space, non-printable characters are removed, and
// leading/trailing whitespace is trimmed.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = runsOfBlank.ReplaceAllString(text, " ")
	text = nonPrintable.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
