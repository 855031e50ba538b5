package extract

import (
	"strings"
	"unicode/utf8"
)

// fromPlain returns content as a string, repairing invalid UTF-8 with the
// replacement character.
func fromPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return s, nil
}
