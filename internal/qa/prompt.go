package qa

import (
	"fmt"
	"strings"

	"github.com/hyperjump/bunko/internal/models"
)

const systemPrompt = "You are a helpful assistant that answers questions using the provided context snippets."

// BuildPrompt assembles the user message: each chunk's text labeled with its
// chunk ID, followed by the question.
func BuildPrompt(question string, chunks []*models.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context snippets (count=%d):\n\n", len(chunks))
	for i, ch := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", ch.ID(), ch.Content)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s", question)
	return b.String()
}
