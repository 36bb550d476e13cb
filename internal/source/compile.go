package source

import (
	"fmt"
	"strings"
)

// Delimiter separates document blocks in the compiled context.
const Delimiter = "\n---\n"

// Compile renders each document as a Source/URL/Content block and joins the
// blocks in order. No documents compile to the empty string.
func Compile(docs []Document) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, fmt.Sprintf("Source: %s\nURL: %s\nContent: %s\n", d.Category, d.URL, d.Content))
	}
	return strings.Join(blocks, Delimiter)
}
