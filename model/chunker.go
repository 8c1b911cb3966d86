package model

import "strings"

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 120
)

// ChunkText splits text into overlapping windows of at most maxChars
// characters. Each window after the first starts overlap characters before
// the previous end; the start is clamped to strictly increase so the loop
// always terminates. Windows never split a multi-byte rune.
// Whitespace-only input yields no chunks and no chunk is ever empty.
func ChunkText(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []string
	n := len(runes)
	start := 0
	for start < n {
		end := start + maxChars
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}
