package parser

import (
	"fmt"
	"strings"
	"unicode"
)

// ChunkConfig defines chunking parameters.
type ChunkConfig struct {
	// Size: maximum chunk length in characters (before the context label).
	Size int
	// Overlap: character overlap between consecutive chunks of a span,
	// rounded back to a sentence boundary. Must be < Size.
	Overlap int
}

// DefaultChunkConfig returns sensible defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Size:    800,
		Overlap: 100,
	}
}

// Validate rejects configurations that would loop or truncate at chunk time.
func (c ChunkConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("chunk overlap must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.Overlap, c.Size)
	}
	return nil
}

// ChunkSpan splits one lesson (or course-level) span into chunk texts at
// sentence boundaries. Each chunk stays within config.Size except when a
// single sentence alone exceeds it; sentences are never truncated. Each
// chunk after the first repeats the previous chunk's trailing sentences up
// to config.Overlap characters.
func ChunkSpan(body string, config ChunkConfig) []string {
	sentences := splitSentences(normalizeWhitespace(body))
	if len(sentences) == 0 {
		return nil
	}
	return packSentences(sentences, config.Size, config.Overlap)
}

// ContextLabel generates the provenance prefix stored with every chunk so
// the text is self-describing outside its metadata.
func ContextLabel(courseTitle string, lessonNumber *int) string {
	if lessonNumber != nil {
		return fmt.Sprintf("Course %s Lesson %d content: ", courseTitle, *lessonNumber)
	}
	return fmt.Sprintf("Course %s content: ", courseTitle)
}

// packSentences greedily fills chunks up to size, then restarts each new
// chunk at the latest earlier sentence boundary that keeps the repeated
// tail within overlap characters.
func packSentences(sentences []string, size, overlap int) []string {
	var chunks []string

	i := 0
	for i < len(sentences) {
		// Fill the chunk. A single sentence longer than size still goes
		// in whole; it just ends the chunk immediately.
		total := 0
		j := i
		for j < len(sentences) {
			length := len(sentences[j])
			if j > i {
				length++ // joining space
			}
			if j > i && total+length > size {
				break
			}
			total += length
			j++
		}
		chunks = append(chunks, strings.Join(sentences[i:j], " "))

		if j >= len(sentences) {
			break
		}

		// Walk back whole sentences that fit in the overlap window.
		next := j
		window := 0
		for next > i+1 {
			length := len(sentences[next-1])
			if window+length > overlap {
				break
			}
			window += length + 1
			next--
		}
		i = next
	}

	return chunks
}

// splitSentences splits text into sentences on terminal punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Look ahead for space or end
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Not an abbreviation (simple heuristic)
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue // Likely abbreviation like "Dr."
				}
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// normalizeWhitespace collapses runs of whitespace so line breaks inside a
// lesson body do not create artificial sentence boundaries.
func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
