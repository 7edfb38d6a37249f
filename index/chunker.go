package index

const (
	// DefaultChunkSize is the window size in bytes for splitting document text.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is carried over between consecutive chunks.
	DefaultChunkOverlap = 100

	// How far back from a hard window boundary we look for a sentence end.
	boundaryLookback = 200
)

// Split cuts text into overlapping chunks, preferring sentence boundaries.
// Text that fits into a single window is returned as-is, so an empty string
// yields one empty chunk; callers reject empty content before indexing.
func Split(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + size
		if end > len(text) {
			end = len(text)
		}

		// Shorten the window to the nearest sentence end so we don't cut
		// mid-sentence. The hard boundary stands if none is close enough.
		if end < len(text) {
			floor := end - boundaryLookback
			if floor < start {
				floor = start
			}
			for i := end; i > floor; i-- {
				if isSentenceEnd(text[i-1]) && (i == len(text) || text[i] == ' ' || text[i] == '\n') {
					end = i
					break
				}
			}
		}

		chunks = append(chunks, text[start:end])

		// Overlap must still advance past the current start, otherwise short
		// tail segments would loop forever.
		if end-overlap > start {
			start = end - overlap
		} else {
			start = end
		}
	}

	return chunks
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '?' || b == '!'
}
