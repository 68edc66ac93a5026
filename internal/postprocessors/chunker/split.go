package chunker

import (
	"strings"
	"unicode/utf8"
)

const fence = "```"

// block is a fenced code region text[start:end]. start is the beginning of the
// opening fence line, end is the end of the closing fence line.
type block struct {
	start int
	end   int
}

// Split cuts text into chunks of at most maxSize bytes, preferring in order:
// keeping a fenced code block whole, a paragraph break, a sentence end, and
// finally a hard cut. A code block longer than maxSize is emitted as a single
// oversized chunk. Chunks are trimmed and empty chunks are dropped.
//
// A non-positive maxSize selects DefaultChunkSize.
func Split(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	blocks := fencedBlocks(text)

	var chunks []string
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			chunks = append(chunks, s)
		}
	}

	start := 0
	for start < len(text) {
		if len(text)-start <= maxSize {
			emit(text[start:])
			break
		}
		cut := nextCut(text, start, start+maxSize, blocks)
		emit(text[start:cut])
		start = cut
	}

	return chunks
}

// nextCut returns the end of the chunk starting at start whose nominal end is limit.
// The returned position is always greater than start.
func nextCut(text string, start, limit int, blocks []block) int {
	limit = runeFloor(text, start, limit)

	// A code block crossing the limit is never split: either stop in front of
	// it or, when nothing but whitespace precedes it, take all of it.
	for _, b := range blocks {
		if b.start >= limit {
			break
		}
		if b.start < start {
			continue
		}
		if b.end > limit {
			if strings.TrimSpace(text[start:b.start]) != "" {
				return b.start
			}
			return b.end
		}
	}

	window := text[start:limit]

	for i := strings.LastIndex(window, "\n\n"); i > 0; i = strings.LastIndex(window[:i], "\n\n") {
		if !inBlock(blocks, start+i) {
			return start + i
		}
	}

	for p := limit - 1; p > start; p-- {
		switch text[p] {
		case '.', '!', '?':
		default:
			continue
		}
		if p+1 < len(text) && isSpace(text[p+1]) && !inBlock(blocks, p) {
			return p + 1
		}
	}

	return limit
}

// fencedBlocks pairs fence lines in document order. A trailing fence without
// a partner is ordinary text.
func fencedBlocks(text string) []block {
	var blocks []block
	open := -1

	for pos := 0; pos < len(text); {
		lineEnd := len(text)
		if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
			lineEnd = pos + i
		}

		if strings.HasPrefix(strings.TrimLeft(text[pos:lineEnd], " \t"), fence) {
			if open < 0 {
				open = pos
			} else {
				blocks = append(blocks, block{start: open, end: lineEnd})
				open = -1
			}
		}

		pos = lineEnd + 1
	}

	return blocks
}

func inBlock(blocks []block, pos int) bool {
	for _, b := range blocks {
		if pos < b.start {
			return false
		}
		if pos < b.end {
			return true
		}
	}
	return false
}

// runeFloor moves limit back to the start of a UTF-8 sequence. If that would
// leave nothing to cut it moves forward past one whole rune instead.
func runeFloor(text string, start, limit int) int {
	if limit >= len(text) {
		return len(text)
	}
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit == start {
		limit++
		for limit < len(text) && !utf8.RuneStart(text[limit]) {
			limit++
		}
	}
	return limit
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
