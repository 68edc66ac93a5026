// Package list renders the retrieved chunks shown next to an answer.
package list

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// rowLines is how many lines one chunk takes: title, location, preview.
const rowLines = 3

// ChunkList is a cursor over a RetrievalResult. The window scrolls to keep
// the cursor visible.
type ChunkList struct {
	styles *styles.Styles
	chunks []domain.ScoredChunk
	cursor int

	width, height int
}

func NewChunkList(s *styles.Styles) *ChunkList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ChunkList{styles: s, width: 80, height: 10}
}

// SetChunks replaces the list and moves the cursor to the first chunk.
func (l *ChunkList) SetChunks(chunks []domain.ScoredChunk) {
	l.chunks, l.cursor = chunks, 0
}

func (l *ChunkList) Chunks() []domain.ScoredChunk { return l.chunks }

func (l *ChunkList) Selected() int { return l.cursor }

// SelectedChunk is nil when the list is empty.
func (l *ChunkList) SelectedChunk() *domain.ScoredChunk {
	if l.cursor >= len(l.chunks) {
		return nil
	}
	return &l.chunks[l.cursor]
}

func (l *ChunkList) MoveUp() {
	l.cursor = max(l.cursor-1, 0)
}

func (l *ChunkList) MoveDown() {
	l.cursor = max(min(l.cursor+1, len(l.chunks)-1), 0)
}

func (l *ChunkList) SetDimensions(width, height int) {
	l.width, l.height = width, height
}

func (l *ChunkList) View() string {
	if len(l.chunks) == 0 {
		return l.styles.Muted.Render("No context")
	}

	// Two lines go to the header and two to the scroll hints.
	fits := max((l.height-4)/rowLines, 1)
	first := max(l.cursor-fits+1, 0)
	last := min(first+fits, len(l.chunks))

	var b strings.Builder
	b.WriteString(l.styles.Subtitle.Render(fmt.Sprintf("Context (%d)", len(l.chunks))))
	b.WriteString("\n\n")
	if first > 0 {
		b.WriteString(l.styles.Muted.Render(fmt.Sprintf("  ↑ %d more", first)) + "\n")
	}
	for i := first; i < last; i++ {
		b.WriteString(l.row(i) + "\n")
	}
	if rest := len(l.chunks) - last; rest > 0 {
		b.WriteString(l.styles.Muted.Render(fmt.Sprintf("  ↓ %d more", rest)) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (l *ChunkList) row(i int) string {
	sc := l.chunks[i]
	titleWidth := max(l.width-20, 10)

	title := cmp.Or(sc.Chunk.Title, "(Untitled)")
	title = fmt.Sprintf("%-*s", titleWidth, clip(title, titleWidth))
	score := fmt.Sprintf("%.2f", sc.Score)

	var head string
	if i == l.cursor {
		head = l.styles.Selected.Render("> " + title + "  " + score)
	} else {
		head = l.styles.Normal.Render("  "+title+"  ") + l.styles.Score(sc.Score).Render(score)
	}

	where := "    " + l.styles.URL.Render(sc.Chunk.URL) +
		l.styles.Muted.Render(fmt.Sprintf(" #%d", sc.Chunk.Sequence))

	preview := strings.Join(strings.Fields(cmp.Or(sc.Chunk.Summary, sc.Chunk.Content)), " ")
	preview = l.styles.Muted.Render("    " + clip(preview, max(l.width-6, 20)))

	return head + "\n" + where + "\n" + preview
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:max(n-3, 0)]) + "..."
}
