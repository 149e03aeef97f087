package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

func testSection(content string) domain.Section {
	return domain.Section{
		File:      "R1-NOTES.md",
		Release:   "R1",
		DocType:   "NOTES",
		Heading:   "Topic",
		Content:   content,
		LineStart: 10,
		LineEnd:   40,
	}
}

func TestChunk_SmallSectionIsOneChunk(t *testing.T) {
	section := testSection("short content")

	chunks := New().Chunk(section)
	require.Len(t, chunks, 1)

	assert.Equal(t, "Topic\n\nshort content", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, "R1-NOTES.md:10-40:0", chunks[0].ID)
}

func TestChunk_ExactBudgetIsOneChunk(t *testing.T) {
	// Exactly maxTokens estimated tokens: 40 chars at 4 chars/token.
	content := strings.Repeat("abcd", 10)
	section := testSection(content)

	chunks := New(WithMaxTokens(10)).Chunk(section)
	require.Len(t, chunks, 1)
}

func TestChunk_EveryChunkStartsWithHeading(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "paragraph %d with some words in it\n\n", i)
	}
	section := testSection(sb.String())

	chunks := New(WithMaxTokens(50), WithOverlapTokens(10)).Chunk(section)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk.Content, "Topic\n\n"),
			"chunk %d does not start with the heading", chunk.ChunkIndex)
	}
}

func TestChunk_IndexesContiguousAndTotalsEqual(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "line %d of filler text for the chunker\n\n", i)
	}
	section := testSection(sb.String())

	chunks := New(WithMaxTokens(60), WithOverlapTokens(10)).Chunk(section)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, len(chunks), chunk.TotalChunks)
		assert.Equal(t, fmt.Sprintf("R1-NOTES.md:10-40:%d", i), chunk.ID)
	}
}

func TestChunk_CodeFenceStaysWhole(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("intro paragraph before the code\n")
	sb.WriteString("```go\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "fmt.Println(%d)\n", i)
	}
	sb.WriteString("```\n")
	sb.WriteString("outro paragraph after the code\n")
	section := testSection(sb.String())

	chunks := New(WithMaxTokens(120), WithOverlapTokens(0)).Chunk(section)

	// The fence never splits across chunks: any chunk containing the
	// opening fence also contains the closing one.
	for _, chunk := range chunks {
		opens := strings.Count(chunk.Content, "```go")
		if opens > 0 {
			assert.GreaterOrEqual(t, strings.Count(chunk.Content, "```"), 2*opens)
		}
	}
}

func TestChunk_InteriorHeadingStartsNewSegment(t *testing.T) {
	content := strings.Repeat("alpha text line\n", 30) +
		"## Interior\n" +
		strings.Repeat("beta text line\n", 30)
	section := testSection(content)

	chunks := New(WithMaxTokens(80), WithOverlapTokens(0)).Chunk(section)
	require.Greater(t, len(chunks), 1)

	// The interior heading starts a segment, so it is never glued to
	// the middle of an alpha line.
	for _, chunk := range chunks {
		if idx := strings.Index(chunk.Content, "## Interior"); idx > 0 {
			assert.Equal(t, byte('\n'), chunk.Content[idx-1])
		}
	}
}

func TestChunk_OverlapCarriesTailSegments(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "## H%d\nsegment body %d\n", i, i)
	}
	section := testSection(sb.String())

	chunks := New(WithMaxTokens(60), WithOverlapTokens(20)).Chunk(section)
	require.Greater(t, len(chunks), 1)

	// Adjacent chunks share at least one segment.
	for i := 1; i < len(chunks); i++ {
		prev := strings.TrimPrefix(chunks[i-1].Content, "Topic\n\n")
		cur := strings.TrimPrefix(chunks[i].Content, "Topic\n\n")
		prevLines := strings.Split(prev, "\n")
		assert.True(t, strings.Contains(cur, prevLines[len(prevLines)-1]) ||
			strings.Contains(cur, prevLines[len(prevLines)-2]),
			"chunk %d shares no tail with its predecessor", i)
	}
}

func TestChunk_TokensEstimated(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestNew_OverlapClampedBelowBudget(t *testing.T) {
	p := New(WithMaxTokens(100), WithOverlapTokens(200))
	assert.Equal(t, 25, p.overlapTokens)
}
