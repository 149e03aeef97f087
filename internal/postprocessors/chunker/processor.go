// Package chunker splits sections into token-bounded, overlap-preserving
// chunks that respect heading and code-fence boundaries.
package chunker

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

// DefaultMaxTokens is the default token budget per chunk.
const DefaultMaxTokens = 512

// DefaultOverlapTokens is the default overlap carried between chunks.
const DefaultOverlapTokens = 50

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Processor splits section content into chunks.
type Processor struct {
	maxTokens         int
	overlapTokens     int
	respectHeadings   bool
	respectCodeFences bool
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithOverlapTokens sets the overlap carried between adjacent chunks.
func WithOverlapTokens(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.overlapTokens = n
		}
	}
}

// WithRespectHeadings controls whether interior headings start new
// segments.
func WithRespectHeadings(v bool) Option {
	return func(p *Processor) { p.respectHeadings = v }
}

// WithRespectCodeFences controls whether fenced code blocks are kept
// whole.
func WithRespectCodeFences(v bool) Option {
	return func(p *Processor) { p.respectCodeFences = v }
}

// New creates a chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens:         DefaultMaxTokens,
		overlapTokens:     DefaultOverlapTokens,
		respectHeadings:   true,
		respectCodeFences: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlapTokens >= p.maxTokens {
		p.overlapTokens = p.maxTokens / 4
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// EstimateTokens approximates the token count of text as ceil(len/4).
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Chunk splits a section into chunks. Every chunk's content begins with
// the section heading, chunk indexes are contiguous from 0, and every
// chunk carries the same total count.
func (p *Processor) Chunk(section domain.Section) []domain.Chunk {
	headingPrefix := section.Heading + "\n\n"

	if EstimateTokens(section.Content) <= p.maxTokens {
		chunk := p.newChunk(section, headingPrefix+section.Content, 0)
		chunk.TotalChunks = 1
		return []domain.Chunk{chunk}
	}

	segments := p.segment(section.Content)

	headingTokens := EstimateTokens(headingPrefix)
	var chunks []domain.Chunk
	var current []string
	currentTokens := headingTokens

	emit := func() {
		content := headingPrefix + strings.Join(current, "\n")
		chunks = append(chunks, p.newChunk(section, content, len(chunks)))
	}

	for _, seg := range segments {
		segTokens := EstimateTokens(seg)
		if len(current) > 0 && currentTokens+segTokens > p.maxTokens {
			emit()
			current = p.overlapTail(current)
			currentTokens = headingTokens
			for _, s := range current {
				currentTokens += EstimateTokens(s)
			}
		}
		current = append(current, seg)
		currentTokens += segTokens
	}
	if len(current) > 0 {
		emit()
	}
	if len(chunks) == 0 {
		chunks = append(chunks, p.newChunk(section, headingPrefix+section.Content, 0))
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

// segment splits content into flushable units: fenced blocks stay
// whole, headings start fresh units, and long runs flush at blank
// lines.
func (p *Processor) segment(content string) []string {
	var segments []string
	var current []string
	inFence := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, strings.Join(current, "\n"))
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				current = append(current, line)
				inFence = false
				if p.respectCodeFences {
					flush()
				}
			} else {
				inFence = true
				current = append(current, line)
			}
			continue
		}

		if inFence {
			current = append(current, line)
			continue
		}

		if p.respectHeadings && headingRe.MatchString(line) {
			flush()
			current = append(current, line)
			continue
		}

		current = append(current, line)
		if trimmed == "" && len(current) > 10 {
			flush()
		}
	}
	flush()

	return segments
}

// overlapTail selects whole segments from the end of the just-emitted
// chunk whose combined estimate stays within the overlap budget.
func (p *Processor) overlapTail(segments []string) []string {
	var tail []string
	total := 0
	for i := len(segments) - 1; i >= 0; i-- {
		segTokens := EstimateTokens(segments[i])
		if total+segTokens > p.overlapTokens {
			break
		}
		total += segTokens
		tail = append([]string{segments[i]}, tail...)
	}
	return tail
}

func (p *Processor) newChunk(section domain.Section, content string, index int) domain.Chunk {
	return domain.Chunk{
		ID:         domain.ChunkID(section.File, section.LineStart, section.LineEnd, index),
		Content:    content,
		File:       section.File,
		Release:    section.Release,
		DocType:    section.DocType,
		Heading:    section.Heading,
		LineStart:  section.LineStart,
		LineEnd:    section.LineEnd,
		ChunkIndex: index,
		Tokens:     EstimateTokens(content),
	}
}
