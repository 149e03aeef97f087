package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/logger"
)

// IgnoreFileName is the optional ignore file at the corpus root,
// using gitignore pattern syntax.
const IgnoreFileName = ".docignore"

// legacyProjectDir is scanned first when present; its results are
// preferred over a walk of the root.
const legacyProjectDir = "mnt/project"

var (
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	docFileRe  = regexp.MustCompile(`^R(\d+)-(.+)\.md$`)
	skipDirSet = map[string]bool{"node_modules": true, "build": true, "dist": true}
)

// Parser discovers Markdown files under a corpus root and splits them
// into sections by ATX headings.
type Parser struct{}

// NewParser creates a corpus parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse walks root and returns every section found, in file walk order.
// Malformed Markdown never fails; only invalid UTF-8 does.
func (p *Parser) Parse(root string) ([]domain.Section, error) {
	files, err := p.ListFiles(root)
	if err != nil {
		return nil, err
	}

	var sections []domain.Section
	for _, path := range files {
		fileSections, err := p.ParseFile(root, path)
		if err != nil {
			if errors.Is(err, domain.ErrParse) {
				return nil, err
			}
			// Unreadable files are skipped; traversal continues.
			logger.Warn("Skipping unreadable file %s: %v", path, err)
			continue
		}
		sections = append(sections, fileSections...)
	}
	return sections, nil
}

// ListFiles returns the absolute paths of every Markdown file the walk
// selects, honouring the ignore file and the legacy project directory.
func (p *Parser) ListFiles(root string) ([]string, error) {
	matcher := loadIgnoreMatcher(root)

	// Legacy layout: a mounted project directory is scanned first and
	// wins when it yields anything.
	legacy := filepath.Join(root, legacyProjectDir)
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		files := walkDocs(legacy, root, matcher)
		if len(files) > 0 {
			return files, nil
		}
	}

	return walkDocs(root, root, matcher), nil
}

// ParseFile splits one file into sections. Files whose names do not
// match the R<digits>-<DOCTYPE>.md schema yield no sections.
func (p *Parser) ParseFile(root, path string) ([]domain.Section, error) {
	base := filepath.Base(path)
	m := docFileRe.FindStringSubmatch(base)
	if m == nil {
		return nil, nil
	}
	release := "R" + m[1]
	docType := m[2]

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: invalid UTF-8 in %s", domain.ErrParse, base)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = base
	}
	rel = filepath.ToSlash(rel)

	return splitSections(string(data), rel, release, docType), nil
}

// splitSections cuts text at ATX headings. Content before the first
// heading belongs to no section; files with no headings yield nothing.
func splitSections(text, file, release, docType string) []domain.Section {
	lines := strings.Split(text, "\n")

	var sections []domain.Section
	var current *domain.Section
	var body []string

	flush := func(endLine int) {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		current.LineEnd = endLine
		sections = append(sections, *current)
		current = nil
		body = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush(lineNum - 1)
			current = &domain.Section{
				File:      file,
				Release:   release,
				DocType:   docType,
				Heading:   m[2],
				LineStart: lineNum,
			}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush(len(lines))

	return sections
}

// walkDocs recursively collects selected Markdown files under dir.
// Directory read errors are logged and skipped.
func walkDocs(dir, root string, matcher *ignore.GitIgnore) []string {
	var files []string

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("Skipping unreadable directory %s: %v", dir, err)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			if strings.HasPrefix(name, ".") || skipDirSet[name] {
				continue
			}
			if matched(matcher, root, path) {
				continue
			}
			files = append(files, walkDocs(path, root, matcher)...)
			continue
		}

		if !strings.HasSuffix(name, ".md") {
			continue
		}
		// Selected when schema-named anywhere, or sitting directly in
		// the root.
		if !docFileRe.MatchString(name) && dir != root {
			continue
		}
		if matched(matcher, root, path) {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files
}

func matched(matcher *ignore.GitIgnore, root, path string) bool {
	if matcher == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.MatchesPath(filepath.ToSlash(rel))
}

func loadIgnoreMatcher(root string) *ignore.GitIgnore {
	data, err := os.ReadFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil
	}
	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...)
}
