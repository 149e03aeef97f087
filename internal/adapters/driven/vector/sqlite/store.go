// Package sqlite provides the vector store adapter backed by SQLite.
// Embeddings are stored as float32 BLOBs and searched by brute-force
// cosine similarity; at documentation-corpus scale this is exact and
// sub-millisecond.
package sqlite

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// MaxContentLen caps stored chunk content; longer content is truncated
// on upsert.
const MaxContentLen = 65535

// MaxIDLen caps the primary key length.
const MaxIDLen = 512

// Config holds configuration for the vector store.
type Config struct {
	// DataDir is where the database file lives
	// (default: ~/.docdex/data).
	DataDir string

	// Collection names the table (default: chunks).
	Collection string
}

// Store is the SQLite-backed vector store.
type Store struct {
	cfg Config

	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewStore creates a vector store. The connection is opened lazily by
// Connect and kept for the process lifetime.
func NewStore(cfg Config) *Store {
	if cfg.Collection == "" {
		cfg.Collection = "chunks"
	}
	return &Store{cfg: cfg}
}

// Connect opens the database and creates the collection if absent.
// Calling Connect on an open store is a no-op.
func (s *Store) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	dataDir := s.cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docdex", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("%w: opening database: %v", domain.ErrVectorStoreUnavailable, err)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id          TEXT PRIMARY KEY CHECK (length(id) <= %d),
			embedding   BLOB NOT NULL,
			content     TEXT NOT NULL,
			file        TEXT NOT NULL,
			"release"   TEXT NOT NULL,
			doc_type    TEXT NOT NULL,
			service     TEXT NOT NULL DEFAULT '',
			heading     TEXT NOT NULL,
			line_start  INTEGER NOT NULL,
			line_end    INTEGER NOT NULL,
			chunk_index INTEGER NOT NULL,
			tokens      INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_release  ON %[1]s("release");
		CREATE INDEX IF NOT EXISTS idx_%[1]s_doc_type ON %[1]s(doc_type);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_service  ON %[1]s(service);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_file     ON %[1]s(file);
	`, s.cfg.Collection, MaxIDLen)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("creating collection: %w", err)
	}

	s.db = db
	s.path = dbPath
	return nil
}

// Upsert writes chunk rows with their embeddings. Chunks and embeddings
// correspond by index; a length mismatch is an input error.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", domain.ErrInvalidInput, len(chunks), len(embeddings))
	}
	db, err := s.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, embedding, content, file, "release", doc_type, service,
			heading, line_start, line_end, chunk_index, tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding=excluded.embedding, content=excluded.content,
			file=excluded.file, "release"=excluded."release",
			doc_type=excluded.doc_type, service=excluded.service,
			heading=excluded.heading, line_start=excluded.line_start,
			line_end=excluded.line_end, chunk_index=excluded.chunk_index,
			tokens=excluded.tokens
	`, s.cfg.Collection))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		content := chunk.Content
		if len(content) > MaxContentLen {
			content = content[:MaxContentLen]
		}
		_, err := stmt.ExecContext(ctx,
			chunk.ID, float32ToBlob(embeddings[i]), content,
			chunk.File, chunk.Release, chunk.DocType, "",
			chunk.Heading, chunk.LineStart, chunk.LineEnd,
			chunk.ChunkIndex, chunk.Tokens)
		if err != nil {
			return fmt.Errorf("upserting chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns the topK nearest chunks by cosine similarity,
// restricted to rows matching every filter predicate.
func (s *Store) Search(ctx context.Context, vector []float32, topK int, filter driven.VectorFilter) ([]domain.ChunkHit, error) {
	if topK <= 0 {
		topK = 10
	}
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	where, args := filterClause(filter)
	query := fmt.Sprintf(`
		SELECT id, embedding, content, file, "release", doc_type,
			heading, line_start, line_end, chunk_index, tokens
		FROM %s %s`, s.cfg.Collection, where)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	h := &hitHeap{}
	heap.Init(h)
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &blob, &chunk.Content, &chunk.File,
			&chunk.Release, &chunk.DocType, &chunk.Heading,
			&chunk.LineStart, &chunk.LineEnd, &chunk.ChunkIndex, &chunk.Tokens); err != nil {
			return nil, err
		}
		emb := blobToFloat32(blob)
		if len(emb) != len(vector) {
			continue
		}
		// TotalChunks is not persisted and comes back as zero.
		score := dotProduct(vector, emb)
		hit := domain.ChunkHit{Chunk: chunk, Score: score}
		if h.Len() < topK {
			heap.Push(h, hit)
		} else if score > (*h)[0].Score {
			(*h)[0] = hit
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hits := make([]domain.ChunkHit, h.Len())
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(h).(domain.ChunkHit)
	}
	return hits, nil
}

// Delete removes rows matching the filter. At least one predicate is
// required so a bad call cannot wipe the collection.
func (s *Store) Delete(ctx context.Context, filter driven.VectorFilter) error {
	if filter.Empty() {
		return fmt.Errorf("%w: delete requires at least one filter predicate", domain.ErrInvalidInput)
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	where, args := filterClause(filter)
	_, err = db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s %s", s.cfg.Collection, where), args...)
	return err
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.cfg.Collection)).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path, once connected.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	return s.db, nil
}

func filterClause(filter driven.VectorFilter) (string, []any) {
	var clauses []string
	var args []any
	if filter.Release != "" {
		clauses = append(clauses, `"release" = ?`)
		args = append(args, filter.Release)
	}
	if filter.DocType != "" {
		clauses = append(clauses, "doc_type = ?")
		args = append(args, filter.DocType)
	}
	if filter.Service != "" {
		clauses = append(clauses, "service = ?")
		args = append(args, filter.Service)
	}
	if filter.File != "" {
		clauses = append(clauses, "file = ?")
		args = append(args, filter.File)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// hitHeap keeps the lowest-scoring hit at the root for top-K selection.
type hitHeap []domain.ChunkHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)        { *h = append(*h, x.(domain.ChunkHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
