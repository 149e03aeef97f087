package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/postprocessors/chunker"
)

// DefaultIndexConcurrency bounds parallel embed batches during a sync.
const DefaultIndexConcurrency = 10

// embedBatchSize is how many chunks share one embedding call.
const embedBatchSize = 32

// Indexer synchronizes the vector store with the corpus: parse, chunk,
// embed, upsert. It is invoked at startup and on watcher reindexes.
type Indexer struct {
	root        string
	index       *corpus.IndexCache
	chunks      *chunker.Processor
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	concurrency int
}

// NewIndexer creates a vector store synchronizer.
func NewIndexer(root string, index *corpus.IndexCache, chunks *chunker.Processor, embedder driven.EmbeddingService, store driven.VectorStore, concurrency int) *Indexer {
	if concurrency <= 0 {
		concurrency = DefaultIndexConcurrency
	}
	return &Indexer{
		root:        root,
		index:       index,
		chunks:      chunks,
		embedder:    embedder,
		store:       store,
		concurrency: concurrency,
	}
}

// Sync chunks every section and upserts chunk rows with fresh
// embeddings. Returns the number of chunks written.
func (ix *Indexer) Sync(ctx context.Context) (int, error) {
	if ix.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	index, err := ix.index.Get(ix.root, corpus.GetOptions{})
	if err != nil {
		return 0, err
	}

	var all []domain.Chunk
	for _, section := range index.Sections {
		all = append(all, ix.chunks.Chunk(section)...)
	}
	if len(all) == 0 {
		return 0, nil
	}

	logger.Section("Vector Sync")
	logger.Debug("Embedding %d chunks from %d sections", len(all), len(index.Sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)

	for start := 0; start < len(all); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(all) {
			end = len(all)
		}
		batch := all[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}
			embeddings, err := ix.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			return ix.store.Upsert(gctx, batch, embeddings)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(all), nil
}

// SyncFile refreshes the vector rows for a single file: stale rows are
// deleted, then the file's current sections are re-indexed.
func (ix *Indexer) SyncFile(ctx context.Context, relFile string) error {
	if ix.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}

	if err := ix.store.Delete(ctx, driven.VectorFilter{File: relFile}); err != nil {
		return err
	}

	index, err := ix.index.Get(ix.root, corpus.GetOptions{})
	if err != nil {
		return err
	}

	var chunks []domain.Chunk
	for _, section := range index.Sections {
		if section.File != relFile {
			continue
		}
		chunks = append(chunks, ix.chunks.Chunk(section)...)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	return ix.store.Upsert(ctx, chunks, embeddings)
}
