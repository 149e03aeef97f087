// Package app wires the docdex core: adapters are constructed from
// configuration and environment, services are threaded explicitly, and
// everything is torn down in Close. This is the composition root; no
// package-level singletons exist anywhere in the core.
package app

import (
	"os"

	configfile "github.com/custodia-labs/docdex/internal/adapters/driven/config/file"
	hashembed "github.com/custodia-labs/docdex/internal/adapters/driven/embedding/hash"
	openaiembed "github.com/custodia-labs/docdex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docdex/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/docdex/internal/adapters/driven/reranker/voyage"
	vectorsqlite "github.com/custodia-labs/docdex/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/docdex/internal/core/ports/driven"
	"github.com/custodia-labs/docdex/internal/core/services"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/facts"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/postprocessors/chunker"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

// App bundles the wired core for the CLI and the MCP server.
type App struct {
	Cfg *configfile.Config

	Index      *corpus.IndexCache
	FactCache  *facts.Cache
	QueryCache *querycache.Cache

	Embedder    driven.EmbeddingService
	VectorStore driven.VectorStore
	LLM         driven.LLMService

	Search  *services.SearchService
	RAG     *services.RAGService
	Update  *services.UpdateAgent
	Corpus  *services.CorpusService
	Indexer *services.Indexer
	Metrics *services.Metrics
}

// New wires the core from configuration. Providers without credentials
// degrade: embedding falls back to the deterministic hash embedder,
// generation is simply absent, and enabled reranking falls back to the
// heuristic scorer.
func New(cfg *configfile.Config) (*App, error) {
	parser := corpus.NewParser()
	index := corpus.NewIndexCache(parser)
	extractor := facts.NewExtractor()
	factCache := facts.NewCache(index, extractor)
	queryCache := querycache.New(querycache.WithTTL(cfg.CacheTTL()))

	embedder := buildEmbedder(cfg)
	llm := buildLLM(cfg)
	rerankProvider := buildReranker(cfg)

	store := vectorsqlite.NewStore(vectorsqlite.Config{
		DataDir:    cfg.Vector.DataDir,
		Collection: cfg.Vector.Collection,
	})

	rerank := services.NewRerankService(rerankProvider, cfg.Reranker.Enabled, cfg.Reranker.TopK)
	chunks := chunker.New()

	a := &App{
		Cfg:         cfg,
		Index:       index,
		FactCache:   factCache,
		QueryCache:  queryCache,
		Embedder:    embedder,
		VectorStore: store,
		LLM:         llm,
		Search:      services.NewSearchService(cfg.Corpus.Root, index, queryCache),
		RAG:         services.NewRAGService(embedder, store, rerank, llm),
		Update:      services.NewUpdateAgent(cfg.Corpus.Root, index, factCache, extractor, queryCache),
		Corpus:      services.NewCorpusService(cfg.Corpus.Root, index, factCache, queryCache),
		Metrics:     services.NewMetrics(),
	}
	a.Indexer = services.NewIndexer(cfg.Corpus.Root, index, chunks, embedder, store, cfg.Corpus.MaxConcurrency)
	return a, nil
}

// Close releases every long-lived resource.
func (a *App) Close() {
	a.Index.Stop()
	if a.VectorStore != nil {
		a.VectorStore.Close() //nolint:errcheck
	}
	if a.Embedder != nil {
		a.Embedder.Close() //nolint:errcheck
	}
	if a.LLM != nil {
		a.LLM.Close() //nolint:errcheck
	}
}

func buildEmbedder(cfg *configfile.Config) driven.EmbeddingService {
	if cfg.Embedding.Provider == "hash" {
		return hashembed.NewEmbeddingService(cfg.Embedding.Dimensions)
	}
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     os.Getenv("OPENAI_API_KEY"),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		logger.Warn("Embedding provider unavailable (%v), using hash fallback", err)
		return hashembed.NewEmbeddingService(cfg.Embedding.Dimensions)
	}
	return svc
}

func buildLLM(cfg *configfile.Config) driven.LLMService {
	svc, err := anthropic.NewLLMService(anthropic.Config{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:  cfg.Generation.Model,
	})
	if err != nil {
		logger.Warn("Generation provider unavailable: %v", err)
		return nil
	}
	return svc
}

func buildReranker(cfg *configfile.Config) driven.RerankProvider {
	if !cfg.Reranker.Enabled {
		return nil
	}
	provider, err := voyage.NewProvider(voyage.Config{
		APIKey: os.Getenv("VOYAGE_API_KEY"),
		Model:  cfg.Reranker.Model,
	})
	if err != nil {
		logger.Warn("Rerank provider unavailable: %v", err)
		return nil
	}
	return provider
}
