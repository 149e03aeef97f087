package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/facts"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

func newCorpusFixture(t *testing.T, files map[string]string) (*CorpusService, *corpus.IndexCache, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0644))
	}
	index := corpus.NewIndexCache(corpus.NewParser())
	t.Cleanup(index.Stop)
	extractor := facts.NewExtractor()
	svc := NewCorpusService(root, index, facts.NewCache(index, extractor), querycache.New())
	return svc, index, root
}

func TestCompareReleases_OrdersByReleaseNumber(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, map[string]string{
		"R10-NOTES.md": "# Caching\ncaching layer details\n",
		"R2-NOTES.md":  "# Caching\ncaching improvements\n",
		"R1-NOTES.md":  "# Caching\ninitial caching design\n",
	})

	summaries, err := svc.CompareReleases(context.Background(), "caching", nil)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "R1", summaries[0].Release)
	assert.Equal(t, "R2", summaries[1].Release)
	assert.Equal(t, "R10", summaries[2].Release)

	require.NotEmpty(t, summaries[0].Sections)
	assert.Equal(t, "Caching", summaries[0].Sections[0].Heading)
}

func TestCompareReleases_SubsetFilter(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, map[string]string{
		"R1-NOTES.md": "# Caching\ninitial\n",
		"R2-NOTES.md": "# Caching\nimproved\n",
	})

	summaries, err := svc.CompareReleases(context.Background(), "caching", []string{"R2"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "R2", summaries[0].Release)
}

func TestCompareReleases_EmptyFeatureRejected(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, nil)
	_, err := svc.CompareReleases(context.Background(), " ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServiceDependencies_ArrowEdges(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, map[string]string{
		"R1-ARCHITECTURE.md": "# Flows\n" +
			"gateway -> billing\n" +
			"billing -> ledger\n" +
			"billing -> notifier\n" +
			"search -> ledger\n",
	})

	deps, err := svc.ServiceDependencies(context.Background(), "billing", "R1", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"gateway"}, deps.Inbound)
	assert.Equal(t, []string{"ledger", "notifier"}, deps.Outbound)
	assert.Len(t, deps.DataFlow, 3)
}

func TestServiceDependencies_NoDataFlowByDefault(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, map[string]string{
		"R1-ARCHITECTURE.md": "# Flows\ngateway -> billing\n",
	})

	deps, err := svc.ServiceDependencies(context.Background(), "billing", "R1", false)
	require.NoError(t, err)
	assert.Empty(t, deps.DataFlow)
	assert.Equal(t, []string{"gateway"}, deps.Inbound)
}

func TestServiceDependencies_ReleaseScoped(t *testing.T) {
	svc, _, _ := newCorpusFixture(t, map[string]string{
		"R1-ARCHITECTURE.md": "# Flows\ngateway -> billing\n",
		"R2-ARCHITECTURE.md": "# Flows\nsearch -> billing\n",
	})

	deps, err := svc.ServiceDependencies(context.Background(), "billing", "R2", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"search"}, deps.Inbound)
}

func TestRefresh_ForcesRebuild(t *testing.T) {
	svc, index, root := newCorpusFixture(t, map[string]string{
		"R1-NOTES.md": "# H\ncontent\n",
	})

	before, err := index.Get(root, corpus.GetOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.Refresh(context.Background()))

	after, err := index.Get(root, corpus.GetOptions{})
	require.NoError(t, err)
	assert.True(t, after.BuiltAt.After(before.BuiltAt))
}
