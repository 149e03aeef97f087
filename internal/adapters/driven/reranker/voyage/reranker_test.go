package voyage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docdex/internal/core/domain"
)

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestRerank(t *testing.T) {
	var captured rerankRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		resp := rerankResponse{}
		resp.Data = append(resp.Data, struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		}{Index: 1, RelevanceScore: 0.92}, struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		}{Index: 0, RelevanceScore: 0.41})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewProvider(Config{APIKey: "test-key", BaseURL: server.URL, RequestsPerSecond: 1000})
	require.NoError(t, err)

	results, err := provider.Rerank(context.Background(), "query", []string{"doc a", "doc b"}, 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0.92, results[0].Score)

	assert.Equal(t, "query", captured.Query)
	assert.Equal(t, []string{"doc a", "doc b"}, captured.Documents)
	assert.Equal(t, 2, captured.TopK)
}

func TestRerank_EmptyDocuments(t *testing.T) {
	provider, err := NewProvider(Config{APIKey: "test-key"})
	require.NoError(t, err)

	results, err := provider.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerank_OutOfRangeIndexDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := rerankResponse{}
		resp.Data = append(resp.Data, struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		}{Index: 7, RelevanceScore: 0.9})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	provider, err := NewProvider(Config{APIKey: "test-key", BaseURL: server.URL, RequestsPerSecond: 1000})
	require.NoError(t, err)

	results, err := provider.Rerank(context.Background(), "query", []string{"only doc"}, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}
