package external

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmg-evidence-engine/internal/domain"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testVariant() *domain.Variant {
	return &domain.Variant{
		ID:          "var-1",
		GeneSymbol:  "BRCA1",
		Chromosome:  "chr17",
		Position:    43045677,
		Reference:   "C",
		Alternate:   "T",
		Consequence: domain.Missense,
	}
}

func newFrequencyClient(t *testing.T, baseURL string) *FrequencyClient {
	t.Helper()
	client, err := NewFrequencyClient(FrequencyClientConfig{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		RateLimit: 100,
	}, nil, quietLogger())
	require.NoError(t, err)
	return client
}

func TestFrequencyClientLookup(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/variants/17-43045677-C-T/frequency", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"allele_frequency": 0.0003,
			"subpopulations": {"afr": 0.001, "eas": 0.0001},
			"allele_count": 42,
			"allele_number": 140000,
			"homozygote_count": 0
		}`))
	}))
	defer server.Close()

	client := newFrequencyClient(t, server.URL)

	record, err := client.Lookup(context.Background(), testVariant())
	require.NoError(t, err)
	assert.True(t, record.Found)
	assert.InDelta(t, 0.0003, record.OverallFrequency, 1e-12)
	assert.InDelta(t, 0.001, record.MaxFrequency(), 1e-12)
	assert.Equal(t, 42, record.AlleleCount)

	// Second lookup is served from the in-process cache.
	_, err = client.Lookup(context.Background(), testVariant())
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestFrequencyClientAbsentVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newFrequencyClient(t, server.URL)

	record, err := client.Lookup(context.Background(), testVariant())
	require.NoError(t, err)
	assert.False(t, record.Found)
}

func TestFrequencyClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newFrequencyClient(t, server.URL)

	_, err := client.Lookup(context.Background(), testVariant())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFrequencyClientRejectsIncompleteVariant(t *testing.T) {
	client := newFrequencyClient(t, "http://localhost:0")

	variant := testVariant()
	variant.Reference = ""
	_, err := client.Lookup(context.Background(), variant)
	require.Error(t, err)
}

func TestPredictionClientScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/variants/17-43045677-C-T/predictions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sift": 0.01, "polyphen": 0.97, "cadd": 28.5, "splice_impact": 0.04}`))
	}))
	defer server.Close()

	client, err := NewPredictionClient(PredictionClientConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, quietLogger())
	require.NoError(t, err)

	scores, err := client.Scores(context.Background(), testVariant())
	require.NoError(t, err)
	require.NotNil(t, scores.SIFT)
	assert.InDelta(t, 0.01, *scores.SIFT, 1e-12)
	require.NotNil(t, scores.CADD)
	assert.InDelta(t, 28.5, *scores.CADD, 1e-12)
	assert.Nil(t, scores.REVEL)
	assert.Nil(t, scores.MetaSVM)
}

func TestPredictionClientNoPredictions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewPredictionClient(PredictionClientConfig{BaseURL: server.URL}, quietLogger())
	require.NoError(t, err)

	scores, err := client.Scores(context.Background(), testVariant())
	require.NoError(t, err)
	assert.Nil(t, scores.SIFT)
	assert.Nil(t, scores.SpliceImpact)
}

func TestPredictionClientCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewPredictionClient(PredictionClientConfig{BaseURL: server.URL}, quietLogger())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := client.Scores(context.Background(), testVariant())
		require.Error(t, err)
	}

	upstreamCalls := hits.Load()
	assert.Equal(t, int64(5), upstreamCalls)

	// The breaker is open now: the call fails fast without reaching the
	// upstream.
	_, err = client.Scores(context.Background(), testVariant())
	require.Error(t, err)
	assert.Equal(t, upstreamCalls, hits.Load())
}

func TestVariantKeyNormalizesChromosome(t *testing.T) {
	key, err := variantKey(testVariant())
	require.NoError(t, err)
	assert.Equal(t, "17-43045677-C-T", key)
}
