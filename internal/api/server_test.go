package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmg-evidence-engine/internal/config"
	"github.com/acmg-evidence-engine/internal/domain"
	"github.com/acmg-evidence-engine/internal/engine"
	"github.com/acmg-evidence-engine/internal/review"
)

type stubClassifier struct {
	outcome *domain.ClassificationOutcome
	err     error
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, variant *domain.Variant, manual *domain.EvidenceData) (*domain.ClassificationOutcome, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.outcome, nil
}

type memOutcomeStore struct {
	saved    []*domain.ClassificationOutcome
	byID     map[string]*domain.ClassificationOutcome
	saveErr  error
	byGeneID map[string]string
}

func newMemOutcomeStore() *memOutcomeStore {
	return &memOutcomeStore{
		byID:     make(map[string]*domain.ClassificationOutcome),
		byGeneID: make(map[string]string),
	}
}

func (m *memOutcomeStore) Save(ctx context.Context, geneSymbol string, outcome *domain.ClassificationOutcome) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, outcome)
	m.byID[outcome.ID] = outcome
	m.byGeneID[outcome.ID] = geneSymbol
	return nil
}

func (m *memOutcomeStore) GetByID(ctx context.Context, id string) (*domain.ClassificationOutcome, error) {
	outcome, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return outcome, nil
}

func (m *memOutcomeStore) ListByVariant(ctx context.Context, variantID string, limit int) ([]*domain.ClassificationOutcome, error) {
	var out []*domain.ClassificationOutcome
	for _, o := range m.saved {
		if o.VariantID == variantID {
			out = append(out, o)
		}
	}
	return out, nil
}

type memReviewStore struct {
	items  map[int64]*review.Item
	nextID int64
}

func newMemReviewStore() *memReviewStore {
	return &memReviewStore{items: make(map[int64]*review.Item), nextID: 1}
}

func (m *memReviewStore) Enqueue(ctx context.Context, item *review.Item) error {
	item.ID = m.nextID
	m.nextID++
	item.Status = review.StatusPending
	item.CreatedAt = time.Now()
	m.items[item.ID] = item
	return nil
}

func (m *memReviewStore) Get(ctx context.Context, id int64) (*review.Item, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (m *memReviewStore) ListPending(ctx context.Context, limit, offset int) ([]*review.Item, error) {
	var out []*review.Item
	for _, item := range m.items {
		if item.Status == review.StatusPending {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memReviewStore) Resolve(ctx context.Context, id int64, status review.Status, override domain.Classification, notes string) error {
	item, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if status == review.StatusOverridden && !override.IsValid() {
		return fmt.Errorf("resolving review item %d: %w", id, domain.ErrInvalidClassification)
	}
	item.Status = status
	item.ReviewerClassification = override
	item.Notes = notes
	return nil
}

func (m *memReviewStore) Count(ctx context.Context) (int64, error) { return int64(len(m.items)), nil }
func (m *memReviewStore) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}
func (m *memReviewStore) Close() error { return nil }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleOutcome(hasConflict bool) *domain.ClassificationOutcome {
	outcome := &domain.ClassificationOutcome{
		ID:             "outcome-1",
		VariantID:      "var-1",
		Classification: domain.LIKELY_PATHOGENIC,
		HasConflict:    hasConflict,
		Buckets: map[domain.Bucket][]domain.EvidenceCode{
			domain.BucketPVS: {domain.PVS1},
			domain.BucketPM:  {domain.PM2},
		},
		EngineVersion: engine.Version,
		ClassifiedAt:  time.Now().UTC(),
	}
	if hasConflict {
		outcome.Warnings = []domain.ConflictWarning{{
			CodeA:   domain.PM2,
			CodeB:   domain.BS1,
			Message: "PM2 and BS1 both apply: rarity and excess frequency asserted together",
		}}
	}
	return outcome
}

func newTestServer(t *testing.T, classifier Classifier, outcomes OutcomeStore, reviews review.Store) *Server {
	t.Helper()
	registry := engine.NewRegistry()
	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0}, quietLogger(), classifier, registry, outcomes, reviews, false)
}

func classifyBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"variant": domain.Variant{
			ID:          "var-1",
			GeneSymbol:  "BRCA1",
			Chromosome:  "17",
			Position:    43045677,
			Reference:   "C",
			Alternate:   "T",
			Consequence: domain.Frameshift,
		},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, &stubClassifier{outcome: sampleOutcome(false)}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, engine.Version, resp["engine_version"])
}

func TestClassifyPersistsOutcome(t *testing.T) {
	classifier := &stubClassifier{outcome: sampleOutcome(false)}
	outcomes := newMemOutcomeStore()
	reviews := newMemReviewStore()
	server := newTestServer(t, classifier, outcomes, reviews)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", classifyBody(t))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.ClassificationOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.LIKELY_PATHOGENIC, resp.Classification)

	require.Len(t, outcomes.saved, 1)
	assert.Equal(t, "BRCA1", outcomes.byGeneID["outcome-1"])

	// No conflict, so nothing is routed to review.
	assert.Empty(t, reviews.items)
}

func TestClassifyRoutesConflictsToReview(t *testing.T) {
	classifier := &stubClassifier{outcome: sampleOutcome(true)}
	reviews := newMemReviewStore()
	server := newTestServer(t, classifier, newMemOutcomeStore(), reviews)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", classifyBody(t))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, reviews.items, 1)

	item := reviews.items[1]
	assert.Equal(t, "outcome-1", item.OutcomeID)
	assert.Equal(t, "var-1", item.VariantID)
	assert.Equal(t, "BRCA1", item.GeneSymbol)
	assert.True(t, item.HasConflict)
	assert.Contains(t, item.WarningSummary, "PM2 and BS1")
}

func TestClassifyRejectsMalformedBody(t *testing.T) {
	server := newTestServer(t, &stubClassifier{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassifyRejectsInvalidVariant(t *testing.T) {
	classifier := &stubClassifier{outcome: sampleOutcome(false)}
	server := newTestServer(t, classifier, nil, nil)

	body, err := json.Marshal(map[string]any{
		"variant": map[string]any{
			"id":          "var-1",
			"gene_symbol": "BRCA1",
			"consequence": "definitely_not_a_consequence",
		},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, classifier.calls)
}

func TestClassifyReportsEngineFailure(t *testing.T) {
	classifier := &stubClassifier{err: fmt.Errorf("gathering evidence: upstream timeout")}
	server := newTestServer(t, classifier, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", classifyBody(t))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestClassifySucceedsWhenPersistenceFails(t *testing.T) {
	outcomes := newMemOutcomeStore()
	outcomes.saveErr = fmt.Errorf("connection refused")
	server := newTestServer(t, &stubClassifier{outcome: sampleOutcome(false)}, outcomes, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", classifyBody(t))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCodes(t *testing.T) {
	registry := engine.NewRegistry()
	registry.Disable(domain.PP3)
	server := NewServer(config.ServerConfig{}, quietLogger(), &stubClassifier{}, registry, nil, nil, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/codes", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Codes []codeInfo `json:"codes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Codes, 28)

	byCode := make(map[domain.EvidenceCode]codeInfo, len(resp.Codes))
	for _, info := range resp.Codes {
		byCode[info.Code] = info
	}
	assert.False(t, byCode[domain.PP3].Enabled)
	assert.True(t, byCode[domain.PVS1].Enabled)
	assert.Equal(t, domain.VERY_STRONG, byCode[domain.PVS1].Strength)
	assert.Equal(t, domain.BENIGN_RULE, byCode[domain.BA1].Category)
	assert.Equal(t, domain.BucketBA, byCode[domain.BA1].Bucket)
}

func TestGetOutcome(t *testing.T) {
	outcomes := newMemOutcomeStore()
	require.NoError(t, outcomes.Save(context.Background(), "BRCA1", sampleOutcome(false)))
	server := newTestServer(t, &stubClassifier{}, outcomes, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/outcomes/outcome-1", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.ClassificationOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "var-1", resp.VariantID)
}

func TestGetOutcomeNotFound(t *testing.T) {
	server := newTestServer(t, &stubClassifier{}, newMemOutcomeStore(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/outcomes/missing", nil)
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOutcomeEndpointsWithoutStore(t *testing.T) {
	server := newTestServer(t, &stubClassifier{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/outcomes/outcome-1", nil)
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/review", nil)
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListAndResolveReview(t *testing.T) {
	reviews := newMemReviewStore()
	require.NoError(t, reviews.Enqueue(context.Background(), &review.Item{
		OutcomeID:      "outcome-1",
		VariantID:      "var-1",
		Classification: domain.VUS,
		HasConflict:    true,
	}))
	server := newTestServer(t, &stubClassifier{}, nil, reviews)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/review", nil)
	server.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Items []*review.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Items, 1)

	body, err := json.Marshal(resolveRequest{
		Status:   review.StatusOverridden,
		Override: domain.LIKELY_BENIGN,
		Notes:    "segregation data reviewed",
	})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/review/1/resolve", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	item, err := reviews.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, review.StatusOverridden, item.Status)
	assert.Equal(t, domain.LIKELY_BENIGN, item.ReviewerClassification)
}

func TestResolveReviewErrors(t *testing.T) {
	reviews := newMemReviewStore()
	server := newTestServer(t, &stubClassifier{}, nil, reviews)

	body, err := json.Marshal(resolveRequest{Status: review.StatusConfirmed})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/review/99/resolve", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/review/not-a-number/resolve", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	server := newTestServer(t, &stubClassifier{}, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	server.Router().ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
