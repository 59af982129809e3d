package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/acmg-evidence-engine/internal/domain"
)

// PredictionClientConfig configures the computational prediction client.
type PredictionClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	LocalCacheSize int
}

// PredictionClient fetches per-algorithm computational prediction scores
// over HTTP. It implements domain.PredictionProvider. The upstream scoring
// service is slow and occasionally flaky, so calls go through a circuit
// breaker: when it opens, lookups fail fast and the affected codes degrade
// to unevaluable instead of stalling every classification.
type PredictionClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	local      *lru.Cache[string, *domain.PredictionScores]
	log        *logrus.Logger
}

// NewPredictionClient creates a prediction client.
func NewPredictionClient(config PredictionClientConfig, logger *logrus.Logger) (*PredictionClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("prediction client: base URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.LocalCacheSize <= 0 {
		config.LocalCacheSize = 1024
	}

	local, err := lru.New[string, *domain.PredictionScores](config.LocalCacheSize)
	if err != nil {
		return nil, fmt.Errorf("prediction client: creating local cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "prediction-provider",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Prediction provider circuit breaker state changed")
		},
	})

	return &PredictionClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
		local:      local,
		log:        logger,
	}, nil
}

// predictionResponse is the upstream JSON payload. Absent algorithms are
// simply omitted.
type predictionResponse struct {
	SIFT         *float64 `json:"sift"`
	PolyPhen     *float64 `json:"polyphen"`
	CADD         *float64 `json:"cadd"`
	REVEL        *float64 `json:"revel"`
	MetaSVM      *float64 `json:"metasvm"`
	SpliceImpact *float64 `json:"splice_impact"`
}

// Scores fetches the per-algorithm scores for a variant.
func (c *PredictionClient) Scores(ctx context.Context, variant *domain.Variant) (*domain.PredictionScores, error) {
	key, err := variantKey(variant)
	if err != nil {
		return nil, fmt.Errorf("prediction lookup: %w", err)
	}

	if scores, ok := c.local.Get(key); ok {
		return scores, nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("querying prediction provider: %w", err)
	}

	scores := result.(*domain.PredictionScores)
	c.local.Add(key, scores)
	return scores, nil
}

func (c *PredictionClient) fetch(ctx context.Context, key string) (*domain.PredictionScores, error) {
	url := fmt.Sprintf("%s/variants/%s/predictions", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building prediction request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload predictionResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding prediction response: %w", err)
		}
		return &domain.PredictionScores{
			SIFT:         payload.SIFT,
			PolyPhen:     payload.PolyPhen,
			CADD:         payload.CADD,
			REVEL:        payload.REVEL,
			MetaSVM:      payload.MetaSVM,
			SpliceImpact: payload.SpliceImpact,
		}, nil
	case http.StatusNotFound:
		// No predictions for this variant; the consensus codes become
		// unevaluable downstream.
		return &domain.PredictionScores{}, nil
	default:
		return nil, fmt.Errorf("prediction provider returned status %d", resp.StatusCode)
	}
}
