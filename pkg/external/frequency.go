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
	"golang.org/x/time/rate"

	"github.com/acmg-evidence-engine/internal/domain"
)

// FrequencyClientConfig configures the population frequency client.
type FrequencyClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is the maximum requests per second against the upstream.
	RateLimit int
	// LocalCacheSize bounds the in-process LRU. Zero uses a default.
	LocalCacheSize int
}

// FrequencyClient looks up reference-population allele frequencies over
// HTTP. It implements domain.FrequencyProvider: a variant missing upstream
// is a successful lookup with Found=false, only transport or server
// failures return an error. Lookups go through an in-process LRU, then
// Redis, then the rate-limited upstream.
type FrequencyClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *RedisCache
	local      *lru.Cache[string, *domain.PopulationRecord]
	log        *logrus.Logger
}

// NewFrequencyClient creates a frequency client. The Redis cache is
// optional; passing nil disables the shared cache layer.
func NewFrequencyClient(config FrequencyClientConfig, cache *RedisCache, logger *logrus.Logger) (*FrequencyClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("frequency client: base URL is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 10
	}
	if config.LocalCacheSize <= 0 {
		config.LocalCacheSize = 1024
	}

	local, err := lru.New[string, *domain.PopulationRecord](config.LocalCacheSize)
	if err != nil {
		return nil, fmt.Errorf("frequency client: creating local cache: %w", err)
	}

	return &FrequencyClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
		cache:      cache,
		local:      local,
		log:        logger,
	}, nil
}

// frequencyResponse is the upstream JSON payload.
type frequencyResponse struct {
	AlleleFrequency float64            `json:"allele_frequency"`
	Subpopulations  map[string]float64 `json:"subpopulations"`
	AlleleCount     int                `json:"allele_count"`
	AlleleNumber    int                `json:"allele_number"`
	HomozygoteCount int                `json:"homozygote_count"`
}

// Lookup fetches the population record for a variant.
func (c *FrequencyClient) Lookup(ctx context.Context, variant *domain.Variant) (*domain.PopulationRecord, error) {
	key, err := variantKey(variant)
	if err != nil {
		return nil, fmt.Errorf("frequency lookup: %w", err)
	}

	if record, ok := c.local.Get(key); ok {
		return record, nil
	}

	if c.cache != nil {
		record, hit, err := c.cache.GetPopulation(ctx, key)
		if err != nil {
			// A broken cache must not break the lookup.
			c.log.WithError(err).Warn("Population cache read failed; querying upstream")
		} else if hit {
			c.local.Add(key, record)
			return record, nil
		}
	}

	record, err := c.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	c.local.Add(key, record)
	if c.cache != nil {
		if err := c.cache.SetPopulation(ctx, key, record); err != nil {
			c.log.WithError(err).Warn("Population cache write failed")
		}
	}
	return record, nil
}

func (c *FrequencyClient) fetch(ctx context.Context, key string) (*domain.PopulationRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("frequency lookup rate limit: %w", err)
	}

	url := fmt.Sprintf("%s/variants/%s/frequency", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building frequency request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying frequency provider: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload frequencyResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decoding frequency response: %w", err)
		}
		return &domain.PopulationRecord{
			Found:            true,
			OverallFrequency: payload.AlleleFrequency,
			Subpopulations:   payload.Subpopulations,
			AlleleCount:      payload.AlleleCount,
			AlleleNumber:     payload.AlleleNumber,
			HomozygoteCount:  payload.HomozygoteCount,
		}, nil
	case http.StatusNotFound:
		// Absence is a first-class answer, not an error: PM2 treats it as
		// evidence of rarity.
		return &domain.PopulationRecord{Found: false}, nil
	default:
		return nil, fmt.Errorf("frequency provider returned status %d", resp.StatusCode)
	}
}

// variantKey builds the chrom-pos-ref-alt identifier used by the provider
// and the caches.
func variantKey(variant *domain.Variant) (string, error) {
	if variant.Chromosome == "" || variant.Position == 0 || variant.Reference == "" || variant.Alternate == "" {
		return "", fmt.Errorf("variant %s lacks genomic coordinates", variant.ID)
	}
	chrom := strings.TrimPrefix(variant.Chromosome, "chr")
	return fmt.Sprintf("%s-%d-%s-%s", chrom, variant.Position, variant.Reference, variant.Alternate), nil
}
