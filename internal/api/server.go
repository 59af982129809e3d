// Package api exposes the classification engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/acmg-evidence-engine/internal/config"
	"github.com/acmg-evidence-engine/internal/domain"
	"github.com/acmg-evidence-engine/internal/engine"
	"github.com/acmg-evidence-engine/internal/review"
)

// Classifier runs one classification pass.
type Classifier interface {
	Classify(ctx context.Context, variant *domain.Variant, manual *domain.EvidenceData) (*domain.ClassificationOutcome, error)
}

// OutcomeStore persists classification outcomes for audit.
type OutcomeStore interface {
	Save(ctx context.Context, geneSymbol string, outcome *domain.ClassificationOutcome) error
	GetByID(ctx context.Context, id string) (*domain.ClassificationOutcome, error)
	ListByVariant(ctx context.Context, variantID string, limit int) ([]*domain.ClassificationOutcome, error)
}

// Server is the HTTP API server.
type Server struct {
	cfg    config.ServerConfig
	log    *logrus.Logger
	router *gin.Engine
	server *http.Server
	debug  bool

	classifier Classifier
	registry   *engine.Registry
	outcomes   OutcomeStore
	reviews    review.Store
}

// NewServer wires the HTTP server. The outcome and review stores are
// optional: when nil the corresponding endpoints report the feature as
// unavailable rather than failing at startup.
func NewServer(
	cfg config.ServerConfig,
	logger *logrus.Logger,
	classifier Classifier,
	registry *engine.Registry,
	outcomes OutcomeStore,
	reviews review.Store,
	debug bool,
) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())

	s := &Server{
		cfg:        cfg,
		log:        logger,
		router:     router,
		debug:      debug,
		classifier: classifier,
		registry:   registry,
		outcomes:   outcomes,
		reviews:    reviews,
	}
	s.setupRoutes()
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/classify", s.handleClassify)
		v1.GET("/codes", s.handleListCodes)
		v1.GET("/outcomes/:id", s.handleGetOutcome)
		v1.GET("/variants/:id/outcomes", s.handleListOutcomes)
		v1.GET("/review", s.handleListReview)
		v1.POST("/review/:id/resolve", s.handleResolveReview)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"engine_version": engine.Version,
	})
}

// classifyRequest is the classification request body. Evidence carries the
// manually curated facts the automated providers cannot supply.
type classifyRequest struct {
	Variant  domain.Variant       `json:"variant" binding:"required"`
	Evidence *domain.EvidenceData `json:"evidence"`
}

func (s *Server) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Variant.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := s.classifier.Classify(c.Request.Context(), &req.Variant, req.Evidence)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"variant_id": req.Variant.ID,
			"error":      err,
		}).Error("Classification failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// Audit persistence and review routing are best-effort: a storage
	// outage must not withhold a computed classification from the caller.
	if s.outcomes != nil {
		if err := s.outcomes.Save(c.Request.Context(), req.Variant.GeneSymbol, outcome); err != nil {
			s.log.WithError(err).Warn("Failed to persist classification outcome")
		}
	}
	if s.reviews != nil && (outcome.HasConflict || len(outcome.Warnings) > 0) {
		if err := s.enqueueReview(c.Request.Context(), &req.Variant, outcome); err != nil {
			s.log.WithError(err).Warn("Failed to enqueue outcome for review")
		}
	}

	c.JSON(http.StatusOK, outcome)
}

func (s *Server) enqueueReview(ctx context.Context, variant *domain.Variant, outcome *domain.ClassificationOutcome) error {
	summaries := make([]string, 0, len(outcome.Warnings))
	for _, w := range outcome.Warnings {
		summaries = append(summaries, w.Message)
	}

	return s.reviews.Enqueue(ctx, &review.Item{
		OutcomeID:      outcome.ID,
		VariantID:      outcome.VariantID,
		GeneSymbol:     variant.GeneSymbol,
		Classification: outcome.Classification,
		HasConflict:    outcome.HasConflict,
		WarningSummary: strings.Join(summaries, "; "),
	})
}

// codeInfo describes one evidence code for the catalogue endpoint.
type codeInfo struct {
	Code     domain.EvidenceCode `json:"code"`
	Category domain.RuleCategory `json:"category"`
	Strength domain.RuleStrength `json:"strength"`
	Bucket   domain.Bucket       `json:"bucket"`
	Enabled  bool                `json:"enabled"`
}

func (s *Server) handleListCodes(c *gin.Context) {
	codes := domain.AllEvidenceCodes()
	infos := make([]codeInfo, 0, len(codes))
	for _, code := range codes {
		enabled := true
		if s.registry != nil {
			enabled = s.registry.Enabled(code)
		}
		infos = append(infos, codeInfo{
			Code:     code,
			Category: code.Category(),
			Strength: code.Strength(),
			Bucket:   code.Bucket(),
			Enabled:  enabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{"codes": infos})
}

func (s *Server) handleGetOutcome(c *gin.Context) {
	if s.outcomes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "outcome store not configured"})
		return
	}

	outcome, err := s.outcomes.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "outcome not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleListOutcomes(c *gin.Context) {
	if s.outcomes == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "outcome store not configured"})
		return
	}

	outcomes, err := s.outcomes.ListByVariant(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

func (s *Server) handleListReview(c *gin.Context) {
	if s.reviews == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review store not configured"})
		return
	}

	items, err := s.reviews.ListPending(c.Request.Context(), 50, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// resolveRequest is the reviewer's decision body.
type resolveRequest struct {
	Status   review.Status         `json:"status" binding:"required"`
	Override domain.Classification `json:"override"`
	Notes    string                `json:"notes"`
}

func (s *Server) handleResolveReview(c *gin.Context) {
	if s.reviews == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "review store not configured"})
		return
	}

	var id int64
	if _, err := fmt.Sscanf(c.Param("id"), "%d", &id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review item id"})
		return
	}

	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.reviews.Resolve(c.Request.Context(), id, req.Status, req.Override, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "review item not found"})
		case errors.Is(err, domain.ErrInvalidClassification):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
