package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/advisor"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/metrics"
	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/ratelimit"
)

// CompletionClient is the outbound dependency of the advisory handler
type CompletionClient interface {
	advisor.Completer

	// Configured reports whether the provider credential is present
	Configured() bool
}

// AdvisoryHandler serves the structured advisory endpoint. One rate-limit
// slot is consumed per call regardless of how the completion attempts
// turn out; the limiter guards call volume into the handler.
type AdvisoryHandler struct {
	limiter ratelimit.Store
	client  CompletionClient
	retry   *advisor.RetryController
}

// NewAdvisoryHandler creates the handler with its injected dependencies
func NewAdvisoryHandler(limiter ratelimit.Store, client CompletionClient) *AdvisoryHandler {
	return &AdvisoryHandler{
		limiter: limiter,
		client:  client,
		retry:   advisor.NewRetryController(client),
	}
}

// Handle processes one advisory request: rate limit, request-shape
// validation, credential check, context assembly + prompt composition,
// then the two-attempt retry controller. The caller receives either a
// fully valid structured response or a typed error, never a partial.
func (h *AdvisoryHandler) Handle(c *gin.Context) {
	caller := c.ClientIP()
	if !h.limiter.Allow(caller) {
		metrics.RecordRateLimitDenial()
		metrics.RecordAdvisoryRequest(metrics.OutcomeRateLimited)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please retry later"})
		return
	}

	var req advisor.AdvisoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordAdvisoryRequest(metrics.OutcomeInvalidRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := advisor.ValidateRequest(&req); err != nil {
		metrics.RecordAdvisoryRequest(metrics.OutcomeInvalidRequest)
		msg := "invalid request"
		var advErr *advisor.Error
		if errors.As(err, &advErr) {
			msg = advErr.Message
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	if !h.client.Configured() {
		metrics.RecordAdvisoryRequest(metrics.OutcomeServiceUnavailable)
		log.Error().Str("client_ip", caller).Msg("Advisory request refused: provider not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "advisory service is not configured"})
		return
	}

	question, _ := req.Question()
	contextBlock := advisor.BuildContext(req.Portfolio, req.Analytics, req.News, req.Profile)
	systemPrompt := advisor.SystemPrompt(req.Profile)

	userPrompt := question
	if contextBlock != "" {
		userPrompt = contextBlock + "\n\n---\n\nQuestion: " + question
	}

	resp, err := h.retry.Generate(c.Request.Context(), systemPrompt, userPrompt)
	if err != nil {
		metrics.RecordAdvisoryRequest(metrics.OutcomeGenerationFailed)
		log.Error().
			Err(err).
			Str("client_ip", caller).
			Str("kind", string(advisor.KindOf(err))).
			Msg("Advisory generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate response"})
		return
	}

	metrics.RecordAdvisoryRequest(metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, advisor.AdvisoryResult{
		Structured: resp,
		Timestamp:  time.Now().UTC(),
	})
}
