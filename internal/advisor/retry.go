package advisor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AlexandreLkhaoua/charlie-app-sub000/internal/metrics"
)

// Completer issues a single request to the completion provider. When
// strict is true the question carries an additional valid-JSON-only
// directive; that is the only difference between attempts.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, strict bool) (json.RawMessage, error)
}

// retryState is the state of the two-attempt machine. The absence of
// any state beyond attemptSecond is what makes the no-third-attempt
// invariant structural.
type retryState int

const (
	attemptFirst retryState = iota
	attemptSecond
	stateSuccess
	stateFailed
)

// nextState is the pure transition function: a failed first attempt
// escalates to the strict second attempt; a failed second attempt is
// terminal.
func nextState(s retryState, ok bool) retryState {
	if ok {
		return stateSuccess
	}
	switch s {
	case attemptFirst:
		return attemptSecond
	default:
		return stateFailed
	}
}

// RetryController orchestrates at most two upstream calls with schema
// validation after each. Transport and schema failures on the first
// attempt are recovered locally; any failure on the second is terminal.
type RetryController struct {
	completer Completer
}

// NewRetryController creates a retry controller over the given completer
func NewRetryController(completer Completer) *RetryController {
	return &RetryController{completer: completer}
}

// Generate runs the state machine. The system prompt and user prompt
// are identical across attempts; only the strict flag differs. On
// terminal failure the returned error has kind GenerationFailed.
func (rc *RetryController) Generate(ctx context.Context, systemPrompt, userPrompt string) (*StructuredResponse, error) {
	var lastErr error

	state := attemptFirst
	for state == attemptFirst || state == attemptSecond {
		strict := state == attemptSecond
		attempt := 1
		if strict {
			attempt = 2
		}

		resp, err := rc.runAttempt(ctx, systemPrompt, userPrompt, strict, attempt)
		if err != nil {
			lastErr = err
		}
		state = nextState(state, resp != nil)
		if state == stateSuccess {
			return resp, nil
		}
	}

	return nil, NewError(KindGenerationFailed, "could not produce a valid structured answer", lastErr)
}

// runAttempt performs one upstream call followed by schema validation.
// A nil response means the attempt failed; the error carries the
// failure category for logging.
func (rc *RetryController) runAttempt(ctx context.Context, systemPrompt, userPrompt string, strict bool, attempt int) (*StructuredResponse, error) {
	start := time.Now()
	raw, err := rc.completer.Complete(ctx, systemPrompt, userPrompt, strict)
	latency := time.Since(start)

	if err != nil {
		metrics.RecordCompletionAttempt(attempt, metrics.AttemptOutcomeTransportError)
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Bool("strict", strict).
			Dur("latency", latency).
			Str("category", string(KindUpstreamTransport)).
			Msg("Completion attempt failed")
		return nil, NewError(KindUpstreamTransport, "completion call failed", err)
	}

	resp := ValidateResponse(raw)
	if resp == nil {
		metrics.RecordCompletionAttempt(attempt, metrics.AttemptOutcomeSchemaViolation)
		log.Warn().
			Int("attempt", attempt).
			Bool("strict", strict).
			Dur("latency", latency).
			Int("payload_bytes", len(raw)).
			Str("category", string(KindSchemaViolation)).
			Msg("Completion payload failed schema validation")
		return nil, NewError(KindSchemaViolation, "payload does not conform to the response contract", nil)
	}

	metrics.RecordCompletionAttempt(attempt, metrics.AttemptOutcomeSuccess)
	log.Debug().
		Int("attempt", attempt).
		Bool("strict", strict).
		Dur("latency", latency).
		Msg("Completion attempt validated")
	return resp, nil
}
