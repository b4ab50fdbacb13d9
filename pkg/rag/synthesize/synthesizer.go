// Package synthesize turns an assembled context and a clinician question into
// a validated answer. The language-model provider is treated as untrusted:
// short, empty, late or rate-limited output degrades to a canned response
// instead of failing the request.
package synthesize

import (
	"context"
	"strings"
	"time"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/pkg/llm"

	"github.com/google/uuid"
)

type Synthesizer struct {
	provider   llm.LLMProvider
	logger     logger.ILogger
	llmTimeout time.Duration
	retryDelay time.Duration
}

func NewSynthesizer(provider llm.LLMProvider, log logger.ILogger, llmTimeout, retryDelay time.Duration) *Synthesizer {
	return &Synthesizer{
		provider:   provider,
		logger:     log,
		llmTimeout: llmTimeout,
		retryDelay: retryDelay,
	}
}

// Synthesize produces the answer for one query. A degraded answer is a valid
// outcome, not an error; the only error returns are fatal provider failures
// (auth/config, unavailable, malformed output).
func (s *Synthesizer) Synthesize(ctx context.Context, queryID uuid.UUID, question string, actx *entity.AssembledContext, temperature *float64) (*entity.SynthesizedAnswer, error) {
	if len(strings.TrimSpace(question)) < 2 {
		return s.degraded(queryID, actx, cannedUnreliable, ReasonQuestionTooShort), nil
	}
	if actx == nil || actx.Included == 0 {
		return s.degraded(queryID, actx, cannedNoRecords, ReasonNoMatchingRecords), nil
	}

	opts := []llm.Option{}
	if temperature != nil {
		opts = append(opts, llm.WithTemperature(*temperature))
	}

	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: "Patient record excerpts:\n\n" + actx.Text + "\nQuestion: " + question},
	}

	output, err := s.chatOnce(ctx, history, opts)
	if err != nil {
		switch llm.KindOf(err) {
		case llm.ErrKindTimeout:
			// Not retried: a generation call is too expensive to fire twice
			// on a hunch, and the clinician already waited the full budget.
			s.logger.Warn("synthesize", "llm timed out, serving canned answer", map[string]interface{}{
				"query_id": queryID.String(),
			})
			return s.degraded(queryID, actx, cannedTimeout, ReasonTimeout), nil
		case llm.ErrKindRateLimited:
			output, err = s.retryAfterRateLimit(ctx, history, opts)
			if err != nil {
				s.logger.Warn("synthesize", "llm still rate limited after retry, serving canned answer", map[string]interface{}{
					"query_id": queryID.String(),
				})
				return s.degraded(queryID, actx, cannedBusy, ReasonRateLimited), nil
			}
		case llm.ErrKindAuth:
			s.logger.Error("synthesize", "llm provider rejected credentials", map[string]interface{}{
				"query_id": queryID.String(),
				"error":    err.Error(),
			})
			return nil, errs.Dependency("llm", errs.KindUnavailable, err)
		case llm.ErrKindMalformed:
			return nil, errs.Dependency("llm", errs.KindMalformed, err)
		default:
			return nil, errs.Dependency("llm", errs.KindUnavailable, err)
		}
	}

	output = strings.TrimSpace(output)
	if len(output) < minUsableOutput {
		s.logger.Warn("synthesize", "llm output too short to trust", map[string]interface{}{
			"query_id":   queryID.String(),
			"output_len": len(output),
		})
		return s.degraded(queryID, actx, cannedUnreliable, ReasonEmptyOutput), nil
	}

	return &entity.SynthesizedAnswer{
		QueryID:    queryID,
		AnswerText: output,
		Sources:    actx.Citations,
		Confidence: confidence(actx),
		Disclaimer: Disclaimer,
	}, nil
}

func (s *Synthesizer) chatOnce(ctx context.Context, history []llm.Message, opts []llm.Option) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()
	return s.provider.Chat(callCtx, history, opts...)
}

// retryAfterRateLimit waits one backoff interval and tries exactly once more.
func (s *Synthesizer) retryAfterRateLimit(ctx context.Context, history []llm.Message, opts []llm.Option) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.retryDelay):
	}
	return s.chatOnce(ctx, history, opts)
}

func (s *Synthesizer) degraded(queryID uuid.UUID, actx *entity.AssembledContext, text, reason string) *entity.SynthesizedAnswer {
	var sources []entity.SourceCitation
	if actx != nil {
		sources = actx.Citations
	}
	return &entity.SynthesizedAnswer{
		QueryID:        queryID,
		AnswerText:     text,
		Sources:        sources,
		Confidence:     0,
		Disclaimer:     Disclaimer,
		Degraded:       true,
		DegradedReason: reason,
	}
}

// confidence is the mean similarity of the included citations, clamped to
// [0,1]. A crude signal, but monotone in retrieval quality.
func confidence(actx *entity.AssembledContext) float64 {
	if actx == nil || len(actx.Citations) == 0 {
		return 0
	}
	var sum float64
	for _, c := range actx.Citations {
		sum += c.Similarity
	}
	mean := sum / float64(len(actx.Citations))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}
