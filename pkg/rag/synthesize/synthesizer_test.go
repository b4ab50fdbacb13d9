package synthesize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	responses []func() (string, error)
	calls     int
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i]()
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func testLogger() logger.ILogger {
	return logger.NewNopLogger()
}

func testContext() *entity.AssembledContext {
	return &entity.AssembledContext{
		Text:     "[Source 1 | progress_note | 2026-03-01]\nOn metformin 500mg bid.\n\n",
		Included: 1,
		Citations: []entity.SourceCitation{
			{RecordID: uuid.New(), SourceType: "progress_note", Similarity: 0.8},
		},
	}
}

func newTestSynthesizer(p llm.LLMProvider) *Synthesizer {
	return NewSynthesizer(p, testLogger(), 200*time.Millisecond, time.Millisecond)
}

func TestSynthesizeHappyPath(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) {
			return "The patient is on metformin 500mg twice daily [Source 1].", nil
		},
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "What medications is the patient on?", testContext(), nil)

	require.NoError(t, err)
	assert.False(t, answer.Degraded)
	assert.Contains(t, answer.AnswerText, "metformin")
	assert.Equal(t, Disclaimer, answer.Disclaimer)
	assert.Equal(t, 1, strings.Count(answer.Disclaimer, "not a substitute"))
	assert.Len(t, answer.Sources, 1)
	assert.InDelta(t, 0.8, answer.Confidence, 1e-9)
	assert.Equal(t, 1, provider.calls)
}

func TestSynthesizeEmptyContextSkipsProvider(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) { return "should never be called", nil },
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", &entity.AssembledContext{}, nil)

	require.NoError(t, err)
	assert.True(t, answer.Degraded)
	assert.Equal(t, ReasonNoMatchingRecords, answer.DegradedReason)
	assert.Equal(t, cannedNoRecords, answer.AnswerText)
	assert.Equal(t, Disclaimer, answer.Disclaimer)
	assert.Zero(t, provider.calls)
}

func TestSynthesizeShortOutputDegrades(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) { return "  ok ", nil },
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", testContext(), nil)

	require.NoError(t, err)
	assert.True(t, answer.Degraded)
	assert.Equal(t, ReasonEmptyOutput, answer.DegradedReason)
	assert.Equal(t, cannedUnreliable, answer.AnswerText)
}

func TestSynthesizeTimeoutServesCannedWithoutRetry(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) {
			return "", llm.NewProviderError(llm.ErrKindTimeout, context.DeadlineExceeded)
		},
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", testContext(), nil)

	require.NoError(t, err)
	assert.True(t, answer.Degraded)
	assert.Equal(t, ReasonTimeout, answer.DegradedReason)
	assert.Equal(t, cannedTimeout, answer.AnswerText)
	assert.Equal(t, Disclaimer, answer.Disclaimer)
	assert.Equal(t, 1, provider.calls, "timeouts are never retried")
}

func TestSynthesizeRateLimitRetriesOnceThenDegrades(t *testing.T) {
	rateLimited := func() (string, error) {
		return "", llm.NewProviderError(llm.ErrKindRateLimited, errors.New("429"))
	}
	provider := &stubProvider{responses: []func() (string, error){rateLimited, rateLimited}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", testContext(), nil)

	require.NoError(t, err)
	assert.True(t, answer.Degraded)
	assert.Equal(t, ReasonRateLimited, answer.DegradedReason)
	assert.Equal(t, cannedBusy, answer.AnswerText)
	assert.Equal(t, 2, provider.calls, "exactly one retry after a rate limit")
}

func TestSynthesizeRateLimitRetrySucceeds(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) {
			return "", llm.NewProviderError(llm.ErrKindRateLimited, errors.New("429"))
		},
		func() (string, error) {
			return "No documented allergies in the available records [Source 1].", nil
		},
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", testContext(), nil)

	require.NoError(t, err)
	assert.False(t, answer.Degraded)
	assert.Contains(t, answer.AnswerText, "No documented allergies")
	assert.Equal(t, 2, provider.calls)
}

func TestSynthesizeAuthErrorIsFatal(t *testing.T) {
	provider := &stubProvider{responses: []func() (string, error){
		func() (string, error) {
			return "", llm.NewProviderError(llm.ErrKindAuth, errors.New("401"))
		},
	}}
	s := newTestSynthesizer(provider)

	answer, err := s.Synthesize(context.Background(), uuid.New(), "Any allergies?", testContext(), nil)

	require.Error(t, err)
	assert.Nil(t, answer)

	var depErr *errs.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "llm", depErr.Dep)
}
