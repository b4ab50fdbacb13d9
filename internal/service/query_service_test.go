package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clinical-assist-be/internal/config"
	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/pkg/audit"
	"clinical-assist-be/pkg/authz"
	"clinical-assist-be/pkg/llm"
	"clinical-assist-be/pkg/rag/assemble"
	"clinical-assist-be/pkg/rag/synthesize"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls int
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type stubStore struct {
	calls   int
	lastK   int
	records []entity.RetrievedRecord
	err     error
}

func (s *stubStore) Search(ctx context.Context, embedding []float32, k int, patientID string) ([]entity.RetrievedRecord, error) {
	s.calls++
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

type fixture struct {
	service  IQueryService
	embedder *stubEmbedder
	store    *stubStore
	recorder *audit.MemoryRecorder
}

func pipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		SimilarityThreshold: 0.35,
		ContextBudgetChars:  6000,
		DefaultRetrieveK:    5,
		EmbedTimeout:        time.Second,
		SearchTimeout:       time.Second,
		LLMTimeout:          time.Second,
		RetryMaxAttempts:    2,
		RetryBaseDelay:      time.Millisecond,
	}
}

func newFixture(store *stubStore, provider llm.LLMProvider) *fixture {
	log := logger.NewNopLogger()
	embedder := &stubEmbedder{}
	recorder := audit.NewMemoryRecorder()
	cfg := pipelineConfig()

	svc := NewQueryService(
		authz.NewPolicy(),
		embedder,
		store,
		assemble.NewAssembler(cfg.ContextBudgetChars),
		synthesize.NewSynthesizer(provider, log, cfg.LLMTimeout, cfg.RetryBaseDelay),
		recorder,
		nil, // alert bus unwired, alerts still count as raised
		"security.alerts",
		nil,
		log,
		cfg,
	)

	return &fixture{service: svc, embedder: embedder, store: store, recorder: recorder}
}

func attending() authz.Principal {
	return authz.Principal{
		ID:    uuid.New(),
		Roles: []authz.Role{authz.RoleAttending},
	}
}

func resident(assigned ...string) authz.Principal {
	patients := make(map[string]struct{})
	for _, p := range assigned {
		patients[p] = struct{}{}
	}
	return authz.Principal{
		ID:               uuid.New(),
		Roles:            []authz.Role{authz.RoleResident},
		AssignedPatients: patients,
	}
}

func patientRecords(patientID string, n int) []entity.RetrievedRecord {
	records := make([]entity.RetrievedRecord, n)
	for i := range records {
		records[i] = entity.RetrievedRecord{
			RecordID:   uuid.New(),
			PatientID:  patientID,
			Similarity: 0.8 - float64(i)*0.1,
			Snippet:    "snippet " + uuid.NewString(),
			SourceType: "progress_note",
			RecordedAt: time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		}
	}
	return records
}

func goodLLM() *stubLLM {
	return &stubLLM{reply: "The patient is on metformin 500mg twice daily [Source 1] and lisinopril [Source 2]."}
}

func TestHandleQueryDeniedMakesNoExternalCalls(t *testing.T) {
	f := newFixture(&stubStore{}, goodLLM())

	res, err := f.service.HandleQuery(context.Background(), resident("P2"), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.Error(t, err)
	assert.Nil(t, res)

	var de *errs.DeniedError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, authz.ReasonNotAssigned, de.Reason)

	assert.Zero(t, f.embedder.calls, "no embedding call after a deny")
	assert.Zero(t, f.store.calls, "no retrieval call after a deny")

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionAccessCheck, entries[0].Action)
	assert.Equal(t, entity.AuditOutcomeDenied, entries[0].Outcome)
	assert.Equal(t, "not_assigned", entries[0].Details["reason"])
}

func TestHandleQuerySuccessWithSources(t *testing.T) {
	store := &stubStore{records: patientRecords("P1", 2)}
	f := newFixture(store, goodLLM())

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.Answer)
	assert.Len(t, res.Sources, 2)
	assert.Equal(t, synthesize.Disclaimer, res.Disclaimer)
	assert.Greater(t, res.Confidence, 0.0)

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionQuery, entries[0].Action)
	assert.Equal(t, entity.AuditOutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, false, entries[0].Details["degraded"])
}

func TestHandleQueryLLMTimeoutServesDegradedAnswer(t *testing.T) {
	store := &stubStore{records: patientRecords("P1", 2)}
	f := newFixture(store, &stubLLM{err: llm.NewProviderError(llm.ErrKindTimeout, context.DeadlineExceeded)})

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.NoError(t, err, "a timed-out LLM degrades, it does not fail")
	require.NotNil(t, res)
	assert.Contains(t, res.Answer, "took too long")
	assert.Equal(t, synthesize.Disclaimer, res.Disclaimer)

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditOutcomeSuccess, entries[0].Outcome, "served answer, even degraded, audits as SUCCESS")
	assert.Equal(t, true, entries[0].Details["degraded"])
	assert.Equal(t, synthesize.ReasonTimeout, entries[0].Details["degraded_reason"])
}

func TestHandleQueryEmbeddingFailureIsFatal(t *testing.T) {
	f := newFixture(&stubStore{}, goodLLM())
	f.embedder.err = errors.New("connection refused")

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.Error(t, err)
	assert.Nil(t, res)

	var depErr *errs.DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, "embedding", depErr.Dep)
	assert.Zero(t, f.store.calls, "no retrieval without a vector")

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditOutcomeError, entries[0].Outcome)
	assert.Equal(t, "dependency_embedding_unavailable", entries[0].Details["error_class"])
}

func TestHandleQueryAuditFailureFailsClosed(t *testing.T) {
	store := &stubStore{records: patientRecords("P1", 1)}
	f := newFixture(store, goodLLM())
	f.recorder.FailWith = errors.New("disk full")

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.Error(t, err, "no audit row, no success")
	assert.Nil(t, res)

	var ie *errs.InternalError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "audit_write_failed", ie.Class)
}

func TestHandleQueryValidationBounds(t *testing.T) {
	invalid := []dto.QueryRequest{
		{PatientID: "P1", Question: "What medications?", RetrieveK: intPtr(0)},
		{PatientID: "P1", Question: "What medications?", RetrieveK: intPtr(21)},
		{PatientID: "P1", Question: "x"},
		{PatientID: "", Question: "What medications?"},
		{PatientID: "P1", Question: "What medications?", Temperature: floatPtr(1.5)},
	}
	for _, req := range invalid {
		f := newFixture(&stubStore{}, goodLLM())
		_, err := f.service.HandleQuery(context.Background(), attending(), &req)

		var ve *errs.ValidationError
		require.ErrorAs(t, err, &ve, "request %+v must be rejected", req)
		assert.Zero(t, f.embedder.calls, "validation failures make no external calls")

		entries := f.recorder.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, entity.AuditActionAccessCheck, entries[0].Action)
		assert.Equal(t, entity.AuditOutcomeError, entries[0].Outcome)
	}

	for _, k := range []int{1, 20} {
		store := &stubStore{records: patientRecords("P1", 1)}
		f := newFixture(store, goodLLM())

		_, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
			PatientID: "P1",
			Question:  "What medications is the patient on?",
			RetrieveK: intPtr(k),
		})
		require.NoError(t, err)
		assert.Equal(t, k, store.lastK)
	}
}

func TestHandleQueryQuestionLengthCountsRunes(t *testing.T) {
	// 1500 characters in 3000 bytes: the limit counts characters, so this
	// must be accepted.
	store := &stubStore{records: patientRecords("P1", 1)}
	f := newFixture(store, goodLLM())
	_, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  strings.Repeat("é", 1500),
	})
	require.NoError(t, err)

	// One character in two bytes is still below the minimum of two.
	f = newFixture(&stubStore{}, goodLLM())
	_, err = f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "é",
	})
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, f.embedder.calls)
}

func TestRejectMalformedBodyIsAudited(t *testing.T) {
	f := newFixture(&stubStore{}, goodLLM())

	err := f.service.RejectMalformedBody(context.Background(), attending())

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Zero(t, f.embedder.calls)
	assert.Zero(t, f.store.calls)

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionAccessCheck, entries[0].Action)
	assert.Equal(t, entity.AuditOutcomeError, entries[0].Outcome)
	assert.Equal(t, "validation", entries[0].Details["error_class"])
}

func TestHandleQueryDefaultsRetrieveK(t *testing.T) {
	store := &stubStore{records: patientRecords("P1", 1)}
	f := newFixture(store, goodLLM())

	_, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.NoError(t, err)
	assert.Equal(t, 5, store.lastK)
}

func TestHandleQueryFiltersForeignPatientRecords(t *testing.T) {
	records := patientRecords("P1", 2)
	records = append(records, patientRecords("P9", 1)...)
	store := &stubStore{records: records}
	f := newFixture(store, goodLLM())

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Sources, 2, "foreign-patient records never surface")

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditOutcomeSuccess, entries[0].Outcome)
	assert.EqualValues(t, 1, entries[0].Details["dropped_foreign"])
}

func TestHandleQueryNoMatchingRecordsDegrades(t *testing.T) {
	f := newFixture(&stubStore{}, goodLLM())

	res, err := f.service.HandleQuery(context.Background(), attending(), &dto.QueryRequest{
		PatientID: "P1",
		Question:  "What medications is the patient on?",
	})

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.Answer, "No matching records")
	assert.Equal(t, synthesize.Disclaimer, res.Disclaimer)

	entries := f.recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditOutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, synthesize.ReasonNoMatchingRecords, entries[0].Details["degraded_reason"])
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
