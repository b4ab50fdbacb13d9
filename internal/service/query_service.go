// FILE: internal/service/query_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"clinical-assist-be/internal/config"
	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/pkg/audit"
	"clinical-assist-be/pkg/authz"
	"clinical-assist-be/pkg/embedding"
	"clinical-assist-be/pkg/metrics"
	"clinical-assist-be/pkg/retrieval"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IQueryService interface {
	HandleQuery(ctx context.Context, principal authz.Principal, req *dto.QueryRequest) (*dto.QueryResponse, error)
	RejectMalformedBody(ctx context.Context, principal authz.Principal) error
}

// Synthesizer is what the service needs from the answer step.
type Synthesizer interface {
	Synthesize(ctx context.Context, queryID uuid.UUID, question string, actx *entity.AssembledContext, temperature *float64) (*entity.SynthesizedAnswer, error)
}

// Assembler is what the service needs from the context step.
type Assembler interface {
	Assemble(records []entity.RetrievedRecord) *entity.AssembledContext
}

type queryService struct {
	policy      *authz.Policy
	embedder    embedding.Provider
	store       retrieval.Store
	assembler   Assembler
	synthesizer Synthesizer
	recorder    audit.Recorder
	pubSub      *gochannel.GoChannel
	alertTopic  string
	metrics     *metrics.Metrics
	logger      logger.ILogger
	pipeline    config.PipelineConfig
}

func NewQueryService(
	policy *authz.Policy,
	embedder embedding.Provider,
	store retrieval.Store,
	assembler Assembler,
	synthesizer Synthesizer,
	recorder audit.Recorder,
	pubSub *gochannel.GoChannel,
	alertTopic string,
	m *metrics.Metrics,
	log logger.ILogger,
	pipeline config.PipelineConfig,
) IQueryService {
	return &queryService{
		policy:      policy,
		embedder:    embedder,
		store:       store,
		assembler:   assembler,
		synthesizer: synthesizer,
		recorder:    recorder,
		pubSub:      pubSub,
		alertTopic:  alertTopic,
		metrics:     m,
		logger:      log,
		pipeline:    pipeline,
	}
}

// HandleQuery runs one question through the pipeline:
// validate -> authorize -> embed -> retrieve -> assemble -> synthesize -> audit.
// Every terminal outcome, including early denial and validation failure,
// produces exactly one acknowledged audit entry before the response leaves.
func (s *queryService) HandleQuery(ctx context.Context, principal authz.Principal, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	queryID := uuid.New()
	started := time.Now()

	// VALIDATING
	if err := req.ValidateBounds(); err != nil {
		return nil, s.finishWithError(ctx, queryID, principal, req.PatientID, entity.AuditActionAccessCheck, started, err)
	}

	// AUTHORIZING
	decision := s.policy.Authorize(principal, req.PatientID)
	if !decision.Allowed {
		s.logger.Info("query", "access denied", map[string]interface{}{
			"query_id":     queryID.String(),
			"principal_id": principal.ID.String(),
			"patient_id":   req.PatientID,
			"reason":       decision.Reason,
		})
		auditErr := s.record(ctx, &entity.AuditEntry{
			QueryID:     queryID,
			PrincipalID: principal.ID,
			PatientID:   req.PatientID,
			Action:      entity.AuditActionAccessCheck,
			Outcome:     entity.AuditOutcomeDenied,
			Timestamp:   time.Now().UTC(),
			LatencyMs:   time.Since(started).Milliseconds(),
			Details:     map[string]interface{}{"reason": decision.Reason},
		})
		if auditErr != nil {
			return nil, auditErr
		}
		s.count(entity.AuditOutcomeDenied, "denied")
		return nil, errs.Denied(decision.Reason)
	}

	// EMBEDDING
	embedCtx, cancelEmbed := context.WithTimeout(ctx, s.pipeline.EmbedTimeout)
	stageStart := time.Now()
	vector, err := s.embedder.Embed(embedCtx, req.Question, embedding.TaskRetrievalQuery)
	cancelEmbed()
	s.observe("embed", stageStart)
	if err != nil {
		kind := errs.KindUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			kind = errs.KindTimeout
		}
		return nil, s.finishWithError(ctx, queryID, principal, req.PatientID, entity.AuditActionQuery, started, errs.Dependency("embedding", kind, err))
	}

	// RETRIEVING
	k := s.pipeline.DefaultRetrieveK
	if req.RetrieveK != nil {
		k = *req.RetrieveK
	}
	searchCtx, cancelSearch := context.WithTimeout(ctx, s.pipeline.SearchTimeout)
	stageStart = time.Now()
	records, err := s.store.Search(searchCtx, vector, k, req.PatientID)
	cancelSearch()
	s.observe("retrieve", stageStart)
	if err != nil {
		return nil, s.finishWithError(ctx, queryID, principal, req.PatientID, entity.AuditActionQuery, started, err)
	}

	records, dropped := s.enforcePatientScope(queryID, principal, req.PatientID, records)

	// ASSEMBLING
	stageStart = time.Now()
	actx := s.assembler.Assemble(records)
	s.observe("assemble", stageStart)

	// SYNTHESIZING
	stageStart = time.Now()
	answer, err := s.synthesizer.Synthesize(ctx, queryID, req.Question, actx, req.Temperature)
	s.observe("synthesize", stageStart)
	if err != nil {
		return nil, s.finishWithError(ctx, queryID, principal, req.PatientID, entity.AuditActionQuery, started, err)
	}

	// AUDITING: a degraded-but-served answer is still a served answer.
	details := map[string]interface{}{
		"records_retrieved": len(records),
		"records_included":  actx.Included,
		"degraded":          answer.Degraded,
	}
	if answer.Degraded {
		details["degraded_reason"] = answer.DegradedReason
	}
	if dropped > 0 {
		details["dropped_foreign"] = dropped
	}
	auditErr := s.record(ctx, &entity.AuditEntry{
		QueryID:     queryID,
		PrincipalID: principal.ID,
		PatientID:   req.PatientID,
		Action:      entity.AuditActionQuery,
		Outcome:     entity.AuditOutcomeSuccess,
		Timestamp:   time.Now().UTC(),
		LatencyMs:   time.Since(started).Milliseconds(),
		Details:     details,
	})
	if auditErr != nil {
		// Fail closed: without a durable audit row there is no success.
		return nil, auditErr
	}
	s.count(entity.AuditOutcomeSuccess, "")

	return toQueryResponse(answer), nil
}

// enforcePatientScope drops any record that escaped the store-level filter.
// A non-empty drop set is an invariant violation: it is audited, alerted and
// logged at the highest severity, but the request continues with the clean
// remainder so the clinician still gets an answer from legitimate records.
func (s *queryService) enforcePatientScope(queryID uuid.UUID, principal authz.Principal, patientID string, records []entity.RetrievedRecord) ([]entity.RetrievedRecord, int) {
	clean := records[:0]
	dropped := 0
	for _, r := range records {
		if r.PatientID != patientID {
			dropped++
			continue
		}
		clean = append(clean, r)
	}

	if dropped > 0 {
		violation := errs.Internal("cross_patient_record", errors.New("retrieval returned records outside the requested patient scope"))
		s.logger.Error("query", "cross-patient records dropped before assembly", map[string]interface{}{
			"query_id":     queryID.String(),
			"principal_id": principal.ID.String(),
			"patient_id":   patientID,
			"dropped":      dropped,
		})
		s.raiseAlert(dto.SecurityAlertMessage{
			Class:     errs.Class(violation),
			Summary:   "Retrieval returned cross-patient records; they were dropped before assembly. Query id: " + queryID.String(),
			QueryID:   queryID.String(),
			PatientID: patientID,
		})
	}

	return clean, dropped
}

// RejectMalformedBody audits a request whose body could not be parsed at all.
// The pipeline never starts, but the attempt still leaves an audit row before
// the 400 goes out.
func (s *queryService) RejectMalformedBody(ctx context.Context, principal authz.Principal) error {
	return s.finishWithError(ctx, uuid.New(), principal, "", entity.AuditActionAccessCheck, time.Now(), errs.Validation("", "malformed request body"))
}

// finishWithError writes the terminal ERROR (or validation) audit entry and
// returns the error the transport layer should render. An audit failure takes
// precedence: it converts any outcome into a fail-closed internal error.
func (s *queryService) finishWithError(ctx context.Context, queryID uuid.UUID, principal authz.Principal, patientID string, action entity.AuditAction, started time.Time, cause error) error {
	class := errs.Class(cause)
	s.logger.Warn("query", "query ended in error", map[string]interface{}{
		"query_id":     queryID.String(),
		"principal_id": principal.ID.String(),
		"patient_id":   patientID,
		"class":        class,
	})

	var ie *errs.InternalError
	if errors.As(cause, &ie) {
		s.raiseAlert(dto.SecurityAlertMessage{
			Class:     class,
			Summary:   "Invariant violation while handling a query. Query id: " + queryID.String(),
			QueryID:   queryID.String(),
			PatientID: patientID,
		})
	}

	auditErr := s.record(ctx, &entity.AuditEntry{
		QueryID:     queryID,
		PrincipalID: principal.ID,
		PatientID:   patientID,
		Action:      action,
		Outcome:     entity.AuditOutcomeError,
		Timestamp:   time.Now().UTC(),
		LatencyMs:   time.Since(started).Milliseconds(),
		Details:     map[string]interface{}{"error_class": class},
	})
	if auditErr != nil {
		return auditErr
	}
	s.count(entity.AuditOutcomeError, class)
	return cause
}

// record performs the write-before-respond audit append. The write survives
// caller disconnects: a cancelled request must still leave its trace.
func (s *queryService) record(ctx context.Context, entry *entity.AuditEntry) error {
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.recorder.Record(auditCtx, entry); err != nil {
		s.logger.Error("query", "audit write failed, failing request closed", map[string]interface{}{
			"query_id": entry.QueryID.String(),
			"outcome":  string(entry.Outcome),
			"error":    err.Error(),
		})
		violation := errs.Internal("audit_write_failed", err)
		s.raiseAlert(dto.SecurityAlertMessage{
			Class:   errs.Class(violation),
			Summary: "Audit write failed; the request was failed closed. Query id: " + entry.QueryID.String(),
			QueryID: entry.QueryID.String(),
		})
		s.count(entity.AuditOutcomeError, errs.Class(violation))
		return violation
	}
	return nil
}

func (s *queryService) raiseAlert(alert dto.SecurityAlertMessage) {
	if s.metrics != nil {
		s.metrics.AlertsTotal.WithLabelValues(alert.Class).Inc()
	}
	if s.pubSub == nil {
		return
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.pubSub.Publish(s.alertTopic, msg); err != nil {
		s.logger.Warn("query", "failed to publish security alert", map[string]interface{}{
			"class": alert.Class,
			"error": err.Error(),
		})
	}
}

func (s *queryService) observe(stage string, started time.Time) {
	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	}
}

func (s *queryService) count(outcome entity.AuditOutcome, class string) {
	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(string(outcome), class).Inc()
	}
}

func toQueryResponse(answer *entity.SynthesizedAnswer) *dto.QueryResponse {
	sources := make([]dto.SourceDTO, len(answer.Sources))
	for i, c := range answer.Sources {
		sources[i] = dto.SourceDTO{
			Type:       c.SourceType,
			Date:       c.Date,
			Snippet:    c.Snippet,
			Similarity: c.Similarity,
		}
	}
	return &dto.QueryResponse{
		QueryID:    answer.QueryID,
		Answer:     answer.AnswerText,
		Sources:    sources,
		Confidence: answer.Confidence,
		Disclaimer: answer.Disclaimer,
	}
}
