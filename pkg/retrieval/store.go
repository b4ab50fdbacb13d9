// Package retrieval wraps the pgvector-backed embedding table behind a
// patient-scoped search API. Scoping happens in SQL; this layer additionally
// re-checks every returned row and decrypts snippets for the single request.
package retrieval

import (
	"context"
	"errors"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/internal/repository/contract"
	"clinical-assist-be/pkg/encryption"
	"clinical-assist-be/pkg/retry"
)

// Store is the read side of the encrypted vector index.
type Store interface {
	Search(ctx context.Context, embedding []float32, k int, patientID string) ([]entity.RetrievedRecord, error)
}

type PgvectorStore struct {
	repo      contract.RecordEmbeddingRepository
	crypto    encryption.Provider
	logger    logger.ILogger
	threshold float64
	retryCfg  retry.Config
}

func NewPgvectorStore(
	repo contract.RecordEmbeddingRepository,
	crypto encryption.Provider,
	log logger.ILogger,
	threshold float64,
	retryCfg retry.Config,
) *PgvectorStore {
	return &PgvectorStore{
		repo:      repo,
		crypto:    crypto,
		logger:    log,
		threshold: threshold,
		retryCfg:  retryCfg,
	}
}

// Search takes an already-computed query vector, fetches the top-k rows for
// the patient and decrypts them. Rows whose ciphertext fails to open are
// dropped with a WARN rather than failing the query.
func (s *PgvectorStore) Search(ctx context.Context, embedding []float32, k int, patientID string) ([]entity.RetrievedRecord, error) {
	if patientID == "" {
		return nil, errs.Internal("retrieval", errors.New("search called without patient scope"))
	}

	scored, err := retry.Do(ctx, s.retryCfg, func() ([]*contract.ScoredRecordEmbedding, error) {
		return s.repo.SearchSimilarWithScore(ctx, embedding, k, patientID, s.threshold)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Dependency("retrieval_store", errs.KindTimeout, err)
		}
		return nil, errs.Dependency("retrieval_store", errs.KindUnavailable, err)
	}

	records := make([]entity.RetrievedRecord, 0, len(scored))
	for _, sc := range scored {
		e := sc.Embedding

		// Defense in depth: the SQL predicate already scopes by patient,
		// but a row that somehow escapes it must never reach the caller.
		if e.PatientID != patientID {
			s.logger.Error("retrieval", "dropped cross-patient row from scoped search", map[string]interface{}{
				"record_id":        e.Id.String(),
				"expected_patient": patientID,
			})
			continue
		}

		plain, err := s.crypto.Decrypt(e.SnippetCipher)
		if err != nil {
			s.logger.Warn("retrieval", "dropping record with undecryptable snippet", map[string]interface{}{
				"record_id": e.Id.String(),
				"error":     err.Error(),
			})
			continue
		}

		records = append(records, entity.RetrievedRecord{
			RecordID:   e.Id,
			PatientID:  e.PatientID,
			Similarity: sc.Similarity,
			Snippet:    string(plain),
			SourceType: e.SourceType,
			RecordedAt: e.RecordedAt,
		})
	}

	return records, nil
}
