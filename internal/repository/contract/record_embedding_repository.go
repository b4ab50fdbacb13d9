package contract

import (
	"context"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredRecordEmbedding wraps RecordEmbedding with its similarity score
type ScoredRecordEmbedding struct {
	Embedding  *entity.RecordEmbedding
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type RecordEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.RecordEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*entity.RecordEmbedding) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RecordEmbedding, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs cosine nearest-neighbor search scoped to one
	// patient. The patient predicate is part of the SQL, not a post-filter:
	// rows for any other patient never leave the database.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, patientID string, threshold float64) ([]*ScoredRecordEmbedding, error)
}
