package implementation

import (
	"context"
	"errors"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/mapper"
	"clinical-assist-be/internal/model"
	"clinical-assist-be/internal/repository/contract"
	"clinical-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RecordEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RecordEmbeddingMapper
}

func NewRecordEmbeddingRepository(db *gorm.DB) contract.RecordEmbeddingRepository {
	return &RecordEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewRecordEmbeddingMapper(),
	}
}

func (r *RecordEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *RecordEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.RecordEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *RecordEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*entity.RecordEmbedding) error {
	models := make([]*model.RecordEmbedding, len(embeddings))
	for i, e := range embeddings {
		models[i] = r.mapper.ToModel(e)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*embeddings[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *RecordEmbeddingRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.RecordEmbedding{}, id).Error
}

func (r *RecordEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RecordEmbedding, error) {
	var m model.RecordEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RecordEmbeddingRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecordEmbedding, error) {
	var models []*model.RecordEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *RecordEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.RecordEmbedding{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns embeddings with similarity scores, filtered
// by threshold. The patient_id predicate is mandatory and lives in the SQL so
// cross-patient rows never leave storage.
func (r *RecordEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, patientID string, threshold float64) ([]*contract.ScoredRecordEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is: 1 - cosine_similarity
	// So we compute: 1 - (embedding_value <=> query_vector) = cosine_similarity
	type result struct {
		model.RecordEmbedding
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("record_embeddings").
		Select("record_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("record_embeddings.patient_id = ?", patientID).
		Where("record_embeddings.deleted_at IS NULL").
		Where("1 - (embedding_value <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredRecordEmbedding, len(results))
	for i, res := range results {
		e := r.mapper.ToEntity(&res.RecordEmbedding)
		scored[i] = &contract.ScoredRecordEmbedding{
			Embedding:  e,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
