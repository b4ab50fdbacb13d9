package mapper

import (
	"time"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RecordEmbeddingMapper struct{}

func NewRecordEmbeddingMapper() *RecordEmbeddingMapper {
	return &RecordEmbeddingMapper{}
}

func (m *RecordEmbeddingMapper) ToEntity(e *model.RecordEmbedding) *entity.RecordEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.RecordEmbedding{
		Id:             e.Id,
		PatientID:      e.PatientId,
		SnippetCipher:  e.SnippetCipher,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		SourceType:     e.SourceType,
		RecordedAt:     e.RecordedAt,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *RecordEmbeddingMapper) ToModel(e *entity.RecordEmbedding) *model.RecordEmbedding {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.RecordEmbedding{
		Id:             e.Id,
		PatientId:      e.PatientID,
		SnippetCipher:  e.SnippetCipher,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		SourceType:     e.SourceType,
		RecordedAt:     e.RecordedAt,
		ChunkIndex:     e.ChunkIndex,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
		DeletedAt:      deletedAt,
	}
}

func (m *RecordEmbeddingMapper) ToEntities(models []*model.RecordEmbedding) []*entity.RecordEmbedding {
	entities := make([]*entity.RecordEmbedding, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
