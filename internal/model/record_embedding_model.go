package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type RecordEmbedding struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PatientId      string          `gorm:"type:varchar(64);not null;index"`
	SnippetCipher  []byte          `gorm:"type:bytea;not null"` // encrypted at rest, decrypted per authorized request
	EmbeddingValue pgvector.Vector `gorm:"type:vector(768)"`    // nomic-embed-text / text-embedding-004 use 768 dimensions
	SourceType     string          `gorm:"type:varchar(64)"`
	RecordedAt     time.Time       `gorm:"index"`
	ChunkIndex     int             `gorm:"default:0"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (RecordEmbedding) TableName() string {
	return "record_embeddings"
}
