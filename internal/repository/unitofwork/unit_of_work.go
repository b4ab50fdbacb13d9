package unitofwork

import (
	"context"

	"clinical-assist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RecordEmbeddingRepository() contract.RecordEmbeddingRepository
	AuditRepository() contract.AuditRepository
}
