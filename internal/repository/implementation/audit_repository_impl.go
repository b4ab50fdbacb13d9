package implementation

import (
	"context"
	"errors"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/mapper"
	"clinical-assist-be/internal/model"
	"clinical-assist-be/internal/repository/contract"
	"clinical-assist-be/internal/repository/specification"
	"clinical-assist-be/pkg/audit"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const auditGenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

type AuditRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AuditEntryMapper
}

func NewAuditRepository(db *gorm.DB) contract.AuditRepository {
	return &AuditRepositoryImpl{
		db:     db,
		mapper: mapper.NewAuditEntryMapper(),
	}
}

func (r *AuditRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Append writes the entry at the tail of the hash chain. The previous tail is
// locked inside the transaction so concurrent appends serialize and the chain
// never forks.
func (r *AuditRepositoryImpl) Append(ctx context.Context, entry *entity.AuditEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last model.AuditEntry
		prevHash := auditGenesisHash

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Order("created_at DESC, id DESC").
			First(&last).Error
		switch {
		case err == nil:
			prevHash = last.EntryHash
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first entry in the chain
		default:
			return err
		}

		entry.PrevHash = prevHash
		entry.EntryHash = audit.ComputeEntryHash(prevHash, entry)

		m, err := r.mapper.ToModel(entry)
		if err != nil {
			return err
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		*entry = *r.mapper.ToEntity(m)
		return nil
	})
}

func (r *AuditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEntry, error) {
	var models []*model.AuditEntry
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AuditRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.AuditEntry{}).Count(&count).Error
	return count, err
}

func (r *AuditRepositoryImpl) LastEntry(ctx context.Context) (*entity.AuditEntry, error) {
	var m model.AuditEntry
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
