package contract

import (
	"context"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/repository/specification"
)

// AuditRepository is deliberately append-only: there is no update or delete
// in this contract and none may be added. Reads exist for the compliance
// review surface.
type AuditRepository interface {
	// Append durably writes one entry, chaining its hash to the previous
	// entry. Returns only after the row is committed.
	Append(ctx context.Context, entry *entity.AuditEntry) error

	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEntry, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// LastEntry returns the newest entry in the chain, or nil when the trail
	// is empty.
	LastEntry(ctx context.Context) (*entity.AuditEntry, error)
}
