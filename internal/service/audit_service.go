// FILE: internal/service/audit_service.go
package service

import (
	"context"
	"errors"

	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/repository/specification"
	"clinical-assist-be/internal/repository/unitofwork"
	"clinical-assist-be/pkg/audit"

	"github.com/google/uuid"
)

// IAuditService is the admin-facing read side of the audit trail. Nothing
// here can modify an entry; the repository has no such operation.
type IAuditService interface {
	List(ctx context.Context, req *dto.ListAuditRequest) (*dto.ListAuditResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.AuditEntryResponse, error)
	VerifyChain(ctx context.Context) (*dto.VerifyChainResponse, error)
}

// ErrAuditEntryNotFound reports a lookup for an id the trail does not hold.
var ErrAuditEntryNotFound = errors.New("audit entry not found")

type auditService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewAuditService(uowFactory unitofwork.RepositoryFactory) IAuditService {
	return &auditService{
		uowFactory: uowFactory,
	}
}

func (s *auditService) List(ctx context.Context, req *dto.ListAuditRequest) (*dto.ListAuditResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	filters := []specification.Specification{}
	if req.PatientID != "" {
		filters = append(filters, specification.ByPatient{PatientID: req.PatientID})
	}
	if req.PrincipalID != "" {
		principalID, err := uuid.Parse(req.PrincipalID)
		if err != nil {
			return nil, errs.Validation("principal_id", "must be a valid uuid")
		}
		filters = append(filters, specification.ByPrincipal{PrincipalID: principalID})
	}
	if req.Outcome != "" {
		filters = append(filters, specification.ByOutcome{Outcome: req.Outcome})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AuditRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, errs.Dependency("audit", errs.KindUnavailable, err)
	}

	pageSpecs := append(filters,
		specification.OrderBy{Field: "timestamp", Desc: true},
		specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize},
	)
	entries, err := repo.FindAll(ctx, pageSpecs...)
	if err != nil {
		return nil, errs.Dependency("audit", errs.KindUnavailable, err)
	}

	res := &dto.ListAuditResponse{
		Entries:  make([]dto.AuditEntryResponse, len(entries)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for i, e := range entries {
		res.Entries[i] = toAuditEntryResponse(e)
	}
	return res, nil
}

func (s *auditService) Get(ctx context.Context, id uuid.UUID) (*dto.AuditEntryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AuditRepository()

	entries, err := repo.FindAll(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, errs.Dependency("audit", errs.KindUnavailable, err)
	}
	if len(entries) == 0 {
		return nil, ErrAuditEntryNotFound
	}
	res := toAuditEntryResponse(entries[0])
	return &res, nil
}

// VerifyChain recomputes every hash in insertion order. Expensive on a large
// trail; meant for scheduled integrity checks, not the request hot path.
func (s *auditService) VerifyChain(ctx context.Context) (*dto.VerifyChainResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AuditRepository()

	last, err := repo.LastEntry(ctx)
	if err != nil {
		return nil, errs.Dependency("audit", errs.KindUnavailable, err)
	}
	if last == nil {
		return &dto.VerifyChainResponse{Intact: true}, nil
	}

	entries, err := repo.FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: false})
	if err != nil {
		return nil, errs.Dependency("audit", errs.KindUnavailable, err)
	}

	res := &dto.VerifyChainResponse{Intact: true, Entries: len(entries)}

	if err := audit.VerifyChain(entries); err != nil {
		res.Intact = false
		var brk *audit.ChainBreak
		if errors.As(err, &brk) {
			idx := brk.Index
			res.BrokenAt = &idx
		}
		res.BrokenDetail = err.Error()
	}
	return res, nil
}

func toAuditEntryResponse(e *entity.AuditEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		Id:          e.Id,
		QueryID:     e.QueryID,
		PrincipalID: e.PrincipalID,
		PatientID:   e.PatientID,
		Action:      string(e.Action),
		Outcome:     string(e.Outcome),
		Timestamp:   e.Timestamp,
		LatencyMs:   e.LatencyMs,
		Details:     e.Details,
		PrevHash:    e.PrevHash,
		EntryHash:   e.EntryHash,
	}
}
