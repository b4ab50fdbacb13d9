package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/repository/contract"
	"clinical-assist-be/internal/repository/specification"
	"clinical-assist-be/internal/repository/unitofwork"
	"clinical-assist-be/pkg/audit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuditRepo struct {
	entries      []*entity.AuditEntry
	findAllCalls int
}

func (r *stubAuditRepo) Append(ctx context.Context, entry *entity.AuditEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEntry, error) {
	r.findAllCalls++
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			for _, e := range r.entries {
				if e.Id == byID.ID {
					return []*entity.AuditEntry{e}, nil
				}
			}
			return nil, nil
		}
	}
	return r.entries, nil
}

func (r *stubAuditRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *stubAuditRepo) LastEntry(ctx context.Context) (*entity.AuditEntry, error) {
	if len(r.entries) == 0 {
		return nil, nil
	}
	return r.entries[len(r.entries)-1], nil
}

type stubUnitOfWork struct {
	repo *stubAuditRepo
}

func (u *stubUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *stubUnitOfWork) Commit() error                   { return nil }
func (u *stubUnitOfWork) Rollback() error                 { return nil }
func (u *stubUnitOfWork) RecordEmbeddingRepository() contract.RecordEmbeddingRepository {
	return nil
}
func (u *stubUnitOfWork) AuditRepository() contract.AuditRepository { return u.repo }

type stubUowFactory struct {
	repo *stubAuditRepo
}

func (f *stubUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &stubUnitOfWork{repo: f.repo}
}

func chainedEntries(n int) []*entity.AuditEntry {
	prev := strings.Repeat("0", 64)
	entries := make([]*entity.AuditEntry, n)
	for i := range entries {
		e := &entity.AuditEntry{
			Id:          uuid.New(),
			QueryID:     uuid.New(),
			PrincipalID: uuid.New(),
			PatientID:   "P1",
			Action:      entity.AuditActionQuery,
			Outcome:     entity.AuditOutcomeSuccess,
			Timestamp:   time.Now().UTC(),
			LatencyMs:   int64(10 + i),
		}
		e.PrevHash = prev
		e.EntryHash = audit.ComputeEntryHash(prev, e)
		prev = e.EntryHash
		entries[i] = e
	}
	return entries
}

func TestAuditGetReturnsSingleEntry(t *testing.T) {
	repo := &stubAuditRepo{entries: chainedEntries(3)}
	svc := NewAuditService(&stubUowFactory{repo: repo})

	want := repo.entries[1]
	got, err := svc.Get(context.Background(), want.Id)
	require.NoError(t, err)
	assert.Equal(t, want.Id, got.Id)
	assert.Equal(t, want.EntryHash, got.EntryHash)
}

func TestAuditGetUnknownIDIsNotFound(t *testing.T) {
	repo := &stubAuditRepo{entries: chainedEntries(1)}
	svc := NewAuditService(&stubUowFactory{repo: repo})

	_, err := svc.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAuditEntryNotFound)
}

func TestVerifyChainEmptyTrailIsIntact(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(&stubUowFactory{repo: repo})

	res, err := svc.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Intact)
	assert.Zero(t, res.Entries)
	assert.Zero(t, repo.findAllCalls, "an empty trail is detected from the last entry alone")
}

func TestVerifyChainDetectsTamperedEntry(t *testing.T) {
	repo := &stubAuditRepo{entries: chainedEntries(3)}
	svc := NewAuditService(&stubUowFactory{repo: repo})

	res, err := svc.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Intact)
	assert.Equal(t, 3, res.Entries)

	repo.entries[1].Outcome = entity.AuditOutcomeDenied
	res, err = svc.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Intact)
	require.NotNil(t, res.BrokenAt)
	assert.Equal(t, 1, *res.BrokenAt)
}
