package mapper

import (
	"encoding/json"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/model"

	"gorm.io/datatypes"
)

type AuditEntryMapper struct{}

func NewAuditEntryMapper() *AuditEntryMapper {
	return &AuditEntryMapper{}
}

func (m *AuditEntryMapper) ToEntity(e *model.AuditEntry) *entity.AuditEntry {
	if e == nil {
		return nil
	}

	var details map[string]interface{}
	if len(e.Details) > 0 {
		// a corrupt details blob should not hide the rest of the entry
		_ = json.Unmarshal(e.Details, &details)
	}

	return &entity.AuditEntry{
		Id:          e.Id,
		QueryID:     e.QueryId,
		PrincipalID: e.PrincipalId,
		PatientID:   e.PatientId,
		Action:      entity.AuditAction(e.Action),
		Outcome:     entity.AuditOutcome(e.Outcome),
		Timestamp:   e.Timestamp,
		LatencyMs:   e.LatencyMs,
		Details:     details,
		PrevHash:    e.PrevHash,
		EntryHash:   e.EntryHash,
	}
}

func (m *AuditEntryMapper) ToModel(e *entity.AuditEntry) (*model.AuditEntry, error) {
	if e == nil {
		return nil, nil
	}

	var details datatypes.JSON
	if e.Details != nil {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		details = datatypes.JSON(raw)
	}

	return &model.AuditEntry{
		Id:          e.Id,
		QueryId:     e.QueryID,
		PrincipalId: e.PrincipalID,
		PatientId:   e.PatientID,
		Action:      string(e.Action),
		Outcome:     string(e.Outcome),
		Timestamp:   e.Timestamp,
		LatencyMs:   e.LatencyMs,
		Details:     details,
		PrevHash:    e.PrevHash,
		EntryHash:   e.EntryHash,
	}, nil
}

func (m *AuditEntryMapper) ToEntities(models []*model.AuditEntry) []*entity.AuditEntry {
	entities := make([]*entity.AuditEntry, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
