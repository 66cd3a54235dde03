package mapper

import (
	"encoding/json"

	"ecourts-fetcher-be/internal/dto"
	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/model"

	"gorm.io/datatypes"
)

type FetchRecordMapper struct{}

func NewFetchRecordMapper() *FetchRecordMapper {
	return &FetchRecordMapper{}
}

func (m *FetchRecordMapper) ToEntity(r *model.FetchRecord) *entity.FetchRecord {
	if r == nil {
		return nil
	}
	return &entity.FetchRecord{
		Id:          r.Id,
		RunId:       r.RunId,
		Owner:       r.Owner,
		Workflow:    r.Workflow,
		OutcomeKind: r.OutcomeKind,
		Summary:     r.Summary,
		Reference:   r.Reference,
		Query:       json.RawMessage(r.Query),
		Outcome:     json.RawMessage(r.Outcome),
		CreatedAt:   r.CreatedAt,
	}
}

func (m *FetchRecordMapper) ToModel(r *entity.FetchRecord) *model.FetchRecord {
	if r == nil {
		return nil
	}
	return &model.FetchRecord{
		Id:          r.Id,
		RunId:       r.RunId,
		Owner:       r.Owner,
		Workflow:    r.Workflow,
		OutcomeKind: r.OutcomeKind,
		Summary:     r.Summary,
		Reference:   r.Reference,
		Query:       datatypes.JSON(r.Query),
		Outcome:     datatypes.JSON(r.Outcome),
		CreatedAt:   r.CreatedAt,
	}
}

func (m *FetchRecordMapper) ToEntities(records []*model.FetchRecord) []*entity.FetchRecord {
	entities := make([]*entity.FetchRecord, len(records))
	for i, r := range records {
		entities[i] = m.ToEntity(r)
	}
	return entities
}

func (m *FetchRecordMapper) ToResponse(r *entity.FetchRecord) *dto.FetchRecordResponse {
	return &dto.FetchRecordResponse{
		Id:          r.Id,
		RunId:       r.RunId,
		Workflow:    r.Workflow,
		OutcomeKind: r.OutcomeKind,
		Summary:     r.Summary,
		Reference:   r.Reference,
		Query:       r.Query,
		Outcome:     r.Outcome,
		CreatedAt:   r.CreatedAt,
	}
}

// FromMessage turns an outcome event into the row that records it.
func (m *FetchRecordMapper) FromMessage(msg *dto.FetchOutcomeMessage) *entity.FetchRecord {
	return &entity.FetchRecord{
		RunId:       msg.RunId,
		Owner:       msg.Owner,
		Workflow:    msg.Workflow,
		OutcomeKind: msg.OutcomeKind,
		Summary:     msg.Summary,
		Reference:   msg.Reference,
		Query:       msg.Query,
		Outcome:     msg.Outcome,
		CreatedAt:   msg.OccurredAt,
	}
}
