package contract

import (
	"context"

	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/repository/specification"
)

type FetchRecordRepository interface {
	Create(ctx context.Context, record *entity.FetchRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FetchRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FetchRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
