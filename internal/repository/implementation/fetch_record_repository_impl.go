package implementation

import (
	"context"
	"errors"

	"ecourts-fetcher-be/internal/entity"
	"ecourts-fetcher-be/internal/mapper"
	"ecourts-fetcher-be/internal/model"
	"ecourts-fetcher-be/internal/repository/contract"
	"ecourts-fetcher-be/internal/repository/scope"
	"ecourts-fetcher-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FetchRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FetchRecordMapper
}

func NewFetchRecordRepository(db *gorm.DB) contract.FetchRecordRepository {
	return &FetchRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewFetchRecordMapper(),
	}
}

func (r *FetchRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Create is idempotent per run: a redelivered outcome for the same run is ignored.
func (r *FetchRecordRepositoryImpl) Create(ctx context.Context, record *entity.FetchRecord) error {
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	m := r.mapper.ToModel(record)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "run_id"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return err
	}
	*record = *r.mapper.ToEntity(m)
	return nil
}

func (r *FetchRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FetchRecord, error) {
	var m model.FetchRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.LatestFirst)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FetchRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FetchRecord, error) {
	var models []*model.FetchRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FetchRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FetchRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
