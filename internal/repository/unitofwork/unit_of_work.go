package unitofwork

import (
	"context"

	"ecourts-fetcher-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	FetchRecordRepository() contract.FetchRecordRepository
}
