package memory

import (
	"sort"
	"time"

	"ecourts-fetcher-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// RunRepository keeps live runs in process. Entries expire after ttl whether
// pending or resolved.
type RunRepository struct {
	cache *cache.Cache
}

func NewRunRepository(ttl time.Duration) *RunRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	c := cache.New(ttl, ttl/2)
	return &RunRepository{
		cache: c,
	}
}

func (r *RunRepository) Save(run *entity.FetchRun) {
	r.cache.Set(run.Id.String(), run, cache.DefaultExpiration)
}

func (r *RunRepository) Get(id uuid.UUID) (*entity.FetchRun, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.FetchRun), true
	}
	return nil, false
}

func (r *RunRepository) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}

func (r *RunRepository) Count() int {
	return r.cache.ItemCount()
}

// FindByOwner returns the unexpired runs started by owner, newest first.
func (r *RunRepository) FindByOwner(owner string) []*entity.FetchRun {
	var runs []*entity.FetchRun
	for _, item := range r.cache.Items() {
		if run, ok := item.Object.(*entity.FetchRun); ok && run.Owner == owner {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs
}
