package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/prepdesk/backend/core/testconfig"
)

type configRepository struct {
	db *configTable
}

var _ testconfig.Repository = (*configRepository)(nil) // interface compliance check

func NewConfigRepository(db *DB) *configRepository {
	return &configRepository{db: db.config}
}

func (repo *configRepository) GetConfig(_ context.Context, courseID, testID string) (testconfig.Config, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, cfg := range repo.db.table {
		if cfg.CourseID == courseID && cfg.TestID == testID {
			return *cfg, nil
		}
	}
	return testconfig.Config{}, testconfig.ErrNotFound
}

func (repo *configRepository) CreateConfig(_ context.Context, cfg testconfig.Config) (testconfig.Config, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cfg.ID = uuid.New().String()
	repo.db.table[cfg.ID] = &cfg
	return cfg, nil
}

func (repo *configRepository) UpdateConfig(_ context.Context, cfg testconfig.Config) (testconfig.Config, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[cfg.ID]; !ok {
		return testconfig.Config{}, testconfig.ErrNotFound
	}
	repo.db.table[cfg.ID] = &cfg
	return cfg, nil
}
