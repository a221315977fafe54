package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/prepdesk/backend/core/visibility"
)

type visibilityRepository struct {
	db *visibilityTable
}

var _ visibility.Repository = (*visibilityRepository)(nil) // interface compliance check

func NewVisibilityRepository(db *DB) *visibilityRepository {
	return &visibilityRepository{db: db.visibility}
}

func (repo *visibilityRepository) ResolveBatch(_ context.Context, courseID string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if batchID, ok := repo.db.enrollments[courseID]; ok {
		return batchID, nil
	}
	return "", visibility.ErrNoEnrollment
}

func (repo *visibilityRepository) GetBatchDetails(_ context.Context, batchID string) (visibility.BatchDetails, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if details, ok := repo.db.batches[batchID]; ok {
		return *details, nil
	}
	return visibility.BatchDetails{BatchID: batchID}, nil
}

func (repo *visibilityRepository) GetRule(_ context.Context, courseID, testID string) (visibility.Rule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rule := range repo.db.rules {
		if rule.CourseID == courseID && rule.TestID == testID {
			return *rule, nil
		}
	}
	return visibility.Rule{}, visibility.ErrRuleNotFound
}

func (repo *visibilityRepository) CreateRule(_ context.Context, rule visibility.Rule) (visibility.Rule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rule.ID = uuid.New().String()
	repo.db.rules[rule.ID] = &rule
	return rule, nil
}

func (repo *visibilityRepository) UpdateRule(_ context.Context, rule visibility.Rule) (visibility.Rule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rules[rule.ID]; !ok {
		return visibility.Rule{}, visibility.ErrRuleNotFound
	}
	repo.db.rules[rule.ID] = &rule
	return rule, nil
}

// Enroll seeds an enrollment and its batch roster; tests use it to set up
// the visibility editing precondition.
func (repo *visibilityRepository) Enroll(courseID string, details visibility.BatchDetails) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.enrollments[courseID] = details.BatchID
	repo.db.batches[details.BatchID] = &details
}
