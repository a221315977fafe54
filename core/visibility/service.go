package visibility

import (
	"context"
	"errors"
)

var (
	ErrRuleNotFound = errors.New("visibility rule not found")
	// ErrNoEnrollment means the course resolves to no batch at all. Editing
	// is impossible until an enrollment exists; callers present this as a
	// distinct empty state, not a failure.
	ErrNoEnrollment = errors.New("no enrollment found for this course")
)

type (
	Repository interface {
		// ResolveBatch maps a course to its batch through the enrollment
		// records. ErrNoEnrollment when the course has none.
		ResolveBatch(ctx context.Context, courseID string) (string, error)
		GetBatchDetails(ctx context.Context, batchID string) (BatchDetails, error)
		// GetRule fetches by composite key. ErrRuleNotFound when the pair
		// never had a rule saved.
		GetRule(ctx context.Context, courseID, testID string) (Rule, error)
		CreateRule(ctx context.Context, rule Rule) (Rule, error)
		UpdateRule(ctx context.Context, rule Rule) (Rule, error)
	}

	Service interface {
		Load(ctx context.Context, courseID, testID string) (EditorState, error)
		Save(ctx context.Context, rule Rule) (Rule, error)
		ResolveBatch(ctx context.Context, courseID string) (string, error)
		BatchDetails(ctx context.Context, batchID string) (BatchDetails, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Load resolves the course's batch, fetches its roster and the existing
// rule for the pair. An absent rule comes back empty and unpersisted so the
// next save creates it.
func (svc *service) Load(ctx context.Context, courseID, testID string) (EditorState, error) {
	batchID, err := svc.repo.ResolveBatch(ctx, courseID)
	if err != nil {
		return EditorState{}, err
	}

	details, err := svc.repo.GetBatchDetails(ctx, batchID)
	if err != nil {
		return EditorState{}, err
	}

	rule, err := svc.repo.GetRule(ctx, courseID, testID)
	if err == ErrRuleNotFound {
		rule = Rule{CourseID: courseID, TestID: testID, BatchID: batchID}
	} else if err != nil {
		return EditorState{}, err
	}

	return EditorState{Batch: details, Rule: rule}, nil
}

// Save validates the rule and persists it, re-checking that the course still
// has an enrollment before writing.
func (svc *service) Save(ctx context.Context, rule Rule) (Rule, error) {
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}

	batchID, err := svc.repo.ResolveBatch(ctx, rule.CourseID)
	if err != nil {
		return Rule{}, err
	}
	rule.BatchID = batchID

	if rule.IsPersisted() {
		return svc.repo.UpdateRule(ctx, rule)
	}
	return svc.repo.CreateRule(ctx, rule)
}

func (svc *service) ResolveBatch(ctx context.Context, courseID string) (string, error) {
	return svc.repo.ResolveBatch(ctx, courseID)
}

func (svc *service) BatchDetails(ctx context.Context, batchID string) (BatchDetails, error) {
	return svc.repo.GetBatchDetails(ctx, batchID)
}
