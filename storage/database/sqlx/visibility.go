package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/prepdesk/backend/core/visibility"
)

type ruleRow struct {
	ID                string         `db:"id"`
	CourseID          string         `db:"course_id"`
	TestID            string         `db:"test_id"`
	BatchID           string         `db:"batch_id"`
	IncludeGroups     pq.StringArray `db:"include_groups"`
	ExcludeGroups     pq.StringArray `db:"exclude_groups"`
	IncludeCandidates pq.StringArray `db:"include_candidates"`
	ExcludeCandidates pq.StringArray `db:"exclude_candidates"`
}

func (r ruleRow) unpack() visibility.Rule {
	return visibility.Rule{
		ID:                r.ID,
		CourseID:          r.CourseID,
		TestID:            r.TestID,
		BatchID:           r.BatchID,
		IncludeGroups:     r.IncludeGroups,
		ExcludeGroups:     r.ExcludeGroups,
		IncludeCandidates: r.IncludeCandidates,
		ExcludeCandidates: r.ExcludeCandidates,
	}
}

func packRule(rule visibility.Rule) ruleRow {
	return ruleRow{
		ID:                rule.ID,
		CourseID:          rule.CourseID,
		TestID:            rule.TestID,
		BatchID:           rule.BatchID,
		IncludeGroups:     rule.IncludeGroups,
		ExcludeGroups:     rule.ExcludeGroups,
		IncludeCandidates: rule.IncludeCandidates,
		ExcludeCandidates: rule.ExcludeCandidates,
	}
}

type visibilityRepository struct {
	db *sqlx.DB
}

var _ visibility.Repository = (*visibilityRepository)(nil) // interface compliance check

func NewVisibilityRepository(db *sqlx.DB) *visibilityRepository {
	return &visibilityRepository{db: db}
}

func (repo *visibilityRepository) ResolveBatch(ctx context.Context, courseID string) (string, error) {
	var batchID string
	err := repo.db.GetContext(ctx, &batchID, `
		SELECT batch_id FROM enrollment WHERE course_id = $1 LIMIT 1`,
		courseID)
	if err == sql.ErrNoRows {
		return "", visibility.ErrNoEnrollment
	}
	if err != nil {
		return "", errors.Wrap(err, "resolving batch")
	}
	return batchID, nil
}

func (repo *visibilityRepository) GetBatchDetails(ctx context.Context, batchID string) (visibility.BatchDetails, error) {
	details := visibility.BatchDetails{BatchID: batchID}

	var groups []visibility.Group
	err := repo.db.SelectContext(ctx, &groups, `
		SELECT id, name FROM batch_group WHERE batch_id = $1 ORDER BY name`,
		batchID)
	if err != nil {
		return visibility.BatchDetails{}, errors.Wrap(err, "querying batch groups")
	}
	details.Groups = groups

	var candidates []visibility.Candidate
	err = repo.db.SelectContext(ctx, &candidates, `
		SELECT id, name, COALESCE(email, '') AS email FROM batch_candidate WHERE batch_id = $1 ORDER BY name`,
		batchID)
	if err != nil {
		return visibility.BatchDetails{}, errors.Wrap(err, "querying batch candidates")
	}
	details.Candidates = candidates

	return details, nil
}

func (repo *visibilityRepository) GetRule(ctx context.Context, courseID, testID string) (visibility.Rule, error) {
	var row ruleRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM test_visibility WHERE course_id = $1 AND test_id = $2`,
		courseID, testID)
	if err == sql.ErrNoRows {
		return visibility.Rule{}, visibility.ErrRuleNotFound
	}
	if err != nil {
		return visibility.Rule{}, errors.Wrap(err, "finding visibility rule")
	}
	return row.unpack(), nil
}

func (repo *visibilityRepository) CreateRule(ctx context.Context, rule visibility.Rule) (visibility.Rule, error) {
	rule.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO test_visibility (
			id, course_id, test_id, batch_id,
			include_groups, exclude_groups, include_candidates, exclude_candidates)
		VALUES (
			:id, :course_id, :test_id, :batch_id,
			:include_groups, :exclude_groups, :include_candidates, :exclude_candidates)`,
		packRule(rule))
	if err != nil {
		return visibility.Rule{}, errors.Wrap(err, "inserting visibility rule")
	}
	return rule, nil
}

func (repo *visibilityRepository) UpdateRule(ctx context.Context, rule visibility.Rule) (visibility.Rule, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE test_visibility SET
			batch_id = :batch_id,
			include_groups = :include_groups, exclude_groups = :exclude_groups,
			include_candidates = :include_candidates, exclude_candidates = :exclude_candidates
		WHERE id = :id`,
		packRule(rule))
	if err != nil {
		return visibility.Rule{}, errors.Wrap(err, "updating visibility rule")
	}
	return rule, nil
}
