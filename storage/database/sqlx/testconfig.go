package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prepdesk/backend/core/testconfig"
)

type configRow struct {
	ID              string      `db:"id"`
	CourseID        string      `db:"course_id"`
	TestID          string      `db:"test_id"`
	StartAt         null.Time   `db:"start_at"`
	EndAt           null.Time   `db:"end_at"`
	DurationMinutes int         `db:"duration_minutes"`
	RetakeAllowed   bool        `db:"retake_allowed"`
	MaxAttempts     int         `db:"max_attempts"`
	ResumeAllowed   bool        `db:"resume_allowed"`
	IsProctored     bool        `db:"is_proctored"`
	IsPreparation   bool        `db:"is_preparation"`
	CorrectMark     float64     `db:"correct_mark"`
	NegativeMark    float64     `db:"negative_mark"`
	PassPercentage  int         `db:"pass_percentage"`
	VideoProctoring bool        `db:"video_proctoring"`
	MaxTabSwitches  int         `db:"max_tab_switches"`
	ViolationLimit  int         `db:"violation_limit"`
	CreatedBy       null.String `db:"created_by"`
	LastUpdatedBy   null.String `db:"last_updated_by"`
	CreatedAt       null.Time   `db:"created_at"`
	UpdatedAt       null.Time   `db:"updated_at"`
}

func (r configRow) unpack() testconfig.Config {
	return testconfig.Config{
		ID:              r.ID,
		CourseID:        r.CourseID,
		TestID:          r.TestID,
		StartAt:         r.StartAt.Time,
		EndAt:           r.EndAt.Time,
		DurationMinutes: r.DurationMinutes,
		RetakeAllowed:   r.RetakeAllowed,
		MaxAttempts:     r.MaxAttempts,
		ResumeAllowed:   r.ResumeAllowed,
		IsProctored:     r.IsProctored,
		IsPreparationTest: r.IsPreparation,
		CorrectMark:     r.CorrectMark,
		NegativeMark:    r.NegativeMark,
		PassPercentage:  r.PassPercentage,
		VideoProctoring: r.VideoProctoring,
		MaxTabSwitches:  r.MaxTabSwitches,
		ViolationLimit:  r.ViolationLimit,
		CreatedBy:       r.CreatedBy.String,
		LastUpdatedBy:   r.LastUpdatedBy.String,
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

func packConfig(cfg testconfig.Config) configRow {
	return configRow{
		ID:              cfg.ID,
		CourseID:        cfg.CourseID,
		TestID:          cfg.TestID,
		StartAt:         null.NewTime(cfg.StartAt.UTC(), !cfg.StartAt.IsZero()),
		EndAt:           null.NewTime(cfg.EndAt.UTC(), !cfg.EndAt.IsZero()),
		DurationMinutes: cfg.DurationMinutes,
		RetakeAllowed:   cfg.RetakeAllowed,
		MaxAttempts:     cfg.MaxAttempts,
		ResumeAllowed:   cfg.ResumeAllowed,
		IsProctored:     cfg.IsProctored,
		IsPreparation:   cfg.IsPreparationTest,
		CorrectMark:     cfg.CorrectMark,
		NegativeMark:    cfg.NegativeMark,
		PassPercentage:  cfg.PassPercentage,
		VideoProctoring: cfg.VideoProctoring,
		MaxTabSwitches:  cfg.MaxTabSwitches,
		ViolationLimit:  cfg.ViolationLimit,
		CreatedBy:       null.NewString(cfg.CreatedBy, cfg.CreatedBy != ""),
		LastUpdatedBy:   null.NewString(cfg.LastUpdatedBy, cfg.LastUpdatedBy != ""),
		CreatedAt:       null.NewTime(cfg.CreatedAt.UTC(), !cfg.CreatedAt.IsZero()),
		UpdatedAt:       null.NewTime(cfg.UpdatedAt.UTC(), !cfg.UpdatedAt.IsZero()),
	}
}

type configRepository struct {
	db *sqlx.DB
}

var _ testconfig.Repository = (*configRepository)(nil) // interface compliance check

func NewConfigRepository(db *sqlx.DB) *configRepository {
	return &configRepository{db: db}
}

func (repo *configRepository) GetConfig(ctx context.Context, courseID, testID string) (testconfig.Config, error) {
	var row configRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM test_configuration WHERE course_id = $1 AND test_id = $2`,
		courseID, testID)
	if err == sql.ErrNoRows {
		return testconfig.Config{}, testconfig.ErrNotFound
	}
	if err != nil {
		return testconfig.Config{}, errors.Wrap(err, "finding test configuration")
	}
	return row.unpack(), nil
}

func (repo *configRepository) CreateConfig(ctx context.Context, cfg testconfig.Config) (testconfig.Config, error) {
	cfg.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO test_configuration (
			id, course_id, test_id, start_at, end_at, duration_minutes,
			retake_allowed, max_attempts, resume_allowed, is_proctored, is_preparation,
			correct_mark, negative_mark, pass_percentage,
			video_proctoring, max_tab_switches, violation_limit,
			created_by, last_updated_by, created_at, updated_at)
		VALUES (
			:id, :course_id, :test_id, :start_at, :end_at, :duration_minutes,
			:retake_allowed, :max_attempts, :resume_allowed, :is_proctored, :is_preparation,
			:correct_mark, :negative_mark, :pass_percentage,
			:video_proctoring, :max_tab_switches, :violation_limit,
			:created_by, :last_updated_by, :created_at, :updated_at)`,
		packConfig(cfg))
	if err != nil {
		return testconfig.Config{}, errors.Wrap(err, "inserting test configuration")
	}
	return cfg, nil
}

func (repo *configRepository) UpdateConfig(ctx context.Context, cfg testconfig.Config) (testconfig.Config, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		UPDATE test_configuration SET
			start_at = :start_at, end_at = :end_at, duration_minutes = :duration_minutes,
			retake_allowed = :retake_allowed, max_attempts = :max_attempts, resume_allowed = :resume_allowed,
			is_proctored = :is_proctored, is_preparation = :is_preparation,
			correct_mark = :correct_mark, negative_mark = :negative_mark, pass_percentage = :pass_percentage,
			video_proctoring = :video_proctoring, max_tab_switches = :max_tab_switches, violation_limit = :violation_limit,
			last_updated_by = :last_updated_by, updated_at = :updated_at
		WHERE id = :id`,
		packConfig(cfg))
	if err != nil {
		return testconfig.Config{}, errors.Wrap(err, "updating test configuration")
	}
	return cfg, nil
}
