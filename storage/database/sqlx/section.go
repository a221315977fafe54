package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/prepdesk/backend/core/section"
)

type sectionRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	ModuleID    string      `db:"module_id"`
	ModuleName  null.String `db:"module_name"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
}

func (r sectionRow) unpack() section.Section {
	return section.Section{
		ID:          r.ID,
		CourseID:    r.CourseID,
		ModuleID:    r.ModuleID,
		ModuleName:  r.ModuleName.String,
		Name:        r.Name,
		Description: r.Description.String,
		State:       section.Saved,
	}
}

type sectionTestRow struct {
	ID        string `db:"id"`
	SectionID string `db:"section_id"`
	TestID    string `db:"test_id"`
	TestType  string `db:"test_type"`
	Position  int    `db:"position"`
}

func (r sectionTestRow) unpack() section.SectionTest {
	return section.SectionTest{
		ID:        r.ID,
		SectionID: r.SectionID,
		TestID:    r.TestID,
		Kind:      section.TestKind(r.TestType),
		Position:  r.Position,
		State:     section.Saved,
	}
}

const sectionSelect = `
	SELECT s.id, s.course_id, s.module_id, m.name AS module_name, s.name, s.description
	FROM section s
	JOIN course_module m ON m.id = s.module_id`

type sectionRepository struct {
	db *sqlx.DB
}

var _ section.Repository = (*sectionRepository)(nil) // interface compliance check

func NewSectionRepository(db *sqlx.DB) *sectionRepository {
	return &sectionRepository{db: db}
}

func (repo *sectionRepository) loadTests(ctx context.Context, sec *section.Section) error {
	var rows []sectionTestRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT id, section_id, test_id, test_type, position
		FROM section_test WHERE section_id = $1 ORDER BY position`,
		sec.ID)
	if err != nil {
		return errors.Wrap(err, "querying section tests")
	}
	sec.Tests = make([]section.SectionTest, 0, len(rows))
	for _, row := range rows {
		sec.Tests = append(sec.Tests, row.unpack())
	}
	return nil
}

func (repo *sectionRepository) GetSection(ctx context.Context, id string) (section.Section, error) {
	var row sectionRow
	err := repo.db.GetContext(ctx, &row, sectionSelect+` WHERE s.id = $1`, id)
	if err == sql.ErrNoRows {
		return section.Section{}, section.ErrNotFound
	}
	if err != nil {
		return section.Section{}, errors.Wrap(err, "finding section")
	}
	sec := row.unpack()
	if err := repo.loadTests(ctx, &sec); err != nil {
		return section.Section{}, err
	}
	return sec, nil
}

func (repo *sectionRepository) QuerySectionsByCourse(ctx context.Context, courseID string) ([]section.Section, error) {
	var rows []sectionRow
	err := repo.db.SelectContext(ctx, &rows, sectionSelect+` WHERE s.course_id = $1 ORDER BY m.position, s.name`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	secs := make([]section.Section, 0, len(rows))
	for _, row := range rows {
		sec := row.unpack()
		if err := repo.loadTests(ctx, &sec); err != nil {
			return nil, err
		}
		secs = append(secs, sec)
	}
	return secs, nil
}

func (repo *sectionRepository) FindAssignment(ctx context.Context, courseID, testID string) (section.Assignment, error) {
	var asg section.Assignment
	err := repo.db.QueryRowxContext(ctx, `
		SELECT st.test_id, s.module_id, m.name, s.id, s.name
		FROM section_test st
		JOIN section s ON s.id = st.section_id
		JOIN course_module m ON m.id = s.module_id
		WHERE s.course_id = $1 AND st.test_id = $2`,
		courseID, testID,
	).Scan(&asg.TestID, &asg.ModuleID, &asg.ModuleName, &asg.SectionID, &asg.SectionName)
	if err == sql.ErrNoRows {
		return section.Assignment{}, section.ErrNoAssignment
	}
	if err != nil {
		return section.Assignment{}, errors.Wrap(err, "finding assignment")
	}
	return asg, nil
}

func (repo *sectionRepository) CreateSection(ctx context.Context, sec section.Section) (section.Section, error) {
	sec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO section (id, course_id, module_id, name, description)
		VALUES ($1, $2, $3, $4, $5)`,
		sec.ID, sec.CourseID, sec.ModuleID, sec.Name, null.NewString(sec.Description, sec.Description != ""))
	if err != nil {
		return section.Section{}, errors.Wrap(err, "inserting section")
	}
	sec.State = section.Saved
	return sec, nil
}

func (repo *sectionRepository) UpdateSection(ctx context.Context, sec section.Section) (section.Section, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE section SET module_id = $2, name = $3, description = $4 WHERE id = $1`,
		sec.ID, sec.ModuleID, sec.Name, null.NewString(sec.Description, sec.Description != ""))
	if err != nil {
		return section.Section{}, errors.Wrap(err, "updating section")
	}
	return repo.GetSection(ctx, sec.ID)
}

func (repo *sectionRepository) DeleteSection(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM section WHERE id = $1`, id)
	return errors.Wrap(err, "deleting section")
}

func (repo *sectionRepository) CreateSectionTest(ctx context.Context, st section.SectionTest) (section.SectionTest, error) {
	st.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO section_test (id, section_id, test_id, test_type, position)
		VALUES ($1, $2, $3, $4, $5)`,
		st.ID, st.SectionID, st.TestID, string(st.Kind), st.Position)
	if err != nil {
		return section.SectionTest{}, errors.Wrap(err, "inserting section test")
	}
	st.State = section.Saved
	return st, nil
}

func (repo *sectionRepository) UpdateSectionTest(ctx context.Context, st section.SectionTest) (section.SectionTest, error) {
	_, err := repo.db.ExecContext(ctx, `
		UPDATE section_test SET section_id = $2, test_type = $3, position = $4 WHERE id = $1`,
		st.ID, st.SectionID, string(st.Kind), st.Position)
	if err != nil {
		return section.SectionTest{}, errors.Wrap(err, "updating section test")
	}
	st.State = section.Saved
	return st, nil
}

func (repo *sectionRepository) DeleteSectionTest(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM section_test WHERE id = $1`, id)
	return errors.Wrap(err, "deleting section test")
}

func (repo *sectionRepository) HasTestAttempts(ctx context.Context, courseID, testID string) (bool, error) {
	var has bool
	err := repo.db.GetContext(ctx, &has, `
		SELECT EXISTS (SELECT 1 FROM test_attempt WHERE course_id = $1 AND test_id = $2)`,
		courseID, testID)
	return has, errors.Wrap(err, "checking test attempts")
}

func (repo *sectionRepository) HasSectionAttempts(ctx context.Context, sectionID string) (bool, error) {
	var has bool
	err := repo.db.GetContext(ctx, &has, `
		SELECT EXISTS (SELECT 1 FROM test_attempt WHERE section_id = $1)`,
		sectionID)
	return has, errors.Wrap(err, "checking section attempts")
}
