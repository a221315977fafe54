package section

import (
	"context"
	"errors"

	"github.com/prepdesk/backend/core"
)

var (
	// errors
	ErrNotFound      = errors.New("section not found")
	ErrTestNotFound  = errors.New("section test not found")
	ErrNoAssignment  = errors.New("test is not assigned in this course")
	errBadReorder    = errors.New("reordered list must contain exactly the active tests of the section")
	errAlreadyStaged = errors.New("this test is already staged in this section")
)

const (
	reasonTestHasAttempts    = "This test already has recorded attempts and cannot be removed."
	reasonSectionHasAttempts = "This section contains tests with recorded attempts and cannot be deleted."
)

type (
	Repository interface {
		GetSection(ctx context.Context, id string) (Section, error)
		QuerySectionsByCourse(ctx context.Context, courseID string) ([]Section, error)
		// FindAssignment reports where testID is actively assigned within the
		// course, scanning all sections of all modules. ErrNoAssignment when absent.
		FindAssignment(ctx context.Context, courseID, testID string) (Assignment, error)
		CreateSection(ctx context.Context, sec Section) (Section, error)
		UpdateSection(ctx context.Context, sec Section) (Section, error)
		DeleteSection(ctx context.Context, id string) error
		CreateSectionTest(ctx context.Context, st SectionTest) (SectionTest, error)
		UpdateSectionTest(ctx context.Context, st SectionTest) (SectionTest, error)
		DeleteSectionTest(ctx context.Context, id string) error
		HasTestAttempts(ctx context.Context, courseID, testID string) (bool, error)
		HasSectionAttempts(ctx context.Context, sectionID string) (bool, error)
	}

	Service interface {
		GetSection(ctx context.Context, id string) (Section, error)
		QueryByCourse(ctx context.Context, courseID string) ([]Section, error)
		AddTest(ctx context.Context, sec *Section, testID string, kind TestKind) error
		RemoveTest(sec *Section, entryID string) error
		Reorder(sec *Section, orderedIDs []string) error
		RemoveSection(sec *Section) (dropped bool)
		Commit(ctx context.Context, sec *Section) (Section, error)
		CanDeleteTest(ctx context.Context, courseID, testID string) (bool, string, error)
		CanDeleteSection(ctx context.Context, sectionID string) (bool, string, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetSection(ctx context.Context, id string) (Section, error) {
	return svc.repo.GetSection(ctx, id)
}

func (svc *service) QueryByCourse(ctx context.Context, courseID string) ([]Section, error) {
	return svc.repo.QuerySectionsByCourse(ctx, courseID)
}

// AddTest stages a new test at the end of the section. A test may be actively
// assigned at most once across all sections of the course; the persisted
// assignments are checked through the repository, staged entries of the
// section being edited are checked locally.
func (svc *service) AddTest(ctx context.Context, sec *Section, testID string, kind TestKind) error {
	for _, st := range sec.ActiveTests() {
		if st.TestID == testID {
			return core.NewValidationError(errAlreadyStaged)
		}
	}

	asg, err := svc.repo.FindAssignment(ctx, sec.CourseID, testID)
	if err != nil && err != ErrNoAssignment {
		return err
	}
	if err == nil && asg.SectionID != sec.ID {
		return &DuplicateAssignmentError{
			TestID:      testID,
			ModuleName:  asg.ModuleName,
			SectionName: asg.SectionName,
		}
	}

	sec.Tests = append(sec.Tests, SectionTest{
		ID:        localTestID(),
		SectionID: sec.ID,
		TestID:    testID,
		Kind:      kind,
		Position:  len(sec.ActiveTests()) + 1,
		State:     Unsaved,
	})
	return nil
}

// RemoveTest stages the removal of an entry: unsaved entries are dropped
// outright, persisted ones are tombstoned. Remaining active entries are
// renumbered densely; only entries whose position actually shifted are
// marked for update.
func (svc *service) RemoveTest(sec *Section, entryID string) error {
	i, ok := sec.findTest(entryID)
	if !ok || sec.Tests[i].State == PendingDelete {
		return ErrTestNotFound
	}

	if sec.Tests[i].State == Unsaved {
		sec.Tests = append(sec.Tests[:i], sec.Tests[i+1:]...)
	} else {
		sec.Tests[i].State = PendingDelete
	}

	renumber(sec)
	return nil
}

// Reorder applies a full permutation of the section's active entries.
// Every surviving persisted entry is marked for update.
func (svc *service) Reorder(sec *Section, orderedIDs []string) error {
	active := sec.ActiveTests()
	if len(orderedIDs) != len(active) {
		return core.NewValidationError(errBadReorder)
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := sec.findTest(id); !ok || seen[id] {
			return core.NewValidationError(errBadReorder)
		}
		seen[id] = true
	}
	for _, st := range active {
		if !seen[st.ID] {
			return core.NewValidationError(errBadReorder)
		}
	}

	for pos, id := range orderedIDs {
		i, _ := sec.findTest(id)
		sec.Tests[i].Position = pos + 1
		if sec.Tests[i].State != Unsaved {
			sec.Tests[i].State = PendingUpdate
		}
	}
	return nil
}

// RemoveSection stages the removal of the whole section. A never-persisted
// section is dropped entirely; dropped reports whether the caller should
// discard it rather than commit it.
func (svc *service) RemoveSection(sec *Section) bool {
	if sec.State == Unsaved {
		return true
	}
	sec.State = PendingDelete
	return false
}

// Commit persists all staged changes and returns the refreshed section.
// Committing a tombstoned section deletes it and returns the zero Section.
func (svc *service) Commit(ctx context.Context, sec *Section) (Section, error) {
	switch sec.State {
	case PendingDelete:
		if err := svc.repo.DeleteSection(ctx, sec.ID); err != nil {
			return Section{}, err
		}
		return Section{}, nil
	case Unsaved:
		created, err := svc.repo.CreateSection(ctx, *sec)
		if err != nil {
			return Section{}, err
		}
		// re-home staged entries onto the assigned section ID
		for i := range sec.Tests {
			sec.Tests[i].SectionID = created.ID
		}
		sec.ID = created.ID
	case PendingUpdate:
		if _, err := svc.repo.UpdateSection(ctx, *sec); err != nil {
			return Section{}, err
		}
	}

	for _, st := range sec.Tests {
		var err error
		switch st.State {
		case Unsaved:
			_, err = svc.repo.CreateSectionTest(ctx, st)
		case PendingUpdate:
			_, err = svc.repo.UpdateSectionTest(ctx, st)
		case PendingDelete:
			err = svc.repo.DeleteSectionTest(ctx, st.ID)
		}
		if err != nil {
			return Section{}, err
		}
	}

	return svc.repo.GetSection(ctx, sec.ID)
}

// CanDeleteTest asks the store whether removing the test is allowed; a
// negative answer carries a user-facing reason, not an error.
func (svc *service) CanDeleteTest(ctx context.Context, courseID, testID string) (bool, string, error) {
	has, err := svc.repo.HasTestAttempts(ctx, courseID, testID)
	if err != nil {
		return false, "", err
	}
	if has {
		return false, reasonTestHasAttempts, nil
	}
	return true, "", nil
}

// CanDeleteSection authorizes section deletion before any confirmation UI is
// shown; a negative answer short-circuits the flow entirely.
func (svc *service) CanDeleteSection(ctx context.Context, sectionID string) (bool, string, error) {
	has, err := svc.repo.HasSectionAttempts(ctx, sectionID)
	if err != nil {
		return false, "", err
	}
	if has {
		return false, reasonSectionHasAttempts, nil
	}
	return true, "", nil
}

// renumber reassigns dense 1..N positions over the active entries, marking
// shifted persisted entries for update.
func renumber(sec *Section) {
	pos := 0
	for i := range sec.Tests {
		if sec.Tests[i].State == PendingDelete {
			continue
		}
		pos++
		if sec.Tests[i].Position != pos {
			sec.Tests[i].Position = pos
			sec.Tests[i].State = sec.Tests[i].State.markUpdated()
		}
	}
}
