package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/prepdesk/backend/core/section"
)

type sectionRepository struct {
	db *sectionTable
}

var _ section.Repository = (*sectionRepository)(nil) // interface compliance check

func NewSectionRepository(db *DB) *sectionRepository {
	return &sectionRepository{db: db.section}
}

// get rebuilds a section with its persisted entries in position order.
// Caller holds the lock.
func (repo *sectionRepository) get(id string) (section.Section, bool) {
	stored, ok := repo.db.sections[id]
	if !ok {
		return section.Section{}, false
	}
	sec := *stored
	sec.State = section.Saved
	sec.Tests = nil
	for _, st := range repo.db.tests {
		if st.SectionID == id {
			entry := *st
			entry.State = section.Saved
			sec.Tests = append(sec.Tests, entry)
		}
	}
	sort.Slice(sec.Tests, func(i, j int) bool { return sec.Tests[i].Position < sec.Tests[j].Position })
	return sec, true
}

func (repo *sectionRepository) GetSection(_ context.Context, id string) (section.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sec, ok := repo.get(id); ok {
		return sec, nil
	}
	return section.Section{}, section.ErrNotFound
}

func (repo *sectionRepository) QuerySectionsByCourse(_ context.Context, courseID string) ([]section.Section, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	secs := make([]section.Section, 0)
	for id, stored := range repo.db.sections {
		if stored.CourseID != courseID {
			continue
		}
		if sec, ok := repo.get(id); ok {
			secs = append(secs, sec)
		}
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].Name < secs[j].Name })
	return secs, nil
}

func (repo *sectionRepository) FindAssignment(_ context.Context, courseID, testID string) (section.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.db.tests {
		if st.TestID != testID {
			continue
		}
		sec, ok := repo.db.sections[st.SectionID]
		if !ok || sec.CourseID != courseID {
			continue
		}
		return section.Assignment{
			TestID:      testID,
			ModuleID:    sec.ModuleID,
			ModuleName:  sec.ModuleName,
			SectionID:   sec.ID,
			SectionName: sec.Name,
		}, nil
	}
	return section.Assignment{}, section.ErrNoAssignment
}

func (repo *sectionRepository) CreateSection(_ context.Context, sec section.Section) (section.Section, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sec.ID = uuid.New().String()
	sec.State = section.Saved
	sec.Tests = nil
	repo.db.sections[sec.ID] = &sec
	return sec, nil
}

func (repo *sectionRepository) UpdateSection(_ context.Context, sec section.Section) (section.Section, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.sections[sec.ID]
	if !ok {
		return section.Section{}, section.ErrNotFound
	}
	stored.Name = sec.Name
	stored.Description = sec.Description
	stored.ModuleID = sec.ModuleID
	stored.ModuleName = sec.ModuleName
	return *stored, nil
}

func (repo *sectionRepository) DeleteSection(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.sections, id)
	for entryID, st := range repo.db.tests {
		if st.SectionID == id {
			delete(repo.db.tests, entryID)
		}
	}
	return nil
}

func (repo *sectionRepository) CreateSectionTest(_ context.Context, st section.SectionTest) (section.SectionTest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	st.ID = uuid.New().String()
	st.State = section.Saved
	repo.db.tests[st.ID] = &st
	return st, nil
}

func (repo *sectionRepository) UpdateSectionTest(_ context.Context, st section.SectionTest) (section.SectionTest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.tests[st.ID]
	if !ok {
		return section.SectionTest{}, section.ErrTestNotFound
	}
	stored.Position = st.Position
	stored.Kind = st.Kind
	stored.SectionID = st.SectionID
	return *stored, nil
}

func (repo *sectionRepository) DeleteSectionTest(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.tests, id)
	return nil
}

func (repo *sectionRepository) HasTestAttempts(_ context.Context, courseID, testID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.attempts {
		if a.courseID == courseID && a.testID == testID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *sectionRepository) HasSectionAttempts(_ context.Context, sectionID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.attempts {
		if a.sectionID == sectionID {
			return true, nil
		}
	}
	return false, nil
}

// RecordAttempt seeds an attempt row; tests use it to exercise the deletion
// eligibility checks.
func (repo *sectionRepository) RecordAttempt(courseID, sectionID, testID string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.attempts = append(repo.db.attempts, attempt{courseID: courseID, sectionID: sectionID, testID: testID})
}
