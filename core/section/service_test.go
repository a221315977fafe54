package section

import (
	"context"
	"fmt"
	"testing"
)

type fakeRepo struct {
	sections    map[string]*Section
	assignments map[string]Assignment // testID -> active placement in course
	attempts    map[string]bool       // testID / sectionID -> has recorded attempts

	createdTests []SectionTest
	updatedTests []SectionTest
	deletedTests []string
	idSeq        int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sections:    make(map[string]*Section),
		assignments: make(map[string]Assignment),
		attempts:    make(map[string]bool),
	}
}

func (r *fakeRepo) GetSection(_ context.Context, id string) (Section, error) {
	if sec, ok := r.sections[id]; ok {
		return *sec, nil
	}
	return Section{}, ErrNotFound
}

func (r *fakeRepo) QuerySectionsByCourse(_ context.Context, courseID string) ([]Section, error) {
	var secs []Section
	for _, sec := range r.sections {
		if sec.CourseID == courseID {
			secs = append(secs, *sec)
		}
	}
	return secs, nil
}

func (r *fakeRepo) FindAssignment(_ context.Context, _, testID string) (Assignment, error) {
	if asg, ok := r.assignments[testID]; ok {
		return asg, nil
	}
	return Assignment{}, ErrNoAssignment
}

func (r *fakeRepo) CreateSection(_ context.Context, sec Section) (Section, error) {
	r.idSeq++
	sec.ID = fmt.Sprintf("sec-%d", r.idSeq)
	sec.State = Saved
	r.sections[sec.ID] = &sec
	return sec, nil
}

func (r *fakeRepo) UpdateSection(_ context.Context, sec Section) (Section, error) {
	r.sections[sec.ID] = &sec
	return sec, nil
}

func (r *fakeRepo) DeleteSection(_ context.Context, id string) error {
	delete(r.sections, id)
	return nil
}

func (r *fakeRepo) CreateSectionTest(_ context.Context, st SectionTest) (SectionTest, error) {
	r.idSeq++
	st.ID = fmt.Sprintf("st-%d", r.idSeq)
	st.State = Saved
	r.createdTests = append(r.createdTests, st)
	if sec, ok := r.sections[st.SectionID]; ok {
		sec.Tests = append(sec.Tests, st)
	}
	return st, nil
}

func (r *fakeRepo) UpdateSectionTest(_ context.Context, st SectionTest) (SectionTest, error) {
	r.updatedTests = append(r.updatedTests, st)
	if sec, ok := r.sections[st.SectionID]; ok {
		for i := range sec.Tests {
			if sec.Tests[i].ID == st.ID {
				st.State = Saved
				sec.Tests[i] = st
			}
		}
	}
	return st, nil
}

func (r *fakeRepo) DeleteSectionTest(_ context.Context, id string) error {
	r.deletedTests = append(r.deletedTests, id)
	for _, sec := range r.sections {
		for i := range sec.Tests {
			if sec.Tests[i].ID == id {
				sec.Tests = append(sec.Tests[:i], sec.Tests[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *fakeRepo) HasTestAttempts(_ context.Context, _, testID string) (bool, error) {
	return r.attempts[testID], nil
}

func (r *fakeRepo) HasSectionAttempts(_ context.Context, sectionID string) (bool, error) {
	return r.attempts[sectionID], nil
}

func savedSection(entries ...string) Section {
	sec := Section{ID: "sec-a", CourseID: "course-1", ModuleID: "mod-1", Name: "Mechanics", State: Saved}
	for i, testID := range entries {
		sec.Tests = append(sec.Tests, SectionTest{
			ID:        "st-" + testID,
			SectionID: sec.ID,
			TestID:    testID,
			Kind:      KindNormal,
			Position:  i + 1,
			State:     Saved,
		})
	}
	return sec
}

func assertDense(t *testing.T, sec *Section) {
	t.Helper()
	active := sec.ActiveTests()
	seen := make(map[int]bool, len(active))
	for _, st := range active {
		seen[st.Position] = true
	}
	for want := 1; want <= len(active); want++ {
		if !seen[want] {
			t.Fatalf("positions not dense: missing %d in %v", want, active)
		}
	}
	if len(seen) != len(active) {
		t.Fatalf("positions not unique: %v", active)
	}
}

func TestAddTest(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.assignments["taken"] = Assignment{
		TestID: "taken", ModuleID: "mod-2", ModuleName: "Optics", SectionID: "sec-b", SectionName: "Waves",
	}
	svc := NewService(repo)

	sec := savedSection("t1", "t2")

	if err := svc.AddTest(ctx, &sec, "t3", KindRandom); err != nil {
		t.Fatalf("AddTest() error = %v", err)
	}
	added := sec.Tests[len(sec.Tests)-1]
	if added.State != Unsaved {
		t.Errorf("added entry state = %v, want Unsaved", added.State)
	}
	if added.Position != 3 {
		t.Errorf("added entry position = %d, want 3", added.Position)
	}
	if !added.IsLocal() {
		t.Errorf("added entry ID = %q, want local placeholder", added.ID)
	}
	assertDense(t, &sec)

	// duplicate in another section of the course
	before := len(sec.Tests)
	err := svc.AddTest(ctx, &sec, "taken", KindNormal)
	dup, ok := err.(*DuplicateAssignmentError)
	if !ok {
		t.Fatalf("AddTest() error = %v, want *DuplicateAssignmentError", err)
	}
	if dup.ModuleName != "Optics" || dup.SectionName != "Waves" {
		t.Errorf("conflict location = %q/%q, want Optics/Waves", dup.ModuleName, dup.SectionName)
	}
	if len(sec.Tests) != before {
		t.Errorf("section mutated on duplicate add: %d entries, want %d", len(sec.Tests), before)
	}

	// duplicate staged locally
	if err := svc.AddTest(ctx, &sec, "t3", KindNormal); err == nil {
		t.Error("AddTest() accepted a locally staged duplicate")
	}
}

func TestRemoveTest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeRepo())

	t.Run("unsaved entry is dropped outright", func(t *testing.T) {
		sec := savedSection("t1")
		if err := svc.AddTest(ctx, &sec, "t2", KindNormal); err != nil {
			t.Fatal(err)
		}
		entryID := sec.Tests[1].ID

		if err := svc.RemoveTest(&sec, entryID); err != nil {
			t.Fatalf("RemoveTest() error = %v", err)
		}
		if len(sec.Tests) != 1 {
			t.Errorf("len(Tests) = %d, want 1 (no tombstone for unsaved)", len(sec.Tests))
		}
		assertDense(t, &sec)
	})

	t.Run("persisted entry is tombstoned", func(t *testing.T) {
		sec := savedSection("t1", "t2")

		if err := svc.RemoveTest(&sec, "st-t1"); err != nil {
			t.Fatalf("RemoveTest() error = %v", err)
		}
		if len(sec.Tests) != 2 {
			t.Errorf("len(Tests) = %d, want 2 (tombstone retained)", len(sec.Tests))
		}
		if sec.Tests[0].State != PendingDelete {
			t.Errorf("removed entry state = %v, want PendingDelete", sec.Tests[0].State)
		}
		if got := len(sec.ActiveTests()); got != 1 {
			t.Errorf("active count = %d, want 1", got)
		}
		assertDense(t, &sec)
	})

	t.Run("only shifted survivors are marked for update", func(t *testing.T) {
		sec := savedSection("a", "b", "c")

		if err := svc.RemoveTest(&sec, "st-b"); err != nil {
			t.Fatalf("RemoveTest() error = %v", err)
		}

		active := sec.ActiveTests()
		if len(active) != 2 || active[0].TestID != "a" || active[1].TestID != "c" {
			t.Fatalf("active = %v, want [a c]", active)
		}
		if active[0].Position != 1 || active[0].State != Saved {
			t.Errorf("a = pos %d state %v, want pos 1 state Saved", active[0].Position, active[0].State)
		}
		if active[1].Position != 2 || active[1].State != PendingUpdate {
			t.Errorf("c = pos %d state %v, want pos 2 state PendingUpdate", active[1].Position, active[1].State)
		}
	})
}

func TestReorder(t *testing.T) {
	svc := NewService(newFakeRepo())
	sec := savedSection("a", "b", "c")

	if err := svc.Reorder(&sec, []string{"st-c", "st-a", "st-b"}); err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	assertDense(t, &sec)
	for _, st := range sec.Tests {
		if st.State != PendingUpdate {
			t.Errorf("%s state = %v, want PendingUpdate", st.TestID, st.State)
		}
	}
	active := sec.ActiveTests()
	order := []string{active[0].TestID, active[1].TestID, active[2].TestID}
	// ActiveTests preserves slice order; check positions instead
	positions := map[string]int{}
	for _, st := range sec.Tests {
		positions[st.TestID] = st.Position
	}
	if positions["c"] != 1 || positions["a"] != 2 || positions["b"] != 3 {
		t.Errorf("positions = %v (slice order %v), want c=1 a=2 b=3", positions, order)
	}

	// invalid permutations
	for _, ids := range [][]string{
		{"st-a"},
		{"st-a", "st-b", "st-b"},
		{"st-a", "st-b", "st-nope"},
	} {
		if err := svc.Reorder(&sec, ids); err == nil {
			t.Errorf("Reorder(%v) accepted an invalid permutation", ids)
		}
	}
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	// persist a section with one entry, stage an add and a removal, commit
	sec, err := repo.CreateSection(ctx, NewSection("course-1", "mod-1", "Algebra", ""))
	if err != nil {
		t.Fatal(err)
	}
	st, err := repo.CreateSectionTest(ctx, SectionTest{SectionID: sec.ID, TestID: "t1", Kind: KindNormal, Position: 1})
	if err != nil {
		t.Fatal(err)
	}
	sec, _ = repo.GetSection(ctx, sec.ID)

	if err := svc.AddTest(ctx, &sec, "t2", KindNormal); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveTest(&sec, st.ID); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Commit(ctx, &sec)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if len(repo.createdTests) != 2 { // t1 (setup) + t2
		t.Errorf("created %d entries, want 2", len(repo.createdTests))
	}
	if len(repo.deletedTests) != 1 || repo.deletedTests[0] != st.ID {
		t.Errorf("deleted = %v, want [%s]", repo.deletedTests, st.ID)
	}
	active := got.ActiveTests()
	if len(active) != 1 || active[0].TestID != "t2" {
		t.Fatalf("refreshed active = %v, want [t2]", active)
	}
	if active[0].IsLocal() {
		t.Errorf("committed entry still has local ID %q", active[0].ID)
	}
}

func TestRemoveSection(t *testing.T) {
	svc := NewService(newFakeRepo())

	local := NewSection("course-1", "mod-1", "Draft", "")
	if dropped := svc.RemoveSection(&local); !dropped {
		t.Error("RemoveSection() on unsaved section: dropped = false, want true")
	}

	persisted := savedSection("t1")
	if dropped := svc.RemoveSection(&persisted); dropped {
		t.Error("RemoveSection() on saved section: dropped = true, want tombstone")
	}
	if persisted.State != PendingDelete {
		t.Errorf("state = %v, want PendingDelete", persisted.State)
	}
}

func TestCanDelete(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	repo.attempts["attempted-test"] = true
	repo.attempts["attempted-section"] = true
	svc := NewService(repo)

	ok, reason, err := svc.CanDeleteTest(ctx, "course-1", "fresh-test")
	if err != nil || !ok || reason != "" {
		t.Errorf("CanDeleteTest(fresh) = (%v, %q, %v), want (true, \"\", nil)", ok, reason, err)
	}
	ok, reason, err = svc.CanDeleteTest(ctx, "course-1", "attempted-test")
	if err != nil || ok || reason == "" {
		t.Errorf("CanDeleteTest(attempted) = (%v, %q, %v), want (false, reason, nil)", ok, reason, err)
	}

	ok, reason, err = svc.CanDeleteSection(ctx, "attempted-section")
	if err != nil || ok || reason == "" {
		t.Errorf("CanDeleteSection(attempted) = (%v, %q, %v), want (false, reason, nil)", ok, reason, err)
	}
}
