package section

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EntityState tracks where a staged entity stands relative to the store.
// Transitions are explicit; there are no independent dirty flags to drift
// into invalid combinations.
type EntityState int

const (
	// Unsaved: created locally, never persisted. Removal drops it outright.
	Unsaved EntityState = iota
	// Saved: in sync with the store.
	Saved
	// PendingUpdate: persisted, carries local changes not yet committed.
	PendingUpdate
	// PendingDelete: persisted, tombstoned locally until committed.
	PendingDelete
)

func (s EntityState) String() string {
	switch s {
	case Unsaved:
		return "unsaved"
	case Saved:
		return "saved"
	case PendingUpdate:
		return "pending-update"
	case PendingDelete:
		return "pending-delete"
	default:
		return fmt.Sprintf("EntityState(%d)", int(s))
	}
}

func (s EntityState) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

func (s *EntityState) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	switch str {
	case "unsaved", "":
		*s = Unsaved
	case "saved":
		*s = Saved
	case "pending-update":
		*s = PendingUpdate
	case "pending-delete":
		*s = PendingDelete
	default:
		return fmt.Errorf("unknown entity state %q", str)
	}
	return nil
}

// markUpdated records a local change. Unsaved entities stay unsaved (they will
// be created with the change included) and tombstones stay tombstones.
func (s EntityState) markUpdated() EntityState {
	if s == Saved {
		return PendingUpdate
	}
	return s
}

// TestKind distinguishes fixed-question tests from randomized ones.
type TestKind string

const (
	KindNormal TestKind = "normal"
	KindRandom TestKind = "random"
)

// SectionTest places a test inside a section at a 1-based position.
// Positions form a dense 1..N sequence over non-deleted entries.
type SectionTest struct {
	ID        string      `json:"id"` // "local-test-..." until committed
	SectionID string      `json:"section_id"`
	TestID    string      `json:"test_id"`
	Kind      TestKind    `json:"test_type"`
	Position  int         `json:"order"`
	State     EntityState `json:"state"`
}

// IsLocal reports whether the entry has never been persisted.
func (st SectionTest) IsLocal() bool {
	return strings.HasPrefix(st.ID, "local-")
}

// Section is an ordered container of tests within a course module.
type Section struct {
	ID          string        `json:"id"`
	CourseID    string        `json:"course_id"`
	ModuleID    string        `json:"module_id"`
	ModuleName  string        `json:"module_name,omitempty"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Tests       []SectionTest `json:"tests"`
	State       EntityState   `json:"state"`
}

// ActiveTests returns the non-deleted entries in position order.
func (s *Section) ActiveTests() []SectionTest {
	active := make([]SectionTest, 0, len(s.Tests))
	for _, st := range s.Tests {
		if st.State != PendingDelete {
			active = append(active, st)
		}
	}
	return active
}

func (s *Section) findTest(entryID string) (int, bool) {
	for i, st := range s.Tests {
		if st.ID == entryID {
			return i, true
		}
	}
	return 0, false
}

// NewSection creates a purely-local section; it is dropped (not tombstoned) if
// removed before the first commit.
func NewSection(courseID, moduleID, name, description string) Section {
	return Section{
		ID:          localSectionID(),
		CourseID:    courseID,
		ModuleID:    moduleID,
		Name:        name,
		Description: description,
		State:       Unsaved,
	}
}

// Assignment locates a test's active placement within a course.
type Assignment struct {
	TestID      string `json:"test_id"`
	ModuleID    string `json:"module_id"`
	ModuleName  string `json:"module_name"`
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
}

// DuplicateAssignmentError reports that a test is already assigned elsewhere
// in the course, naming the conflicting module/section.
type DuplicateAssignmentError struct {
	TestID      string
	ModuleName  string
	SectionName string
}

func (err *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf(
		"this test is already assigned to section %q of module %q", err.SectionName, err.ModuleName)
}

// Local placeholder IDs keep staged entries addressable before the store
// assigns real identifiers.
func localTestID() string    { return "local-test-" + uuid.New().String() }
func localSectionID() string { return "local-section-" + uuid.New().String() }
