package visibility

import (
	"errors"

	"github.com/prepdesk/backend/core"
)

var (
	errMixedTargeting  = errors.New("groups and candidates cannot be targeted at the same time")
	errMixedDirections = errors.New("include and exclude lists cannot both be set")
)

// TargetingMode says which family of lists a rule targets.
type TargetingMode string

const (
	TargetNone       TargetingMode = "none"
	TargetGroups     TargetingMode = "groups"
	TargetCandidates TargetingMode = "candidates"
)

// Rule restricts who sees a test within a course. At most one of the two
// targeting families (groups, candidates) may carry entries, and within a
// family only one direction (include, exclude) may be non-empty.
type Rule struct {
	ID       string `json:"id,omitempty"`
	CourseID string `json:"course_id" validate:"required"`
	TestID   string `json:"test_id" validate:"required"`
	BatchID  string `json:"batch_id" validate:"required"`

	IncludeGroups     []string `json:"include_groups"`
	ExcludeGroups     []string `json:"exclude_groups"`
	IncludeCandidates []string `json:"include_candidates"`
	ExcludeCandidates []string `json:"exclude_candidates"`
}

func (r *Rule) IsPersisted() bool {
	return r.ID != ""
}

func (r *Rule) hasGroups() bool {
	return len(r.IncludeGroups) > 0 || len(r.ExcludeGroups) > 0
}

func (r *Rule) hasCandidates() bool {
	return len(r.IncludeCandidates) > 0 || len(r.ExcludeCandidates) > 0
}

// Mode reports which family the rule currently targets.
func (r *Rule) Mode() TargetingMode {
	switch {
	case r.hasCandidates():
		return TargetCandidates
	case r.hasGroups():
		return TargetGroups
	default:
		return TargetNone
	}
}

// Locking helpers drive which lists an editor may touch; a locked list must
// be emptied (by clearing its counterpart) before it can be edited again.

func (r *Rule) GroupsLocked() bool {
	return r.hasCandidates()
}

func (r *Rule) CandidatesLocked() bool {
	return r.hasGroups()
}

func (r *Rule) IncludeGroupsLocked() bool {
	return r.GroupsLocked() || len(r.ExcludeGroups) > 0
}

func (r *Rule) ExcludeGroupsLocked() bool {
	return r.GroupsLocked() || len(r.IncludeGroups) > 0
}

func (r *Rule) IncludeCandidatesLocked() bool {
	return r.CandidatesLocked() || len(r.ExcludeCandidates) > 0
}

func (r *Rule) ExcludeCandidatesLocked() bool {
	return r.CandidatesLocked() || len(r.IncludeCandidates) > 0
}

func (r *Rule) Validate() error {
	r.CourseID = core.CleanString(r.CourseID)
	r.TestID = core.CleanString(r.TestID)
	r.BatchID = core.CleanString(r.BatchID)
	if err := core.Validate.Struct(r); err != nil {
		return core.NewValidationError(err)
	}
	if r.hasGroups() && r.hasCandidates() {
		return core.NewValidationError(errMixedTargeting)
	}
	if (len(r.IncludeGroups) > 0 && len(r.ExcludeGroups) > 0) ||
		(len(r.IncludeCandidates) > 0 && len(r.ExcludeCandidates) > 0) {
		return core.NewValidationError(errMixedDirections)
	}
	return nil
}

// Group is a named cohort within a batch.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Candidate is a single enrolled student of a batch.
type Candidate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// BatchDetails is everything an editor needs to pick targets from.
type BatchDetails struct {
	BatchID    string      `json:"batch_id"`
	Groups     []Group     `json:"groups"`
	Candidates []Candidate `json:"candidates"`
}

// EditorState is the load result: the resolved batch roster plus the
// existing rule, defaulted to an empty unpersisted rule when absent.
type EditorState struct {
	Batch BatchDetails `json:"batch"`
	Rule  Rule         `json:"rule"`
}
