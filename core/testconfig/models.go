package testconfig

import (
	"time"

	"github.com/prepdesk/backend/core"
)

// Config holds a single test's scheduling, scoring, retake, resume and
// proctoring settings for one course. The empty ID means the config was
// never persisted and the next save must create it.
type Config struct {
	ID       string `json:"id,omitempty"`
	CourseID string `json:"course_id" validate:"required"`
	TestID   string `json:"test_id" validate:"required"`

	StartAt         time.Time `json:"start_at"`
	EndAt           time.Time `json:"end_at"`
	DurationMinutes int       `json:"duration_minutes" validate:"min=1"`

	RetakeAllowed bool `json:"is_retake_allowed"`
	MaxAttempts   int  `json:"max_attempts" validate:"min=1"`
	ResumeAllowed bool `json:"is_resume_allowed"`

	IsProctored       bool `json:"is_proctored"`
	IsPreparationTest bool `json:"is_preparation_test"`

	CorrectMark    float64 `json:"correct_mark" validate:"min=0"`
	NegativeMark   float64 `json:"negative_mark" validate:"min=0"`
	PassPercentage int     `json:"pass_percentage" validate:"min=0,max=100"`

	VideoProctoring bool `json:"video_proctoring"`
	MaxTabSwitches  int  `json:"max_tab_switches" validate:"min=0"`
	ViolationLimit  int  `json:"violation_limit" validate:"min=0"`

	CreatedBy     string    `json:"created_by,omitempty"`
	LastUpdatedBy string    `json:"last_updated_by,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// DefaultConfig returns the settings a test starts with before anything
// was ever saved for it.
func DefaultConfig(courseID, testID string) Config {
	return Config{
		CourseID:        courseID,
		TestID:          testID,
		DurationMinutes: 60,
		MaxAttempts:     1,
		ResumeAllowed:   true,
		CorrectMark:     1,
		NegativeMark:    0,
		PassPercentage:  40,
	}
}

// IsPersisted reports whether the config exists in the store.
func (c *Config) IsPersisted() bool {
	return c.ID != ""
}

// SetMaxAttempts keeps the attempt count consistent with the retake flag:
// no retake means exactly one attempt, allowing retakes needs at least two.
func (c *Config) SetMaxAttempts(n int) {
	if !c.RetakeAllowed || n < 1 {
		n = 1
	}
	if c.RetakeAllowed && n < 2 {
		n = 2
	}
	c.MaxAttempts = n
}

// SetProctored clears the preparation flag when proctoring goes on; the two
// never hold together.
func (c *Config) SetProctored(on bool) {
	c.IsProctored = on
	if on {
		c.IsPreparationTest = false
	}
}

func (c *Config) Validate() error {
	c.CourseID = core.CleanString(c.CourseID)
	c.TestID = core.CleanString(c.TestID)
	if err := core.Validate.Struct(c); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}
