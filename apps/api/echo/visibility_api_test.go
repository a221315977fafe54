package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepdesk/backend/core/visibility"
)

func Test_visibilityApi(t *testing.T) {
	env := newTestEnv(t)

	owner := env.createOwner(t, "Owner", "owner1")
	token := getToken(t, owner)

	do := func(t *testing.T, method, path string, body []byte, wantCode int) []byte {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s code = %v; want %v; body %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return rec.Body.Bytes()
	}

	// a course without enrollment is a distinct empty state, not an error
	body := do(t, http.MethodGet, "/v1/test-visibility/course-1/test-1", nil, http.StatusOK)
	var resp VisibilityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if !resp.NoEnrollment {
		t.Error("expected no_enrollment for a course without enrollment")
	}

	// saving is gated on the same precondition; without enrollment it is a
	// client error, not a server one
	unenrolled := visibility.Rule{
		CourseID: "course-1", TestID: "test-1", BatchID: "batch-1",
		IncludeGroups: []string{"g1"},
	}
	do(t, http.MethodPost, "/v1/test-visibility/create", marchallObj(t, unenrolled), http.StatusNotFound)

	env.visibilityRepo.(enrollSeeder).Enroll("course-1", visibility.BatchDetails{
		BatchID: "batch-1",
		Groups:  []visibility.Group{{ID: "g1", Name: "Morning"}, {ID: "g2", Name: "Evening"}},
		Candidates: []visibility.Candidate{
			{ID: "c1", Name: "Asha", Email: "asha@prepdesk.io"},
			{ID: "c2", Name: "Binta"},
		},
	})

	// enrolled course with no rule yet: roster plus an empty unpersisted rule
	body = do(t, http.MethodGet, "/v1/test-visibility/course-1/test-1", nil, http.StatusOK)
	resp = VisibilityResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	if resp.NoEnrollment || resp.Batch == nil || resp.Rule == nil {
		t.Fatalf("unexpected response: %s", body)
	}
	if resp.Rule.ID != "" || resp.Rule.BatchID != "batch-1" {
		t.Errorf("rule = %+v; want unpersisted rule bound to batch-1", resp.Rule)
	}
	if len(resp.Batch.Groups) != 2 || len(resp.Batch.Candidates) != 2 {
		t.Errorf("roster = %+v; want 2 groups and 2 candidates", resp.Batch)
	}

	// mixing group and candidate targeting is rejected
	bad := visibility.Rule{
		CourseID: "course-1", TestID: "test-1", BatchID: "batch-1",
		IncludeGroups: []string{"g1"}, IncludeCandidates: []string{"c1"},
	}
	do(t, http.MethodPost, "/v1/test-visibility/create", marchallObj(t, bad), http.StatusBadRequest)

	// create
	rule := visibility.Rule{
		CourseID: "course-1", TestID: "test-1", BatchID: "batch-1",
		ExcludeGroups: []string{"g2"},
	}
	body = do(t, http.MethodPost, "/v1/test-visibility/create", marchallObj(t, rule), http.StatusCreated)
	if err := json.Unmarshal(body, &rule); err != nil {
		t.Fatalf("unmarshalling rule failed: %v", err)
	}
	if rule.ID == "" {
		t.Fatal("created rule has no id")
	}

	// update
	rule.ExcludeGroups = nil
	rule.IncludeGroups = []string{"g1"}
	body = do(t, http.MethodPut, "/v1/test-visibility/update/"+rule.ID, marchallObj(t, rule), http.StatusOK)
	if err := json.Unmarshal(body, &rule); err != nil {
		t.Fatalf("unmarshalling rule failed: %v", err)
	}
	if len(rule.IncludeGroups) != 1 {
		t.Errorf("rule = %+v; want include_groups [g1]", rule)
	}

	// roster endpoints
	do(t, http.MethodGet, "/v1/enrollments/course/course-1", nil, http.StatusOK)
	body = do(t, http.MethodGet, "/v1/batches/batch-1/details", nil, http.StatusOK)
	var details visibility.BatchDetails
	if err := json.Unmarshal(body, &details); err != nil {
		t.Fatalf("unmarshalling batch details failed: %v", err)
	}
	if details.BatchID != "batch-1" || len(details.Groups) != 2 {
		t.Errorf("details = %+v; want batch-1 roster", details)
	}
}
