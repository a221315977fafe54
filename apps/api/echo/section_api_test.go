package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepdesk/backend/core/section"
)

func Test_sectionApi_stagingAndCommit(t *testing.T) {
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

	// stage a brand new section with one test
	sec := section.NewSection("course-1", "module-1", "Mechanics", "")
	body := do(t, http.MethodPost, "/v1/sections/add-test",
		marchallObj(t, AddTestRequest{Section: sec, TestID: "test-1", Kind: section.KindNormal}),
		http.StatusOK)
	if err := json.Unmarshal(body, &sec); err != nil {
		t.Fatalf("unmarshalling staged section failed: %v", err)
	}
	if len(sec.Tests) != 1 || sec.Tests[0].Position != 1 || sec.Tests[0].State != section.Unsaved {
		t.Fatalf("staged entry = %+v; want unsaved at position 1", sec.Tests)
	}

	// staging the same test twice in one section is rejected
	do(t, http.MethodPost, "/v1/sections/add-test",
		marchallObj(t, AddTestRequest{Section: sec, TestID: "test-1"}),
		http.StatusBadRequest)

	// commit persists the section and its entry
	body = do(t, http.MethodPost, "/v1/sections/commit", marchallObj(t, SectionRequest{Section: sec}), http.StatusOK)
	if err := json.Unmarshal(body, &sec); err != nil {
		t.Fatalf("unmarshalling committed section failed: %v", err)
	}
	if sec.Tests[0].IsLocal() {
		t.Errorf("committed entry kept local id %q", sec.Tests[0].ID)
	}
	if sec.State != section.Saved || sec.Tests[0].State != section.Saved {
		t.Errorf("committed section state = %v/%v; want saved", sec.State, sec.Tests[0].State)
	}

	// the committed section is fetchable
	do(t, http.MethodGet, "/v1/sections/"+sec.ID, nil, http.StatusOK)
	do(t, http.MethodGet, "/v1/sections/course/course-1", nil, http.StatusOK)

	// the test is now actively assigned; staging it in a sibling section names the conflict
	sibling := section.NewSection("course-1", "module-1", "Waves", "")
	body = do(t, http.MethodPost, "/v1/sections/add-test",
		marchallObj(t, AddTestRequest{Section: sibling, TestID: "test-1"}),
		http.StatusBadRequest)
	var conflict map[string]interface{}
	if err := json.Unmarshal(body, &conflict); err != nil {
		t.Fatalf("unmarshalling conflict failed: %v", err)
	}
	if conflict["section_name"] != "Mechanics" {
		t.Errorf("conflict section_name = %v; want Mechanics", conflict["section_name"])
	}

	// reorder with a bad permutation is rejected
	do(t, http.MethodPost, "/v1/sections/reorder",
		marchallObj(t, ReorderRequest{Section: sec, OrderedIDs: []string{"nope"}}),
		http.StatusBadRequest)

	// remove-test tombstones the persisted entry
	body = do(t, http.MethodPost, "/v1/sections/remove-test",
		marchallObj(t, RemoveTestRequest{Section: sec, EntryID: sec.Tests[0].ID}),
		http.StatusOK)
	if err := json.Unmarshal(body, &sec); err != nil {
		t.Fatalf("unmarshalling section failed: %v", err)
	}
	if sec.Tests[0].State != section.PendingDelete {
		t.Errorf("removed entry state = %v; want pending-delete", sec.Tests[0].State)
	}
}

func Test_sectionApi_canDelete(t *testing.T) {
	env := newTestEnv(t)

	owner := env.createOwner(t, "Owner", "owner1")
	token := getToken(t, owner)

	sec, err := env.sectionRepo.CreateSection(testCtx, section.Section{
		CourseID: "course-1", ModuleID: "module-1", Name: "Optics",
	})
	if err != nil {
		t.Fatalf("CreateSection() failed: %v", err)
	}
	if _, err := env.sectionRepo.CreateSectionTest(testCtx, section.SectionTest{
		SectionID: sec.ID, TestID: "test-1", Kind: section.KindNormal, Position: 1,
	}); err != nil {
		t.Fatalf("CreateSectionTest() failed: %v", err)
	}
	env.sectionRepo.(attemptSeeder).RecordAttempt("course-1", sec.ID, "test-1")

	tests := []httpTest{
		{name: "test with attempts", path: "/v1/test/test-1/can-delete?courseId=course-1",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, CanDeleteResponse{CanDelete: false, Reason: "This test already has recorded attempts and cannot be removed."})},
		{name: "test without attempts", path: "/v1/test/test-2/can-delete?courseId=course-1",
			wantCode: http.StatusOK, wantData: marchallObj(t, CanDeleteResponse{CanDelete: true})},
		{name: "courseId required", path: "/v1/test/test-1/can-delete", wantCode: http.StatusBadRequest},
		{name: "section with attempts", path: "/v1/section/" + sec.ID + "/can-delete",
			wantCode: http.StatusOK,
			wantData: marchallObj(t, CanDeleteResponse{CanDelete: false, Reason: "This section contains tests with recorded attempts and cannot be deleted."})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
