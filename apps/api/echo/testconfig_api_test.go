package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepdesk/backend/core/testconfig"
)

func Test_testConfigApi(t *testing.T) {
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

	// a never-configured pair answers with the defaults, unpersisted
	body := do(t, http.MethodGet, "/v1/test-configuration/course-1/test-1", nil, http.StatusOK)
	var cfg testconfig.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("unmarshalling config failed: %v", err)
	}
	if cfg.ID != "" {
		t.Errorf("default config has id %q; want none", cfg.ID)
	}
	if cfg.DurationMinutes != 60 || cfg.MaxAttempts != 1 || !cfg.ResumeAllowed || cfg.PassPercentage != 40 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}

	// invalid payloads are rejected
	bad := cfg
	bad.DurationMinutes = 0
	do(t, http.MethodPost, "/v1/test-configuration/create", marchallObj(t, bad), http.StatusBadRequest)

	// create
	cfg.DurationMinutes = 90
	cfg.IsProctored = true
	cfg.IsPreparationTest = true // cleared on save, proctored wins
	body = do(t, http.MethodPost, "/v1/test-configuration/create", marchallObj(t, cfg), http.StatusCreated)
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("unmarshalling config failed: %v", err)
	}
	if cfg.ID == "" {
		t.Fatal("created config has no id")
	}
	if cfg.IsPreparationTest {
		t.Error("proctored config kept is_preparation_test")
	}
	if cfg.CreatedBy != owner.ID || cfg.LastUpdatedBy != owner.ID {
		t.Errorf("attribution = %q/%q; want %q", cfg.CreatedBy, cfg.LastUpdatedBy, owner.ID)
	}

	// update
	cfg.PassPercentage = 50
	body = do(t, http.MethodPut, "/v1/test-configuration/update/"+cfg.ID, marchallObj(t, cfg), http.StatusOK)
	if err := json.Unmarshal(body, &cfg); err != nil {
		t.Fatalf("unmarshalling config failed: %v", err)
	}
	if cfg.PassPercentage != 50 {
		t.Errorf("pass_percentage = %d; want 50", cfg.PassPercentage)
	}

	// the stored configuration is now what load answers
	body = do(t, http.MethodGet, "/v1/test-configuration/course-1/test-1", nil, http.StatusOK)
	var got testconfig.Config
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshalling config failed: %v", err)
	}
	if got.ID != cfg.ID || got.PassPercentage != 50 || got.DurationMinutes != 90 {
		t.Errorf("loaded config = %+v; want persisted values", got)
	}
}
