package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/backend/core/collab"
	"github.com/prepdesk/backend/core/section"
	"github.com/prepdesk/backend/core/testconfig"
	"github.com/prepdesk/backend/core/user"
	"github.com/prepdesk/backend/core/visibility"
	dirsvc "github.com/prepdesk/backend/services/directory"
	emailsvc "github.com/prepdesk/backend/services/email"
	inmemdb "github.com/prepdesk/backend/storage/database/inmem"
)

var testCtx = context.Background()

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testEnv struct {
	server Server

	usrSvc        user.Service
	sectionSvc    section.Service
	configSvc     testconfig.Service
	visibilitySvc visibility.Service
	collabSvc     collab.Service

	usrRepo        user.Repository
	sectionRepo    section.Repository
	visibilityRepo visibility.Repository
	collabRepo     collab.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("newTestEnv() failed: %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock()

	usrRepo := inmemdb.NewUserRepository(db)
	sectionRepo := inmemdb.NewSectionRepository(db)
	configRepo := inmemdb.NewConfigRepository(db)
	visibilityRepo := inmemdb.NewVisibilityRepository(db)
	collabRepo := inmemdb.NewCollabRepository(db)

	env := &testEnv{
		usrRepo:        usrRepo,
		sectionRepo:    sectionRepo,
		visibilityRepo: visibilityRepo,
		collabRepo:     collabRepo,
	}
	env.usrSvc = user.NewServiceMock(usrRepo, mailSvc)
	env.sectionSvc = section.NewService(sectionRepo)
	env.configSvc = testconfig.NewService(configRepo)
	env.visibilitySvc = visibility.NewService(visibilityRepo)
	env.collabSvc = collab.NewServiceMock(collabRepo, dirsvc.NewUserDirectory(env.usrSvc), mailSvc)

	env.server = NewServer(&Options{
		Address:        "localhost:0",
		DisableReqLogs: true,
		UserSvc:        env.usrSvc,
		SectionSvc:     env.sectionSvc,
		ConfigSvc:      env.configSvc,
		VisibilitySvc:  env.visibilitySvc,
		CollabSvc:      env.collabSvc,
		Logger:         testLogger{},
	})
	return env
}

// Seeding hooks exposed by the in-memory repositories.
type (
	attemptSeeder interface {
		RecordAttempt(courseID, sectionID, testID string)
	}
	enrollSeeder interface {
		Enroll(courseID string, details visibility.BatchDetails)
	}
	tripSeeder interface {
		AddTrip(t collab.Trip) collab.Trip
	}
)

// testLogger swallows output; API tests assert on responses, not logs.
type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func (env *testEnv) createUser(
	t *testing.T,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) createOwner(t *testing.T, name, uname string) user.User {
	t.Helper()
	return env.createUser(t, name, uname, uname+"@prepdesk.io", "", user.OwnerRoles, true)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %s; wantData %s", rec.Body.Bytes(), tt.wantData)
	}
}
