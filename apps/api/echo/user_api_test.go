package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/prepdesk/backend/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := newTestEnv(t)

	env.createUser(t, "Awe", "awe", "awe@prepdesk.io", "LolC@t123", user.OwnerRoles, true)
	env.createUser(t, "Gone", "gone", "gone@prepdesk.io", "LolC@t123", user.OwnerRoles, false)

	tests := []httpTest{
		{name: "empty body", wantCode: http.StatusBadRequest},
		{name: "unknown user", body: marchallObj(t, LoginRequest{Username: "lol", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"error": "authentication failed"})},
		{name: "wrong password", body: marchallObj(t, LoginRequest{Username: "awe", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"error": "authentication failed"})},
		{name: "deactivated account", body: marchallObj(t, LoginRequest{Username: "gone", Password: "LolC@t123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, map[string]string{"error": "account deactivated"})},
		{name: "login by username", body: marchallObj(t, LoginRequest{Username: "awe", Password: "LolC@t123"}), wantCode: http.StatusOK},
		{name: "login by email", body: marchallObj(t, LoginRequest{Username: "awe@prepdesk.io", Password: "LolC@t123"}), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			} else if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling LoginResponse failed: %v", err)
				}
				if resp.Token == "" {
					t.Error("failed! empty token")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	env := newTestEnv(t)

	admin := env.createUser(t, "Admin", "admin1", "admin@prepdesk.io", "", user.AdminRoles, true)
	owner := env.createOwner(t, "Owner", "owner1")

	adminToken := getToken(t, admin)
	ownerToken := getToken(t, owner)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized},
		{name: "admin required", token: ownerToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, map[string]string{"error": "permission denied"})},
		{name: "get all", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, []user.User{admin, owner})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/users", tt.token)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	env := newTestEnv(t)

	admin := env.createUser(t, "Admin", "admin1", "admin@prepdesk.io", "", user.AdminRoles, true)
	owner := env.createOwner(t, "Owner", "owner1")
	other := env.createOwner(t, "Other", "other1")

	adminToken := getToken(t, admin)
	ownerToken := getToken(t, owner)

	tests := []httpTest{
		{name: "retrieve self", method: http.MethodGet, path: "/v1/users/" + owner.ID, token: ownerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, owner)},
		{name: "retrieve other: not found", method: http.MethodGet, path: "/v1/users/" + other.ID, token: ownerToken,
			wantCode: http.StatusNotFound},
		{name: "admin retrieves other", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{name: "non-admin cannot set roles", method: http.MethodPut, path: "/v1/users/" + owner.ID, token: ownerToken,
			body:     marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}}),
			wantCode: http.StatusForbidden},
		{name: "non-admin cannot delete", method: http.MethodDelete, path: "/v1/users/" + owner.ID, token: ownerToken,
			wantCode: http.StatusForbidden},
		{name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden},
		{name: "admin deletes other", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
