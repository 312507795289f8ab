package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newAuthMux() *http.ServeMux {
	mux := http.NewServeMux()
	NewHTTPHandler(NewManager()).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeAuthResponse(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestHTTPRegisterMeLogoutFlow(t *testing.T) {
	mux := newAuthMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"alice_01","password":"secret12"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	creds := decodeAuthResponse(t, rec)
	if creds.UserID == "" || creds.SessionToken == "" {
		t.Fatalf("register response = %+v", creds)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/auth/me", "", creds.SessionToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
	}
	var me meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.UserID != creds.UserID || me.Username != "alice_01" {
		t.Fatalf("me = %+v", me)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/auth/logout", "", creds.SessionToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/auth/me", "", creds.SessionToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", rec.Code)
	}
}

func TestHTTPRegisterErrors(t *testing.T) {
	mux := newAuthMux()

	rec := doJSON(t, mux, http.MethodGet, "/api/auth/register", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"alice_01","password":"secret12","extra":true}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"ab","password":"secret12"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid username status = %d", rec.Code)
	}

	doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"taken_01","password":"secret12"}`, "")
	rec = doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"taken_01","password":"secret12"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate username status = %d", rec.Code)
	}
}

func TestHTTPLoginRejectsBadCredentials(t *testing.T) {
	mux := newAuthMux()
	doJSON(t, mux, http.MethodPost, "/api/auth/register", `{"username":"alice_01","password":"secret12"}`, "")

	rec := doJSON(t, mux, http.MethodPost, "/api/auth/login", `{"username":"alice_01","password":"nope-nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}
}

func TestHTTPGuest(t *testing.T) {
	mux := newAuthMux()

	rec := doJSON(t, mux, http.MethodPost, "/api/auth/guest", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("guest status = %d: %s", rec.Code, rec.Body.String())
	}
	creds := decodeAuthResponse(t, rec)
	if creds.UserID == "" || creds.SessionToken == "" {
		t.Fatalf("guest response = %+v", creds)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/auth/me", "", creds.SessionToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var me meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if !strings.HasPrefix(me.Username, "guest_") {
		t.Fatalf("guest username = %q", me.Username)
	}
}
