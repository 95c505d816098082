package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-portal/internal/db/dbtest"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

type fakeUsers map[string]Principal

func (f fakeUsers) Authenticate(_ context.Context, username, password string) (Principal, error) {
	p, ok := f[username]
	if !ok || password != username+"-pw" {
		return Principal{}, ErrInvalidCredentials
	}
	return p, nil
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rbac.SubjectFromContext(r.Context()) + "|" + rbac.RoleFromContext(r.Context())))
	})
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret")
	tok, err := a.IssueJWT("s1", rbac.RoleStudent)
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "s1", c.Sub)
	assert.Equal(t, rbac.RoleStudent, c.Role)

	_, err = NewAuthService("other").Parse(tok)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	a := NewAuthService("secret")
	a.ttl = -time.Minute
	tok, err := a.IssueJWT("s1", rbac.RoleStudent)
	require.NoError(t, err)
	_, err = a.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestLoginHandler(t *testing.T) {
	a := NewAuthService("secret")
	h := LoginHandler(a, fakeUsers{"alice": {ID: "u-alice", Role: rbac.RoleFaculty}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"alice-pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	c, err := a.Parse(body["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "u-alice", c.Sub)
	assert.Equal(t, rbac.RoleFaculty, c.Role)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret")
	h := JWTMiddleware(a)(echoIdentity())
	tok, _ := a.IssueJWT("s1", rbac.RoleStudent)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1|student", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttachRoleFromDB(t *testing.T) {
	dbh := dbtest.Open(t)
	_, err := dbh.Exec(`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ('u1','u1','x','faculty',0)`)
	require.NoError(t, err)

	run := func(fallback bool, sub, role string) *httptest.ResponseRecorder {
		h := AttachRoleFromDB(dbh, fallback, "root")(echoIdentity())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(rbac.WithRole(rbac.WithSubject(req.Context(), sub), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := run(false, "u1", rbac.RoleStudent)
	assert.Equal(t, "u1|faculty", rec.Body.String(), "stored role wins")

	rec = run(true, "ghost", rbac.RoleStudent)
	assert.Equal(t, "ghost|student", rec.Body.String())

	rec = run(false, "ghost", rbac.RoleStudent)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = run(false, "root", rbac.RoleAdmin)
	assert.Equal(t, "root|admin", rec.Body.String(), "bootstrap admin has no row")
}
