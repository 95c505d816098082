package http_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
	"github.com/mind-engage/mindengage-portal/internal/users"
)

func TestAdminCompliance(t *testing.T) {
	h := newHarness(t)
	h.seed(t, 5)

	res := h.json(t, "root", rbac.RoleAdmin, http.MethodPost, "/api/users/bulk", []users.Row{
		{ID: "s1", Username: "asha", Role: "student", Password: "asha-pass-1"},
		{ID: "a1", Username: "boss", Role: "admin", Password: "boss-pass-1"},
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = h.json(t, "s1", rbac.RoleStudent, http.MethodPost, "/api/tests/submit", map[string]any{
		"subject": "math101", "difficulty": "easy", "submissionId": "sub-1", "answers": answers("easy", 5, 4),
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// history: own or staff
	res = h.json(t, "s1", rbac.RoleStudent, http.MethodGet, "/api/tests/history/s1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	hist := decode[[]exam.Submission](t, res)
	require.Len(t, hist, 1)
	assert.Equal(t, "sub-1", hist[0].ID)
	res = h.json(t, "s2", rbac.RoleStudent, http.MethodGet, "/api/tests/history/s1", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// roles
	res = h.json(t, "f1", rbac.RoleFaculty, http.MethodPatch, "/api/users/s1/role", map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPatch, "/api/users/boss/role", map[string]string{"role": "student"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "last admin")
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPatch, "/api/users/s1/role", map[string]string{"role": "professor"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPatch, "/api/users/ghost/role", map[string]string{"role": "student"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// audit
	res = h.json(t, "f1", rbac.RoleFaculty, http.MethodGet, "/api/admin/audit?q=s1", nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodGet, "/api/admin/audit?q=Unlocked", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	evs := decode[[]syncx.Event](t, res)
	require.Len(t, evs, 1)
	assert.Equal(t, "s1/subject:math101", evs[0].Key)

	// export then delete
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPost, "/api/admin/pii/export", map[string]string{"user_id": "asha"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(res.Header.Get("Content-Disposition"), "pii_s1.json"))
	dump := decode[map[string]any](t, res)
	assert.Len(t, dump["progress"], 1)
	assert.Len(t, dump["submissions"], 1)

	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPost, "/api/admin/pii/delete", map[string]string{"user_id": "s1"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = h.json(t, "root", rbac.RoleAdmin, http.MethodPost, "/api/admin/pii/delete", map[string]string{"user_id": "s1"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = h.json(t, "f1", rbac.RoleFaculty, http.MethodGet, "/api/progress/s1", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, decode[[]map[string]any](t, res))
}
