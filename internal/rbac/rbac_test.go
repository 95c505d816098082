package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerDefaults(t *testing.T) {
	c := NewChecker(nil)
	tests := []struct {
		role, perm string
		want       bool
	}{
		{RoleStudent, "test:submit-own", true},
		{RoleStudent, "progress:view-all", false},
		{RoleStudent, "question:create", false},
		{RoleFaculty, "question:create", true},
		{RoleFaculty, "users:bulk_upsert", false},
		{RoleAdmin, "users:bulk_upsert", true},
		{"guest", "question:view", false},
	}
	for _, tt := range tests {
		if got := c.Has(tt.role, tt.perm); got != tt.want {
			t.Errorf("Has(%s,%s)=%v want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func serve(h http.Handler, role, sub string) int {
	req := httptest.NewRequest(http.MethodGet, "/progress/s1", nil)
	ctx := WithSubject(WithRole(req.Context(), role), sub)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec.Code
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Require("question:create")(ok)
	if code := serve(h, RoleFaculty, "f1"); code != http.StatusOK {
		t.Errorf("faculty got %d", code)
	}
	if code := serve(h, RoleStudent, "s1"); code != http.StatusForbidden {
		t.Errorf("student got %d", code)
	}
	if code := serve(h, "", ""); code != http.StatusForbidden {
		t.Errorf("anonymous got %d", code)
	}
	h = RequireAny("analytics:view", "question:create")(ok)
	if code := serve(h, RoleFaculty, "f1"); code != http.StatusOK {
		t.Errorf("RequireAny faculty got %d", code)
	}
}

func TestOwnerOr(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := OwnerOr("progress:view-own", "progress:view-all", func(*http.Request) string { return "s1" })(ok)

	tests := []struct {
		role, sub string
		want      int
	}{
		{RoleStudent, "s1", http.StatusOK},
		{RoleStudent, "s2", http.StatusForbidden},
		{RoleFaculty, "f1", http.StatusOK},
		{RoleAdmin, "a1", http.StatusOK},
	}
	for _, tt := range tests {
		if got := serve(h, tt.role, tt.sub); got != tt.want {
			t.Errorf("%s/%s: got %d want %d", tt.role, tt.sub, got, tt.want)
		}
	}
}
