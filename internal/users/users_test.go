package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-portal/internal/auth/middleware"
	"github.com/mind-engage/mindengage-portal/internal/db/dbtest"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

func TestUpsertAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))

	ins, upd, err := s.Upsert(ctx, []Row{
		{ID: "s1", Username: "asha", Password: "asha-password"},
		{ID: "f1", Username: "ravi", Role: "Faculty", Password: "ravi-password"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ins)
	assert.Equal(t, 0, upd)

	p, err := s.Authenticate(ctx, "asha", "asha-password")
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{ID: "s1", Role: rbac.RoleStudent}, p)

	_, err = s.Authenticate(ctx, "asha", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "x")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// update without password keeps the old hash
	ins, upd, err = s.Upsert(ctx, []Row{{ID: "s1", Username: "asha", Role: "admin"}})
	require.NoError(t, err)
	assert.Equal(t, 0, ins)
	assert.Equal(t, 1, upd)
	p, err = s.Authenticate(ctx, "asha", "asha-password")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, p.Role)

	list, err := s.List(ctx, rbac.RoleFaculty)
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: "f1", Username: "ravi", Role: rbac.RoleFaculty}}, list)
}

func TestUpsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))

	_, _, err := s.Upsert(ctx, []Row{
		{ID: "s1", Username: "asha", Password: "asha-password"},
		{ID: "s2", Username: "ben"},
	})
	require.Error(t, err)

	_, _, err = s.Upsert(ctx, []Row{{ID: "x", Username: "x", Role: "professor", Password: "12345678"}})
	assert.ErrorContains(t, err, "invalid role")

	list, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("root-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	s := NewStore(dbtest.Open(t), WithBootstrapAdmin("root", string(hash)))

	p, err := s.Authenticate(ctx, "root", "root-pass")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, p.Role)

	_, err = s.Authenticate(ctx, "root", "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	_, _, err := s.Upsert(ctx, []Row{{ID: "s1", Username: "asha", Password: "first-pass"}})
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, "s1", "first-pass", "short"), ErrWeakPassword)
	assert.ErrorIs(t, s.ChangePassword(ctx, "s1", "wrong-pass", "second-pass"), ErrBadPassword)
	assert.ErrorIs(t, s.ChangePassword(ctx, "ghost", "x", "second-pass"), ErrNotFound)
	require.NoError(t, s.ChangePassword(ctx, "s1", "first-pass", "second-pass"))

	_, err = s.Authenticate(ctx, "asha", "second-pass")
	assert.NoError(t, err)
}

func TestParseRows(t *testing.T) {
	rows, err := ParseRows(strings.NewReader("id,username,role,password\ns1,asha,student,pw\n"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{ID: "s1", Username: "asha", Role: "student", Password: "pw"}}, rows)

	rows, err = ParseRows(strings.NewReader(`  [{"id":"f1","username":"ravi","role":"faculty"}]`))
	require.NoError(t, err)
	assert.Equal(t, "ravi", rows[0].Username)

	_, err = ParseRows(strings.NewReader("id,username\ns1,asha\n"))
	assert.ErrorContains(t, err, "missing column: role")

	_, err = ParseRows(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSetRoleGuardsLastAdmin(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	_, _, err := s.Upsert(ctx, []Row{
		{ID: "a1", Username: "root", Role: "admin", Password: "root-password"},
		{ID: "s1", Username: "asha", Password: "asha-password"},
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetRole(ctx, "root", rbac.RoleFaculty), ErrLastAdmin)
	assert.ErrorIs(t, s.SetRole(ctx, "ghost", rbac.RoleFaculty), ErrNotFound)
	assert.ErrorContains(t, s.SetRole(ctx, "asha", "professor"), "invalid role")

	require.NoError(t, s.SetRole(ctx, "asha", "ADMIN"))
	require.NoError(t, s.SetRole(ctx, "a1", rbac.RoleFaculty))

	u, err := s.Get(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleFaculty, u.Role)
	assert.NotZero(t, u.CreatedAt)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	dbh := dbtest.Open(t)
	s := NewStore(dbh)
	_, _, err := s.Upsert(ctx, []Row{{ID: "s1", Username: "asha", Password: "asha-password"}})
	require.NoError(t, err)
	_, err = dbh.Exec(`INSERT INTO progress (student_id, scope_kind, scope_key) VALUES ('s1','subject','math101')`)
	require.NoError(t, err)

	require.NoError(t, s.Purge(ctx, "s1"))
	assert.ErrorIs(t, s.Purge(ctx, "s1"), ErrNotFound)

	var n int
	require.NoError(t, dbh.QueryRow(`SELECT COUNT(1) FROM progress WHERE student_id='s1'`).Scan(&n))
	assert.Zero(t, n)
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}
