package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-portal/internal/config"
	"github.com/mind-engage/mindengage-portal/internal/db/dbtest"
	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("s3cret-pass")))

	out, err = run(t, "from-stdin\n", "hash-password")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("from-stdin")))
}

func TestMigrateAndImport(t *testing.T) {
	dir := t.TempDir()
	dsn := "file:" + filepath.Join(dir, "portal.db")
	src := filepath.Join(dir, "qs.csv")
	require.NoError(t, os.WriteFile(src, []byte(
		"id,subject,course,difficulty,prompt,options,correct\nq1,math101,,easy,1+1?,1|2,1\n"), 0o644))

	out, err := run(t, "", "migrate", "--env-file", filepath.Join(dir, "none.env"), "--db-driver", "sqlite", "--db-dsn", dsn)
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, err = run(t, "", "import-questions", src, "--db-driver", "sqlite", "--db-dsn", dsn, "--author", "f1")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 questions")

	cfg := config.Config{DBDriver: "sqlite", DBDSN: dsn}
	dbh, err := openDB(cfg)
	require.NoError(t, err)
	defer dbh.Close()
	qs, err := exam.NewSQLBank(dbh).Fetch(context.Background(), progress.Scope{Kind: progress.KindSubject, Key: "math101"}, progress.TierEasy, 0)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "f1", qs[0].CreatedBy)
}

func TestRouterHealthAndLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{
		Mode:               config.ModeOffline,
		BlobBasePath:       t.TempDir(),
		AuthHMACSecret:     "test",
		EnableLocalAuth:    true,
		AdminUser:          "root",
		AdminPassHash:      string(hash),
		CORSOriginsOffline: []string{"http://localhost:3000"},
		PassThreshold:      60,
		UnlockThreshold:    60,
		UnlockMinQuestions: 1,
	}
	h, err := newRouter(cfg, dbtest.Open(t))
	require.NoError(t, err)

	for _, p := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"root","password":"admin-pass"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
