package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := Open(context.Background(), DriverSQLite, "file:connect_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return dbh
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{"", DriverSQLite, false},
		{"sqlite3", DriverSQLite, false},
		{"PG", DriverPostgres, false},
		{"pgx", DriverPostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDriver(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDriver(%q) err=%v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDriver(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	dbh := openMem(t)
	if err := EnsureSchema(context.Background(), dbh, DriverSQLite); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	for _, table := range []string{"users", "questions", "progress", "submissions", "event_log", "catalog_patches"} {
		var n int
		if err := dbh.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	dbh := openMem(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithTx(ctx, dbh, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (id,username,password_hash,role,created_at) VALUES ('u1','u1','x','student',0)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rollback failed, %d rows", n)
	}

	if err := WithTx(ctx, dbh, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO users (id,username,password_hash,role,created_at) VALUES ('u2','u2','x','student',0)`)
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 row, got %d", n)
	}
}
