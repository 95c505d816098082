// Package users keeps portal accounts (students, faculty, admins) and their
// bcrypt password hashes.
package users

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-portal/internal/auth/middleware"
	"github.com/mind-engage/mindengage-portal/internal/db"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

// BcryptCost matches the cost used for seeded admin hashes.
const BcryptCost = 12

var (
	ErrNotFound     = errors.New("user not found")
	ErrBadPassword  = errors.New("password does not match")
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	ErrLastAdmin    = errors.New("cannot demote the last admin")
	ErrInvalidRole  = errors.New("invalid role")
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Row is one line of a bulk upsert. Password is optional for existing users.
type Row struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"`
}

type Store struct {
	db        *sql.DB
	adminUser string
	adminHash string
}

type Option func(*Store)

// WithBootstrapAdmin lets username log in as admin with a configured bcrypt
// hash when no matching row exists in the users table.
func WithBootstrapAdmin(username, hash string) Option {
	return func(s *Store) { s.adminUser, s.adminHash = username, hash }
}

func NewStore(dbh *sql.DB, opts ...Option) *Store {
	s := &Store{db: dbh}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Authenticate implements auth.Authenticator.
func (s *Store) Authenticate(ctx context.Context, username, password string) (auth.Principal, error) {
	if username == "" || password == "" {
		return auth.Principal{}, auth.ErrInvalidCredentials
	}
	var id, hash, role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, role FROM users WHERE username=$1`, username).Scan(&id, &hash, &role)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if s.adminUser != "" && username == s.adminUser && s.adminHash != "" &&
			bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)) == nil {
			return auth.Principal{ID: s.adminUser, Role: rbac.RoleAdmin}, nil
		}
		return auth.Principal{}, auth.ErrInvalidCredentials
	case err != nil:
		return auth.Principal{}, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return auth.Principal{}, auth.ErrInvalidCredentials
	}
	return auth.Principal{ID: id, Role: role}, nil
}

func (s *Store) List(ctx context.Context, role string) ([]User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT id, username, role FROM users ORDER BY username`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT id, username, role FROM users WHERE role=$1 ORDER BY username`, role)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get looks a user up by id or username.
func (s *Store) Get(ctx context.Context, idOrName string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at FROM users WHERE id=$1 OR username=$1`, idOrName).
		Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// SetRole changes a user's role. The last admin cannot be demoted.
func (s *Store) SetRole(ctx context.Context, idOrName, role string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !rbac.ValidRole(role) {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var id, cur string
		err := tx.QueryRowContext(ctx,
			`SELECT id, role FROM users WHERE id=$1 OR username=$1`, idOrName).Scan(&id, &cur)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if cur == rbac.RoleAdmin && role != rbac.RoleAdmin {
			var admins int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role=$1`, rbac.RoleAdmin).Scan(&admins); err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}
		_, err = tx.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, id)
		return err
	})
}

// Purge removes a user together with their progress and submissions.
func (s *Store) Purge(ctx context.Context, id string) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		for _, q := range []string{
			`DELETE FROM progress WHERE student_id=$1`,
			`DELETE FROM submissions WHERE student_id=$1`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// Upsert inserts new users and updates existing ones in one transaction.
// New users need a password; existing users keep theirs when it is empty.
func (s *Store) Upsert(ctx context.Context, rows []Row) (inserted, updated int, err error) {
	hashed := make([]string, len(rows))
	for i := range rows {
		r := &rows[i]
		r.ID = strings.TrimSpace(r.ID)
		r.Username = strings.TrimSpace(r.Username)
		r.Role = strings.ToLower(strings.TrimSpace(r.Role))
		if r.Role == "" {
			r.Role = rbac.RoleStudent
		}
		if r.ID == "" || r.Username == "" {
			return 0, 0, fmt.Errorf("row %d: id and username are required", i+1)
		}
		if !rbac.ValidRole(r.Role) {
			return 0, 0, fmt.Errorf("row %d: %w: %s", i+1, ErrInvalidRole, r.Role)
		}
		if r.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(r.Password), BcryptCost)
			if e != nil {
				return 0, 0, e
			}
			hashed[i] = string(b)
		}
	}

	now := time.Now().Unix()
	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for i, r := range rows {
			var one int
			e := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, r.ID).Scan(&one)
			switch {
			case e == nil:
				if hashed[i] != "" {
					_, e = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, password_hash=$3 WHERE id=$4`,
						r.Username, r.Role, hashed[i], r.ID)
				} else {
					_, e = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`,
						r.Username, r.Role, r.ID)
				}
				if e != nil {
					return e
				}
				updated++
			case errors.Is(e, sql.ErrNoRows):
				if hashed[i] == "" {
					return errors.New("password required for new user: " + r.Username)
				}
				if _, e = tx.ExecContext(ctx,
					`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
					r.ID, r.Username, hashed[i], r.Role, now); e != nil {
					return e
				}
				inserted++
			default:
				return e
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (s *Store) ChangePassword(ctx context.Context, userID, oldPw, newPw string) error {
	if len(newPw) < 8 {
		return ErrWeakPassword
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPw)) != nil {
		return ErrBadPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(newPw), BcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(b), userID)
	return err
}

// ParseRows reads a JSON array or a CSV file with an id,username,role[,password] header.
func ParseRows(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return nil, errors.New("empty input")
		}
		if b[0] == ' ' || b[0] == '\n' || b[0] == '\r' || b[0] == '\t' {
			_, _ = br.ReadByte()
			continue
		}
		if b[0] == '[' {
			var rows []Row
			if err := json.NewDecoder(br).Decode(&rows); err != nil {
				return nil, fmt.Errorf("bad json: %w", err)
			}
			return rows, nil
		}
		break
	}
	return parseCSV(br)
}

func parseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"id", "username", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := Row{ID: rec[idx["id"]], Username: rec[idx["username"]], Role: rec[idx["role"]]}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
