package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = errors.New("unknown role")
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

// Users is the local login table.
type Users struct{ db *sql.DB }

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

// Add creates or replaces the password and role of username.
func (s *Users) Add(ctx context.Context, username, role, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, errors.New("username and password required")
	}
	if _, ok := rbac.RolePermissions[role]; !ok {
		return User{}, ErrUnknownRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return User{}, err
	}
	u := User{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: time.Now().Unix()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id,username,role,pass_hash,created_at) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (username) DO UPDATE SET role=EXCLUDED.role, pass_hash=EXCLUDED.pass_hash`,
		u.ID, u.Username, u.Role, string(hash), u.CreatedAt)
	if err != nil {
		return User{}, err
	}
	// the id of an existing row is kept on conflict
	err = s.db.QueryRowContext(ctx, `SELECT id,created_at FROM users WHERE username=$1`, u.Username).
		Scan(&u.ID, &u.CreatedAt)
	return u, err
}

func (s *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id,username,role,pass_hash,created_at FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.Role, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}
