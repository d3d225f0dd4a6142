// Package profile stores the candidate profile that must exist before an
// interview can be generated. Extraction from uploaded documents happens
// elsewhere; this package only keeps the structured result.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("profile not found")

type Profile struct {
	UserID          string            `json:"user_id"`
	FullName        string            `json:"full_name"`
	Headline        string            `json:"headline,omitempty"`
	YearsExperience int               `json:"years_experience"`
	Skills          []string          `json:"skills,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
	UpdatedAt       int64             `json:"updated_at"`
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("profile: user_id required")
	}
	if strings.TrimSpace(p.FullName) == "" {
		return errors.New("profile: full_name required")
	}
	if p.YearsExperience < 0 {
		return errors.New("profile: years_experience must be >= 0")
	}
	return nil
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Exists(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE user_id=$1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Put(ctx context.Context, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	p.UpdatedAt = time.Now().Unix()
	buf, err := json.Marshal(p)
	if err != nil {
		return Profile{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO profiles (user_id,data,updated_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		p.UserID, string(buf), p.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *SQLStore) Get(ctx context.Context, userID string) (Profile, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE user_id=$1`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}
