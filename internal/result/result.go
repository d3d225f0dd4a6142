// Package result keeps session results returned by the scoring service. A
// stored result means the session is over and must never be resumed.
package result

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

var ErrNotFound = errors.New("result not found")

type Result struct {
	SessionID   string          `json:"session_id"`
	UserID      string          `json:"user_id"`
	SubmittedAt int64           `json:"submitted_at"`
	Payload     json.RawMessage `json:"payload"` // as returned by the scorer
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM session_results WHERE session_id=$1`, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Put is insert-only: a second result for the same session is ignored.
func (s *SQLStore) Put(ctx context.Context, r Result) error {
	if len(r.Payload) == 0 {
		r.Payload = json.RawMessage(`{}`)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO session_results (session_id,user_id,data,submitted_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (session_id) DO NOTHING`,
		r.SessionID, r.UserID, string(r.Payload), r.SubmittedAt)
	return err
}

func (s *SQLStore) Get(ctx context.Context, sessionID string) (Result, error) {
	var r Result
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id,user_id,data,submitted_at FROM session_results WHERE session_id=$1`, sessionID).
		Scan(&r.SessionID, &r.UserID, &data, &r.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}
	r.Payload = json.RawMessage(data)
	return r, nil
}

type ListOpts struct {
	UserID string // optional filter
	Limit  int
	Offset int
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Result, error) {
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	q := `SELECT session_id,user_id,data,submitted_at FROM session_results`
	args := []any{}
	if opts.UserID != "" {
		q += ` WHERE user_id=$1 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`
		args = append(args, opts.UserID, opts.Limit, opts.Offset)
	} else {
		q += ` ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`
		args = append(args, opts.Limit, opts.Offset)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Result{}
	for rows.Next() {
		var r Result
		var data string
		if err := rows.Scan(&r.SessionID, &r.UserID, &data, &r.SubmittedAt); err != nil {
			return nil, err
		}
		r.Payload = json.RawMessage(data)
		out = append(out, r)
	}
	return out, rows.Err()
}
