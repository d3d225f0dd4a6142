// Package snapshot persists full session snapshots keyed by session id.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mind-engage/mindengage-interview/internal/interview"
)

// Store is the persistence adapter used by the engine. Save returns only once
// the snapshot is durable in the underlying KV.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store { return &Store{kv: kv} }

func (s *Store) Save(ctx context.Context, sess interview.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("snapshot: empty session id")
	}
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("snapshot: refusing to save %s: %w", sess.ID, err)
	}
	buf, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, sess.ID, buf); err != nil {
		return fmt.Errorf("snapshot: save %s: %w", sess.ID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (interview.Session, error) {
	buf, err := s.kv.Get(ctx, id)
	if err != nil {
		return interview.Session{}, err
	}
	var sess interview.Session
	if err := json.Unmarshal(buf, &sess); err != nil {
		return interview.Session{}, fmt.Errorf("snapshot: decode %s: %w", id, err)
	}
	if sess.Answers == nil {
		sess.Answers = interview.Answers{}
	}
	if err := sess.Validate(); err != nil {
		return interview.Session{}, fmt.Errorf("snapshot: corrupt %s: %w", id, err)
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, id)
}
