package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const replayKeyPrefix = "loan-lifecycle:replay:"

// replayState marks whether a reservation still belongs to a running request.
type replayState string

const (
	stateRunning replayState = "running"
	stateDone    replayState = "done"
)

// replayRecord is what the store keeps per (actor, route, request id).
type replayRecord struct {
	State       replayState `json:"state"`
	Fingerprint string      `json:"fingerprint"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body,omitempty"`
	SentAt      time.Time   `json:"sent_at"`
	StoredAt    time.Time   `json:"stored_at"`
}

var errNoRecord = errors.New("replay record not found")

// ReplayStore keeps reservations and finished responses for mutating requests
// in redis.
type ReplayStore struct {
	rdb *redis.Client
}

func NewReplayStore(rdb *redis.Client) *ReplayStore {
	return &ReplayStore{rdb: rdb}
}

func replayKey(actorID, method, route, requestID string) string {
	return fmt.Sprintf("%s%s:%s:%s:%s", replayKeyPrefix, actorID, method, route, requestID)
}

// Reserve claims key for a running request. It reports false when another
// request already holds or finished the key.
func (s *ReplayStore) Reserve(ctx context.Context, key string, rec replayRecord, hold time.Duration) (bool, error) {
	rec.State = stateRunning
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, hold).Result()
}

func (s *ReplayStore) Load(ctx context.Context, key string) (replayRecord, error) {
	var rec replayRecord
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, errNoRecord
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode replay record: %w", err)
	}
	return rec, nil
}

// Complete replaces the reservation with the final response for ttl.
func (s *ReplayStore) Complete(ctx context.Context, key string, rec replayRecord, ttl time.Duration) error {
	rec.State = stateDone
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

// Release drops a reservation so the client may retry the same request id.
func (s *ReplayStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
