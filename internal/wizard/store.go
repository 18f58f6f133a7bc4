package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("wizard: draft not found")

// DraftStore keeps wizards between requests. Entries expire after the
// store's TTL, measured from the last save.
type DraftStore interface {
	Save(ctx context.Context, w *Wizard) error
	Load(ctx context.Context, id string) (*Wizard, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser drops every draft tagged with userID.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

type memoryEntry struct {
	data    []byte
	userID  string
	expires time.Time
}

// MemoryDraftStore is a process-local DraftStore.
type MemoryDraftStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryDraftStore creates a store. A non-positive ttl disables expiry.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryDraftStore) Save(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("wizard: marshal draft: %w", err)
	}
	entry := memoryEntry{data: data, userID: w.UserID}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[w.ID] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Load(ctx context.Context, id string) (*Wizard, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok && !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.entries, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var w Wizard
	if err := json.Unmarshal(entry.data, &w); err != nil {
		return nil, fmt.Errorf("wizard: unmarshal draft: %w", err)
	}
	return &w, nil
}

func (s *MemoryDraftStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, entry := range s.entries {
		if entry.userID == userID {
			delete(s.entries, id)
			n++
		}
	}
	return n, nil
}

// RedisDraftStore keeps drafts as JSON strings with a TTL. Drafts tagged
// with a user are also indexed in a per-user set.
type RedisDraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisDraftStore creates a Redis-backed store.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) *RedisDraftStore {
	if client == nil {
		panic("wizard: redis client required")
	}
	return &RedisDraftStore{redis: client, ttl: ttl}
}

func (s *RedisDraftStore) key(id string) string {
	return fmt.Sprintf("wizard:draft:%s", id)
}

func (s *RedisDraftStore) userKey(userID string) string {
	return fmt.Sprintf("wizard:user:%s", userID)
}

func (s *RedisDraftStore) Save(ctx context.Context, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("wizard: marshal draft: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.key(w.ID), data, s.ttl)
	if w.UserID != "" {
		pipe.SAdd(ctx, s.userKey(w.UserID), w.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.userKey(w.UserID), s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("wizard: save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Load(ctx context.Context, id string) (*Wizard, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wizard: load draft: %w", err)
	}
	var w Wizard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("wizard: unmarshal draft: %w", err)
	}
	return &w, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("wizard: delete draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("wizard: list user drafts: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}
	keys = append(keys, s.userKey(userID))
	removed, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("wizard: delete user drafts: %w", err)
	}
	// The index key itself is counted by DEL when it existed.
	if len(ids) > 0 {
		removed--
	}
	return int(removed), nil
}
