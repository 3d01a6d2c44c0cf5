package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okotelnikov/vpsshop-backend/pkg/redis"
)

// Phase is where a chat currently is in the purchase flow.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLocationList   Phase = "location_list"
	PhaseTariffList     Phase = "tariff_list"
	PhaseInvoiceCreated Phase = "invoice_created"
)

// State is the per-chat conversation position. It is display context only;
// the ledger stays the source of truth for money.
type State struct {
	Phase    Phase  `json:"phase"`
	Location string `json:"location,omitempty"`
	TariffID int64  `json:"tariff_id,omitempty"`
	PayURL   string `json:"pay_url,omitempty"`
}

// Store persists conversation state per chat.
type Store interface {
	Load(ctx context.Context, chatID int64) (State, error)
	Save(ctx context.Context, chatID int64, state State) error
	Clear(ctx context.Context, chatID int64) error
}

type stateStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ConversationKey(chatID int64) string
}

// RedisStore keeps states in Redis under a TTL so abandoned chats expire on
// their own.
type RedisStore struct {
	storage stateStorage
	ttl     time.Duration
}

// NewRedisStore builds the store.
func NewRedisStore(storage stateStorage, ttl time.Duration) (*RedisStore, error) {
	if storage == nil {
		return nil, fmt.Errorf("state storage is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("state ttl must be positive")
	}
	return &RedisStore{storage: storage, ttl: ttl}, nil
}

// Load returns the chat's state; an absent or corrupt entry is Idle.
func (s *RedisStore) Load(ctx context.Context, chatID int64) (State, error) {
	raw, err := s.storage.Get(ctx, s.storage.ConversationKey(chatID))
	if err != nil {
		if redis.IsNil(err) {
			return State{Phase: PhaseIdle}, nil
		}
		return State{}, fmt.Errorf("load conversation state: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{Phase: PhaseIdle}, nil
	}
	if state.Phase == "" {
		state.Phase = PhaseIdle
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, chatID int64, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}
	if err := s.storage.Set(ctx, s.storage.ConversationKey(chatID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	return s.storage.Del(ctx, s.storage.ConversationKey(chatID))
}
