package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/geofence_monitor/internal/models"
	"github.com/shenikar/geofence_monitor/internal/service"
)

// StateStore хранит состояния принадлежности в хеше Redis на каждого сотрудника:
// поле - id геозоны, значение - JSON MembershipState.
type StateStore struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewStateStore(redisClient *redis.Client, ttl time.Duration) service.StateStore {
	return &StateStore{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

const (
	stateKeyPrefix = "geofence_state:"
	scanBatch      = 500
)

func stateKey(subjectID string) string {
	return stateKeyPrefix + subjectID
}

// Load возвращает все известные состояния сотрудника
func (s *StateStore) Load(ctx context.Context, subjectID string) (map[uuid.UUID]models.MembershipState, error) {
	raw, err := s.redisClient.HGetAll(ctx, stateKey(subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load membership states: %w", err)
	}

	states := make(map[uuid.UUID]models.MembershipState, len(raw))
	for field, val := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			return nil, fmt.Errorf("invalid geofence id %q in state hash: %w", field, err)
		}
		var state models.MembershipState
		if err := json.Unmarshal([]byte(val), &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal membership state: %w", err)
		}
		states[id] = state
	}
	return states, nil
}

// Save записывает переданные состояния и продлевает срок жизни хеша
func (s *StateStore) Save(ctx context.Context, subjectID string, states map[uuid.UUID]models.MembershipState) error {
	if len(states) == 0 {
		return nil
	}

	values := make([]any, 0, len(states)*2)
	for id, state := range states {
		payload, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("failed to marshal membership state: %w", err)
		}
		values = append(values, id.String(), payload)
	}

	key := stateKey(subjectID)
	pipe := s.redisClient.TxPipeline()
	pipe.HSet(ctx, key, values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save membership states: %w", err)
	}
	return nil
}

// Forget обходит хеши состояний через SCAN и удаляет поле геозоны из каждого
func (s *StateStore) Forget(ctx context.Context, geofenceID uuid.UUID) (int, error) {
	field := geofenceID.String()
	removed := 0

	var cursor uint64
	for {
		keys, next, err := s.redisClient.Scan(ctx, cursor, stateKeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan membership states: %w", err)
		}

		if len(keys) > 0 {
			pipe := s.redisClient.Pipeline()
			cmds := make([]*redis.IntCmd, len(keys))
			for i, key := range keys {
				cmds[i] = pipe.HDel(ctx, key, field)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return removed, fmt.Errorf("failed to forget membership states: %w", err)
			}
			for _, cmd := range cmds {
				removed += int(cmd.Val())
			}
		}

		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
