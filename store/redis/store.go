// Package redis implements the invocation audit log on Redis via Grove KV.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/grove/kv"
	"github.com/xraph/grove/kv/drivers/redisdriver"

	"github.com/kiket-dev/dispatch"
	"github.com/kiket-dev/dispatch/id"
	"github.com/kiket-dev/dispatch/internal/entity"
	"github.com/kiket-dev/dispatch/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using Redis via Grove KV.
type Store struct {
	kv  *kv.Store
	rdb goredis.UniversalClient
}

// New creates a new Redis store backed by Grove KV.
func New(kvStore *kv.Store) *Store {
	return &Store{
		kv:  kvStore,
		rdb: redisdriver.UnwrapClient(kvStore),
	}
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// Close closes the KV store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// recordModel is the JSON representation stored in Redis.
type recordModel struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	Version    string    `json:"version"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toRecordModel(rec *store.Record) *recordModel {
	return &recordModel{
		ID:         rec.ID.String(),
		Event:      rec.Event,
		Version:    rec.Version,
		Status:     rec.Status,
		DurationMS: rec.DurationMS,
		Error:      rec.Error,
		ReceivedAt: rec.ReceivedAt,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func fromRecordModel(m *recordModel) (*store.Record, error) {
	recID, err := id.ParseInvocationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse invocation ID %q: %w", m.ID, err)
	}
	return &store.Record{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         recID,
		Event:      m.Event,
		Version:    m.Version,
		Status:     m.Status,
		DurationMS: m.DurationMS,
		Error:      m.Error,
		ReceivedAt: m.ReceivedAt,
	}, nil
}

// SaveRecord persists one invocation record and indexes it by time,
// event, and status.
func (s *Store) SaveRecord(ctx context.Context, rec *store.Record) error {
	m := toRecordModel(rec)
	key := entityKey(prefixRecord, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("dispatch/redis: save record: %w", err)
	}

	score := scoreFromTime(m.ReceivedAt)
	member := goredis.Z{Score: score, Member: m.ID}
	if err := s.rdb.ZAdd(ctx, zRecordAll, member).Err(); err != nil {
		return fmt.Errorf("dispatch/redis: index record: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, zRecordEvent+m.Event, member).Err(); err != nil {
		return fmt.Errorf("dispatch/redis: index record by event: %w", err)
	}
	if err := s.rdb.ZAdd(ctx, zRecordStatus+m.Status, member).Err(); err != nil {
		return fmt.Errorf("dispatch/redis: index record by status: %w", err)
	}
	return nil
}

// GetRecord returns a record by ID.
func (s *Store) GetRecord(ctx context.Context, recID id.ID) (*store.Record, error) {
	var m recordModel
	if err := s.getEntity(ctx, entityKey(prefixRecord, recID.String()), &m); err != nil {
		if isNotFound(err) || isRedisNil(err) {
			return nil, dispatch.ErrRecordNotFound
		}
		return nil, fmt.Errorf("dispatch/redis: get record: %w", err)
	}
	return fromRecordModel(&m)
}

// ListRecords returns records most recent first.
func (s *Store) ListRecords(ctx context.Context, opts store.ListOpts) ([]*store.Record, error) {
	indexKey := zRecordAll
	switch {
	case opts.Event != "":
		indexKey = zRecordEvent + opts.Event
	case opts.Status != "":
		indexKey = zRecordStatus + opts.Status
	}

	ids, err := s.rdb.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("dispatch/redis: list records: %w", err)
	}

	var out []*store.Record
	for _, rawID := range ids {
		var m recordModel
		if err := s.getEntity(ctx, entityKey(prefixRecord, rawID), &m); err != nil {
			if isNotFound(err) || isRedisNil(err) {
				continue // index is ahead of an expired entity
			}
			return nil, fmt.Errorf("dispatch/redis: load record %q: %w", rawID, err)
		}
		// Secondary filter when both event and status are set.
		if opts.Event != "" && m.Event != opts.Event {
			continue
		}
		if opts.Status != "" && m.Status != opts.Status {
			continue
		}
		rec, err := fromRecordModel(&m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	return applyPagination(out, opts.Offset, opts.Limit), nil
}

// CountByStatus returns the number of stored records with the status.
func (s *Store) CountByStatus(ctx context.Context, status string) (int, error) {
	n, err := s.rdb.ZCard(ctx, zRecordStatus+status).Result()
	if err != nil {
		return 0, fmt.Errorf("dispatch/redis: count by status: %w", err)
	}
	return int(n), nil
}

// scoreFromTime converts a time.Time to a sorted set score (unix seconds as float64).
func scoreFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// isNotFound checks if an error is a KV not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

// isRedisNil checks if an error is a Redis nil (key not found).
func isRedisNil(err error) bool {
	return errors.Is(err, goredis.Nil)
}

// getEntity retrieves and decodes a JSON entity from a KV key.
func (s *Store) getEntity(ctx context.Context, key string, dest any) error {
	raw, err := s.kv.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// setEntity encodes and stores a JSON entity under a KV key.
func (s *Store) setEntity(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("dispatch/redis: marshal entity: %w", err)
	}
	return s.kv.SetRaw(ctx, key, raw)
}

// applyPagination applies offset and limit to a slice.
func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
