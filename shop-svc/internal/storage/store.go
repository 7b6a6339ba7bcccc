package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// KeyPrefix namespaces every key the service writes.
const KeyPrefix = "smartorder_"

const (
	UserKey         = KeyPrefix + "user"
	ShopsKey        = KeyPrefix + "shops"
	MenusKey        = KeyPrefix + "menus"
	ReservationsKey = KeyPrefix + "reservations"
	TablesKey       = KeyPrefix + "tables"
	OrdersKey       = KeyPrefix + "orders"
)

var ErrNotFound = errors.New("key not found")

// Backend persists raw values. Update must apply fn atomically for one key;
// current is nil when the key does not exist yet.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Record is anything stored in a collection under a unique id.
type Record interface {
	RecordID() string
}

// Store serializes values as JSON on top of a Backend. Values are decoded
// fresh on every read, so callers always get their own copy.
type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, key); err != nil {
		log.Printf("Store error (remove %s): %v", key, err)
		return err
	}
	return nil
}

// ClearAll wipes every key. Used for a full reset only.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.backend.Clear(ctx); err != nil {
		log.Printf("Store error (clear): %v", err)
		return err
	}
	return nil
}

// Get returns the value under key, or def when it is absent or unreadable.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	data, err := s.backend.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("Store error (get %s): %v", key, err)
		}
		return def
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("Store error (decode %s): %v", key, err)
		return def
	}
	return value
}

func Set[T any](ctx context.Context, s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Store error (encode %s): %v", key, err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, data); err != nil {
		log.Printf("Store error (set %s): %v", key, err)
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func GetCollection[T any](ctx context.Context, s *Store, key string) []T {
	return Get(ctx, s, key, []T{})
}

func FindBy[T any](ctx context.Context, s *Store, key string, pred func(T) bool) (T, bool) {
	for _, item := range GetCollection[T](ctx, s, key) {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func Filter[T any](ctx context.Context, s *Store, key string, pred func(T) bool) []T {
	all := GetCollection[T](ctx, s, key)
	out := make([]T, 0, len(all))
	for _, item := range all {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Upsert replaces the record with the same id or appends it.
func Upsert[T Record](ctx context.Context, s *Store, key string, item T) error {
	id := item.RecordID()
	return UpsertBy(ctx, s, key, item, func(existing T) bool { return existing.RecordID() == id })
}

// UpsertBy replaces the first record matching match, or appends item when
// none does. Collections whose effective key is not the record id use it.
func UpsertBy[T any](ctx context.Context, s *Store, key string, item T, match func(T) bool) error {
	return mutate(ctx, s, key, func(all []T) ([]T, bool) {
		for i := range all {
			if match(all[i]) {
				all[i] = item
				return all, true
			}
		}
		return append(all, item), true
	})
}

// ReplaceWhere drops every record matching pred and appends replacement.
func ReplaceWhere[T any](ctx context.Context, s *Store, key string, pred func(T) bool, replacement []T) error {
	return mutate(ctx, s, key, func(all []T) ([]T, bool) {
		kept := make([]T, 0, len(all)+len(replacement))
		for _, item := range all {
			if !pred(item) {
				kept = append(kept, item)
			}
		}
		return append(kept, replacement...), true
	})
}

// Modify applies fn to the record with the given id. fn reports whether it
// changed the record; nothing is written when it did not. The returned bool
// is false when no record has that id.
func Modify[T Record](ctx context.Context, s *Store, key, id string, fn func(*T) bool) (T, bool, error) {
	var (
		result T
		found  bool
	)
	err := UpdateBy(ctx, s, key, func(item T) bool { return item.RecordID() == id }, func(item *T) bool {
		found = true
		changed := fn(item)
		result = *item
		return changed
	})
	return result, found, err
}

// UpdateBy applies fn to the first record matching match, with the same
// write rules as Modify. fn is not called when nothing matches.
func UpdateBy[T any](ctx context.Context, s *Store, key string, match func(T) bool, fn func(*T) bool) error {
	return mutate(ctx, s, key, func(all []T) ([]T, bool) {
		for i := range all {
			if match(all[i]) {
				return all, fn(&all[i])
			}
		}
		return all, false
	})
}

var errUnchanged = errors.New("unchanged")

// mutate runs one read-modify-write of the whole collection under key. An
// unreadable collection is treated as empty and overwritten.
func mutate[T any](ctx context.Context, s *Store, key string, fn func([]T) ([]T, bool)) error {
	err := s.backend.Update(ctx, key, func(current []byte) ([]byte, error) {
		all := []T{}
		if current != nil {
			if err := json.Unmarshal(current, &all); err != nil {
				log.Printf("Store error (decode %s): %v", key, err)
				all = []T{}
			}
		}
		next, changed := fn(all)
		if !changed {
			return nil, errUnchanged
		}
		return json.Marshal(next)
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		log.Printf("Store error (update %s): %v", key, err)
		return fmt.Errorf("update %s: %w", key, err)
	}
	return nil
}
