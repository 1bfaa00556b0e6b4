package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aurevo/storefront/pkg/logger"
	"go.uber.org/multierr"
)

// ProbeKey is written and removed by IsAvailable.
const ProbeKey = "__storage_test__"

var errNilValue = errors.New("storage: refusing to write nil value")

// Backend is a raw string key-value store. Get reports absence with found=false
// and a nil error.
type Backend interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the JSON adapter over a Backend. It never surfaces backend or
// decode errors to callers: every failure becomes false and a warning log.
type Store struct {
	backend Backend
	logg    *logger.Logger
}

// NewStore wraps backend. A nil logger discards warnings.
func NewStore(backend Backend, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{backend: backend, logg: logg}
}

// Probe writes then deletes the sentinel key and reports every failure.
func (s *Store) Probe(ctx context.Context) error {
	if s == nil || s.backend == nil {
		return errors.New("storage backend not configured")
	}
	if err := s.backend.Set(ctx, ProbeKey, ProbeKey); err != nil {
		return err
	}
	var err error
	if _, _, getErr := s.backend.Get(ctx, ProbeKey); getErr != nil {
		err = multierr.Append(err, getErr)
	}
	return multierr.Append(err, s.backend.Delete(ctx, ProbeKey))
}

// IsAvailable reports whether the backend accepts a write/delete round trip.
func (s *Store) IsAvailable(ctx context.Context) bool {
	if err := s.Probe(ctx); err != nil {
		s.warn(ctx, ProbeKey, "storage probe failed", err)
		return false
	}
	return true
}

// Read decodes the JSON stored at key into dest.
func (s *Store) Read(ctx context.Context, key string, dest any) bool {
	raw, ok := s.ReadRaw(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.warn(ctx, key, "storage value is not valid json", err)
		return false
	}
	return true
}

// ReadRaw returns the undecoded JSON stored at key.
func (s *Store) ReadRaw(ctx context.Context, key string) (json.RawMessage, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}
	value, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.warn(ctx, key, "storage read failed", err)
		return nil, false
	}
	if !found || value == "" {
		return nil, false
	}
	if !json.Valid([]byte(value)) {
		s.warn(ctx, key, "storage value is not valid json", nil)
		return nil, false
	}
	return json.RawMessage(value), true
}

// Write encodes value as JSON and stores it under key.
func (s *Store) Write(ctx context.Context, key string, value any) bool {
	if s == nil || s.backend == nil {
		return false
	}
	if value == nil {
		s.warn(ctx, key, "storage write skipped", errNilValue)
		return false
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.warn(ctx, key, "storage value could not be encoded", err)
		return false
	}
	if err := s.backend.Set(ctx, key, string(data)); err != nil {
		s.warn(ctx, key, "storage write failed", err)
		return false
	}
	return true
}

// Delete removes key. Deleting an absent key succeeds.
func (s *Store) Delete(ctx context.Context, key string) bool {
	if s == nil || s.backend == nil {
		return false
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		s.warn(ctx, key, "storage delete failed", err)
		return false
	}
	return true
}

func (s *Store) warn(ctx context.Context, key, msg string, err error) {
	s.logg.WarnErr(s.logg.WithField(ctx, "storage_key", key), msg, err)
}
