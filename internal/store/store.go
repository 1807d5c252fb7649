// Package store implements the durable, per-user record store of
// inspection drafts with its parallel tombstone set.
package store

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/db"
	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
)

// BaseNamespace is the legacy shared namespace used before login.
// The key string is kept for compatibility with existing data sets.
const BaseNamespace = "vistoriaapp_inspections"

// NamespaceFor maps an authenticated user identity to its storage
// namespace. Anonymous (empty) users map to the legacy shared key.
func NamespaceFor(userID string) string {
	if userID == "" {
		return BaseNamespace
	}
	return BaseNamespace + "_" + userID
}

// Store provides namespaced CRUD over inspection drafts plus the
// monotonic tombstone set and the persisted current-draft pointer.
//
// Storage failures on the write path degrade to logged no-ops; a
// transient local-persistence problem must never crash or fail the
// caller.
type Store struct {
	db        *db.DB
	namespace string
	logger    *zap.Logger
	mu        sync.Mutex
}

// New creates a Store scoped to the given namespace.
func New(database *db.DB, namespace string, logger *zap.Logger) *Store {
	return &Store{
		db:        database,
		namespace: namespace,
		logger:    logger,
	}
}

// Namespace returns the namespace this store is scoped to.
func (s *Store) Namespace() string {
	return s.namespace
}

// Put upserts a draft by ID. Writes to tombstoned IDs are dropped and
// logged, never surfaced: deletion silently wins over stale writes.
// UpdatedAt is bumped on every accepted write and is monotonically
// non-decreasing.
func (s *Store) Put(insp *models.Inspection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isTombstoned(insp.ID) {
		s.logger.Info("dropping write to tombstoned inspection",
			zap.String("inspection_id", insp.ID),
			zap.String("code", string(errors.ErrTombstonedWrite)))
		return
	}

	insp.Touch()

	payload, err := json.Marshal(insp)
	if err != nil {
		s.logger.Warn("failed to encode inspection, save skipped",
			zap.String("inspection_id", insp.ID), zap.Error(err))
		return
	}

	query := `
	INSERT INTO inspections (namespace, id, status, payload, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (namespace, id) DO UPDATE SET
		status = excluded.status,
		payload = excluded.payload,
		updated_at = excluded.updated_at
	`
	_, err = s.db.Exec(query, s.namespace, insp.ID, insp.Status, payload,
		insp.CreatedAt.UnixNano(), insp.UpdatedAt.UnixNano())
	if err != nil {
		s.logger.Warn("local save degraded to no-op",
			zap.String("inspection_id", insp.ID),
			zap.String("code", string(errors.ErrStorageDegraded)),
			zap.Error(err))
	}
}

// Get retrieves a draft by ID.
func (s *Store) Get(id string) (*models.Inspection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *Store) get(id string) (*models.Inspection, error) {
	var payload []byte
	err := s.db.QueryRow(
		`SELECT payload FROM inspections WHERE namespace = ? AND id = ?`,
		s.namespace, id,
	).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.ErrInspectionNotFound, "inspection not found: "+id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to load inspection", err)
	}

	var insp models.Inspection
	if err := json.Unmarshal(payload, &insp); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "corrupt inspection payload", err)
	}
	return &insp, nil
}

// ListAll returns all drafts in the namespace, newest first.
func (s *Store) ListAll() ([]*models.Inspection, error) {
	return s.list(`SELECT payload FROM inspections WHERE namespace = ? ORDER BY updated_at DESC`, s.namespace)
}

// ListByStatus returns the drafts with the given lifecycle status,
// newest first. Backs the in-progress/completed history tabs.
func (s *Store) ListByStatus(status models.Status) ([]*models.Inspection, error) {
	return s.list(
		`SELECT payload FROM inspections WHERE namespace = ? AND status = ? ORDER BY updated_at DESC`,
		s.namespace, status)
}

func (s *Store) list(query string, args ...any) ([]*models.Inspection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to list inspections", err)
	}
	defer rows.Close()

	var result []*models.Inspection
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to scan inspection", err)
		}
		var insp models.Inspection
		if err := json.Unmarshal(payload, &insp); err != nil {
			s.logger.Warn("skipping corrupt inspection payload", zap.Error(err))
			continue
		}
		result = append(result, &insp)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to list inspections", err)
	}
	return result, nil
}

// Count returns the number of live drafts in the namespace.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM inspections WHERE namespace = ?`, s.namespace,
	).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(errors.ErrStorageDegraded, "failed to count inspections", err)
	}
	return n, nil
}

// Remove deletes the draft from the live collection and records its ID
// in the tombstone set. Both steps are idempotent: removing an absent
// ID still tombstones it, and re-tombstoning is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`DELETE FROM inspections WHERE namespace = ? AND id = ?`,
		s.namespace, id,
	); err != nil {
		s.logger.Warn("local delete degraded to no-op",
			zap.String("inspection_id", id),
			zap.String("code", string(errors.ErrStorageDegraded)),
			zap.Error(err))
		return
	}

	if _, err := s.db.Exec(
		`INSERT INTO tombstones (namespace, id, deleted_at) VALUES (?, ?, ?)
		 ON CONFLICT (namespace, id) DO NOTHING`,
		s.namespace, id, time.Now().UnixNano(),
	); err != nil {
		s.logger.Warn("failed to record tombstone",
			zap.String("inspection_id", id), zap.Error(err))
	}
}

// IsTombstoned reports whether the ID is in the tombstone set.
func (s *Store) IsTombstoned(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isTombstoned(id)
}

func (s *Store) isTombstoned(id string) bool {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tombstones WHERE namespace = ? AND id = ?`,
		s.namespace, id,
	).Scan(&n)
	if err != nil {
		// When the tombstone set is unreadable, fail closed: treating
		// the ID as tombstoned can only drop a stale write, never
		// resurrect a deleted record.
		s.logger.Warn("tombstone lookup failed, treating as tombstoned",
			zap.String("inspection_id", id), zap.Error(err))
		return true
	}
	return n > 0
}

// Tombstones returns all tombstoned IDs in the namespace.
func (s *Store) Tombstones() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id FROM tombstones WHERE namespace = ?`, s.namespace)
	if err != nil {
		return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to list tombstones", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(errors.ErrStorageDegraded, "failed to scan tombstone", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CurrentID returns the persisted current-draft pointer, or "" when
// no draft is current.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current sql.NullString
	err := s.db.QueryRow(
		`SELECT current_id FROM session WHERE namespace = ?`, s.namespace,
	).Scan(&current)
	if stderrors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		s.logger.Warn("failed to read current pointer", zap.Error(err))
		return ""
	}
	return current.String
}

// SetCurrentID persists the current-draft pointer.
func (s *Store) SetCurrentID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO session (namespace, current_id) VALUES (?, ?)
		 ON CONFLICT (namespace) DO UPDATE SET current_id = excluded.current_id`,
		s.namespace, id)
	if err != nil {
		s.logger.Warn("failed to persist current pointer",
			zap.String("inspection_id", id), zap.Error(err))
	}
}

// ClearCurrentID clears the current-draft pointer.
func (s *Store) ClearCurrentID() {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`UPDATE session SET current_id = NULL WHERE namespace = ?`, s.namespace)
	if err != nil {
		s.logger.Warn("failed to clear current pointer", zap.Error(err))
	}
}
