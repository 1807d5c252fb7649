package store

import (
	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/errors"
)

// MigrateLegacyNamespace performs the one-time lift of pre-login data
// into the user's namespace: when this store is user-scoped, its own
// namespace is empty, and the legacy shared namespace has records, the
// legacy rows (drafts, tombstones, and the current pointer) move over
// and the legacy namespace is cleared. Existing user data is never
// overwritten. Runs once at startup.
func (s *Store) MigrateLegacyNamespace() error {
	if s.namespace == BaseNamespace {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var userCount int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM inspections WHERE namespace = ?`, s.namespace,
	).Scan(&userCount); err != nil {
		return errors.Wrap(errors.ErrNamespaceMigration, "failed to inspect user namespace", err)
	}
	if userCount > 0 {
		return nil
	}

	var legacyCount int
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM inspections WHERE namespace = ?`, BaseNamespace,
	).Scan(&legacyCount); err != nil {
		return errors.Wrap(errors.ErrNamespaceMigration, "failed to inspect legacy namespace", err)
	}
	if legacyCount == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrNamespaceMigration, "failed to begin migration", err)
	}
	defer tx.Rollback()

	// Moving (not copying) clears the legacy namespace in the same
	// step, so the shared key no longer exposes the user's data.
	statements := []string{
		`UPDATE inspections SET namespace = ? WHERE namespace = ?`,
		`UPDATE OR IGNORE tombstones SET namespace = ? WHERE namespace = ?`,
		`DELETE FROM tombstones WHERE namespace = ?`,
		`UPDATE OR IGNORE session SET namespace = ? WHERE namespace = ?`,
		`DELETE FROM session WHERE namespace = ?`,
	}
	args := [][]any{
		{s.namespace, BaseNamespace},
		{s.namespace, BaseNamespace},
		{BaseNamespace},
		{s.namespace, BaseNamespace},
		{BaseNamespace},
	}
	for i, stmt := range statements {
		if _, err := tx.Exec(stmt, args[i]...); err != nil {
			return errors.Wrap(errors.ErrNamespaceMigration, "failed to move legacy rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrNamespaceMigration, "failed to commit migration", err)
	}

	s.logger.Info("migrated legacy inspections to user namespace",
		zap.String("namespace", s.namespace),
		zap.Int("inspections", legacyCount))
	return nil
}
