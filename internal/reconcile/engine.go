// Package reconcile enforces deletion monotonicity between the local
// record store and the best-effort remote mirror.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/store"
	syncpkg "github.com/vistoriaapp/core/internal/sync"
)

// Engine coordinates the two write paths: synchronous durable writes to
// the local store and asynchronous best-effort pushes to the remote.
// The only coordination point between them is the tombstone set, which
// makes deletion win over any stale racing write.
type Engine struct {
	store  *store.Store
	remote *syncpkg.Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New creates a reconciliation engine.
func New(st *store.Store, remote *syncpkg.Client, logger *zap.Logger) *Engine {
	return &Engine{
		store:  st,
		remote: remote,
		logger: logger,
	}
}

// Save persists a draft locally, then mirrors it to the remote on a
// background goroutine. The local write always completes first; the
// push carries a snapshot so later local mutation doesn't race the
// encoder. Save never fails: a tombstoned ID makes the whole save a
// logged no-op, and remote failure is absorbed by the sync client.
func (e *Engine) Save(insp *models.Inspection) {
	if e.store.IsTombstoned(insp.ID) {
		// Drop before dispatching a push that would recreate the
		// record remotely after a delete.
		e.logger.Info("dropping save of deleted inspection",
			zap.String("inspection_id", insp.ID))
		return
	}

	e.store.Put(insp)

	snapshot := insp.Clone()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		// Re-check after the local write: a delete may have landed
		// between Put and the push being scheduled.
		if e.store.IsTombstoned(snapshot.ID) {
			return
		}
		e.remote.Push(context.Background(), snapshot)
	}()
}

// Delete processes a user-confirmed deletion in the order the
// resurrection race demands: remove from the live collection and
// record the tombstone, clear the current pointer if it referenced the
// ID, and only then notify the remote asynchronously. Any concurrent
// autosave observes the tombstone before the remote call completes.
func (e *Engine) Delete(id string) {
	e.store.Remove(id)

	if e.store.CurrentID() == id {
		e.store.ClearCurrentID()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.remote.PushDelete(context.Background(), id)
	}()

	e.logger.Info("inspection deleted", zap.String("inspection_id", id))
}

// SweepGhosts forcibly removes any live record whose ID is tombstoned.
// Repairs state corrupted by a write that raced ahead of a delete
// across the async sync boundary. Returns the number of ghosts buried.
func (e *Engine) SweepGhosts() int {
	tombstoned, err := e.store.Tombstones()
	if err != nil {
		e.logger.Warn("ghost sweep skipped", zap.Error(err))
		return 0
	}
	if len(tombstoned) == 0 {
		return 0
	}

	live, err := e.store.ListAll()
	if err != nil {
		e.logger.Warn("ghost sweep skipped", zap.Error(err))
		return 0
	}

	dead := make(map[string]struct{}, len(tombstoned))
	for _, id := range tombstoned {
		dead[id] = struct{}{}
	}

	swept := 0
	for _, insp := range live {
		if _, ok := dead[insp.ID]; !ok {
			continue
		}
		e.store.Remove(insp.ID)
		swept++
		e.logger.Warn("buried resurrected inspection",
			zap.String("inspection_id", insp.ID))
	}
	return swept
}

// RunSweeper runs SweepGhosts once immediately, then on every tick
// until the context is cancelled.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) {
	e.SweepGhosts()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.SweepGhosts()
		}
	}
}

// Wait drains in-flight remote pushes. Shutdown only; in-flight calls
// are never cancelled, the tombstone set handles any that lose a race.
func (e *Engine) Wait() {
	e.wg.Wait()
}
