package store

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/db"
	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/uuid"
)

// setupTestStore creates a store over an in-memory SQLite database.
func setupTestStore(t *testing.T, namespace string) (*Store, *db.DB) {
	t.Helper()
	database, err := db.OpenInMemory()
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database, namespace, zap.NewNop()), database
}

func testInspection(t *testing.T) *models.Inspection {
	t.Helper()
	insp := models.NewInspection(uuid.NewInspectionID())
	insp.PropertyData = models.PropertyData{
		"propertyCode": "VIS-001",
		"address":      "Rua das Flores",
	}
	insp.Rooms = []models.Room{
		{
			ID:        uuid.New(),
			Type:      models.RoomSala,
			Condition: models.ConditionBom,
			CreatedAt: time.Now().UTC(),
		},
	}
	return insp
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	before := insp.Clone()

	s.Put(insp)

	got, err := s.Get(insp.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.UpdatedAt.Before(before.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: put %v, got %v", before.UpdatedAt, got.UpdatedAt)
	}

	// Deep-equal modulo UpdatedAt.
	got.UpdatedAt = before.UpdatedAt
	wantJSON, _ := json.Marshal(before)
	gotJSON, _ := json.Marshal(got)
	if !reflect.DeepEqual(wantJSON, gotJSON) {
		t.Errorf("round trip mismatch:\nwant %s\ngot  %s", wantJSON, gotJSON)
	}
}

func TestGetNotFound(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	_, err := s.Get("insp_missing")
	if !errors.Is(err, errors.ErrInspectionNotFound) {
		t.Fatalf("expected INSPECTION_NOT_FOUND, got %v", err)
	}
}

func TestUpdatedAtMonotonic(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	var last time.Time
	for i := 0; i < 10; i++ {
		s.Put(insp)
		got, err := s.Get(insp.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.UpdatedAt.Before(last) {
			t.Fatalf("UpdatedAt decreased on save %d: %v < %v", i, got.UpdatedAt, last)
		}
		last = got.UpdatedAt
	}
}

func TestRemoveTombstonesAndPutIsDropped(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	s.Put(insp)
	s.Remove(insp.ID)

	if !s.IsTombstoned(insp.ID) {
		t.Fatal("expected ID to be tombstoned after Remove")
	}

	// remove(A) then immediately put(A'): the live collection must not
	// contain A afterward.
	revived := testInspection(t)
	revived.ID = insp.ID
	s.Put(revived)

	if _, err := s.Get(insp.ID); !errors.Is(err, errors.ErrInspectionNotFound) {
		t.Fatalf("tombstoned inspection resurrected: err=%v", err)
	}
}

func TestTombstoneMonotonicityUnderInterleaving(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	rng := rand.New(rand.NewSource(42))
	id := uuid.NewInspectionID()
	removed := false

	// Arbitrary interleavings of put/remove on the same ID: once a
	// remove happened, the live collection never shows the ID again.
	for i := 0; i < 50; i++ {
		if rng.Intn(2) == 0 {
			insp := testInspection(t)
			insp.ID = id
			s.Put(insp)
		} else {
			s.Remove(id)
			removed = true
		}

		if removed {
			if _, err := s.Get(id); !errors.Is(err, errors.ErrInspectionNotFound) {
				t.Fatalf("step %d: tombstoned ID visible in live collection", i)
			}
		}
	}

	if removed && !s.IsTombstoned(id) {
		t.Fatal("tombstone lost")
	}
}

func TestIdempotentRemove(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	s.Put(insp)

	s.Remove(insp.ID)
	s.Remove(insp.ID)

	if _, err := s.Get(insp.ID); !errors.Is(err, errors.ErrInspectionNotFound) {
		t.Fatal("inspection still live after double remove")
	}

	tombstones, err := s.Tombstones()
	if err != nil {
		t.Fatalf("Tombstones failed: %v", err)
	}
	count := 0
	for _, id := range tombstones {
		if id == insp.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one tombstone occurrence, got %d", count)
	}
}

func TestListByStatus(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	inProgress := testInspection(t)
	s.Put(inProgress)

	done := testInspection(t)
	now := time.Now().UTC()
	done.Status = models.StatusCompleted
	done.CompletedAt = &now
	s.Put(done)

	completed, err := s.ListByStatus(models.StatusCompleted)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != done.ID {
		t.Fatalf("expected only the completed inspection, got %d", len(completed))
	}

	all, err := s.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 inspections, got %d", len(all))
	}
}

func TestNamespaceIsolation(t *testing.T) {
	_, database := setupTestStore(t, NamespaceFor("user1"))
	s1 := New(database, NamespaceFor("user1"), zap.NewNop())
	s2 := New(database, NamespaceFor("user2"), zap.NewNop())

	insp := testInspection(t)
	s1.Put(insp)

	if _, err := s2.Get(insp.ID); !errors.Is(err, errors.ErrInspectionNotFound) {
		t.Fatal("inspection leaked across namespaces")
	}
}

func TestCurrentPointer(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	if got := s.CurrentID(); got != "" {
		t.Fatalf("expected empty current pointer, got %q", got)
	}

	s.SetCurrentID("insp_abc")
	if got := s.CurrentID(); got != "insp_abc" {
		t.Fatalf("expected insp_abc, got %q", got)
	}

	s.ClearCurrentID()
	if got := s.CurrentID(); got != "" {
		t.Fatalf("expected cleared pointer, got %q", got)
	}
}

func TestLegacyNamespaceMigration(t *testing.T) {
	_, database := setupTestStore(t, BaseNamespace)
	legacy := New(database, BaseNamespace, zap.NewNop())
	user := New(database, NamespaceFor("user1"), zap.NewNop())

	insp := testInspection(t)
	legacy.Put(insp)

	if err := user.MigrateLegacyNamespace(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	if _, err := user.Get(insp.ID); err != nil {
		t.Fatalf("inspection not migrated to user namespace: %v", err)
	}
	if _, err := legacy.Get(insp.ID); !errors.Is(err, errors.ErrInspectionNotFound) {
		t.Fatal("legacy namespace not cleared after migration")
	}
}

func TestLegacyMigrationNeverOverwrites(t *testing.T) {
	_, database := setupTestStore(t, BaseNamespace)
	legacy := New(database, BaseNamespace, zap.NewNop())
	user := New(database, NamespaceFor("user1"), zap.NewNop())

	existing := testInspection(t)
	user.Put(existing)

	legacyInsp := testInspection(t)
	legacy.Put(legacyInsp)

	if err := user.MigrateLegacyNamespace(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	// User already had data: legacy stays put, user data untouched.
	if _, err := legacy.Get(legacyInsp.ID); err != nil {
		t.Fatalf("legacy data moved despite non-empty user namespace: %v", err)
	}
	if _, err := user.Get(existing.ID); err != nil {
		t.Fatalf("user data lost: %v", err)
	}
}

func TestMigrationNoopForAnonymousNamespace(t *testing.T) {
	s, _ := setupTestStore(t, BaseNamespace)
	if err := s.MigrateLegacyNamespace(); err != nil {
		t.Fatalf("anonymous migration should be a no-op, got %v", err)
	}
}

func TestStripSyncedMedia(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	insp.Rooms[0].Photos = []models.Photo{
		{ID: uuid.New(), URL: "https://cdn.example/p1.jpg", Payload: "aGVsbG8="},
		{ID: uuid.New(), Payload: "bm90LXVwbG9hZGVk"},
	}
	insp.Rooms[0].Audios = []models.AudioClip{
		{ID: uuid.New(), URL: "https://cdn.example/a1.webm", Payload: "YXVkaW8="},
	}
	s.Put(insp)

	savedAt := mustGet(t, s, insp.ID).UpdatedAt

	if stripped := s.StripSyncedMedia(); stripped != 1 {
		t.Fatalf("expected 1 inspection stripped, got %d", stripped)
	}

	got := mustGet(t, s, insp.ID)
	if got.Rooms[0].Photos[0].Payload != "" {
		t.Error("uploaded photo payload not stripped")
	}
	if got.Rooms[0].Photos[1].Payload == "" {
		t.Error("not-yet-uploaded photo payload was stripped")
	}
	if got.Rooms[0].Audios[0].Payload != "" {
		t.Error("uploaded audio payload not stripped")
	}
	if !got.UpdatedAt.Equal(savedAt) {
		t.Error("maintenance pass bumped UpdatedAt")
	}

	// Second pass has nothing left to do.
	if stripped := s.StripSyncedMedia(); stripped != 0 {
		t.Fatalf("expected idempotent second pass, stripped %d", stripped)
	}
}

func TestExportImportAssignsFreshID(t *testing.T) {
	s, _ := setupTestStore(t, NamespaceFor("user1"))

	insp := testInspection(t)
	s.Put(insp)

	data, err := s.Export(insp.ID)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, err := s.Import(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.ID == insp.ID {
		t.Fatal("import reused the original ID")
	}
	if _, err := s.Get(imported.ID); err != nil {
		t.Fatalf("imported inspection not stored: %v", err)
	}
}

func mustGet(t *testing.T, s *Store, id string) *models.Inspection {
	t.Helper()
	insp, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", id, err)
	}
	return insp
}

