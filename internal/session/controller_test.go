package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/db"
	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/reconcile"
	"github.com/vistoriaapp/core/internal/store"
	syncpkg "github.com/vistoriaapp/core/internal/sync"
	"github.com/vistoriaapp/core/internal/uuid"
)

func newTestController(t *testing.T) (*Controller, *store.Store, *reconcile.Engine) {
	t.Helper()
	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	st := store.New(database, store.NamespaceFor("user1"), zap.NewNop())
	remote := syncpkg.NewClient("", "", zap.NewNop())
	engine := reconcile.New(st, remote, zap.NewNop())
	t.Cleanup(engine.Wait)

	return New(st, engine, "inspector-1", zap.NewNop()), st, engine
}

func fullPropertyData() models.PropertyData {
	return models.PropertyData{
		"inspectionType": "entrada",
		"propertyCode":   "VIS-300",
		"propertyType":   "apartamento",
		"address":        "Rua das Flores",
		"addressNumber":  "42",
		"neighborhood":   "Centro",
		"city":           "São Paulo",
		"zipCode":        "01000-000",
	}
}

func testRoom() models.Room {
	return models.Room{
		ID:        uuid.New(),
		Type:      models.RoomSala,
		Condition: models.ConditionBom,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAutoSaveTickEmptyStateCreatesNothing(t *testing.T) {
	c, st, _ := newTestController(t)

	// Empty state, no current ID: repeated ticks must never create a
	// ghost record or set a current pointer.
	for i := 0; i < 5; i++ {
		c.AutoSaveTick()
	}

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, st.CurrentID())
}

func TestAutoSaveTickLazilyCreatesDraft(t *testing.T) {
	c, st, engine := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-301"})
	c.AutoSaveTick()
	engine.Wait()

	current := st.CurrentID()
	require.NotEmpty(t, current)

	insp, err := st.Get(current)
	require.NoError(t, err)
	assert.Equal(t, "VIS-301", insp.PropertyData["propertyCode"])
	assert.Equal(t, models.StatusInProgress, insp.Status)
}

func TestAutoSaveTickMergesIntoCurrentDraft(t *testing.T) {
	c, st, engine := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-302"})
	c.AutoSaveTick()
	current := st.CurrentID()

	c.SetRooms([]models.Room{testRoom()})
	c.GoToStep(models.StepRooms)
	c.AutoSaveTick()
	engine.Wait()

	assert.Equal(t, current, st.CurrentID(), "autosave must not fork a new draft")

	insp, err := st.Get(current)
	require.NoError(t, err)
	assert.Len(t, insp.Rooms, 1)
	assert.Equal(t, models.StepRooms, insp.CurrentStep)

	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAutoSaveTickRecreatesWhenCurrentWasDeletedElsewhere(t *testing.T) {
	c, st, engine := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-303"})
	c.AutoSaveTick()
	deleted := st.CurrentID()

	// Deleted through another surface: pointer still set, record gone.
	st.Remove(deleted)
	st.SetCurrentID(deleted)

	c.AutoSaveTick()
	engine.Wait()

	// The captured state lands in a fresh draft; the deleted ID stays dead.
	replacement := st.CurrentID()
	assert.NotEqual(t, deleted, replacement)
	_, err := st.Get(deleted)
	assert.True(t, errors.Is(err, errors.ErrInspectionNotFound))
	_, err = st.Get(replacement)
	assert.NoError(t, err)
}

func TestFinalizeReopenLifecycle(t *testing.T) {
	c, st, engine := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "X1"})
	c.SetRooms([]models.Room{testRoom()})
	c.AutoSaveTick()
	id := st.CurrentID()
	require.NotEmpty(t, id)

	finalized, err := c.Finalize(id)
	require.NoError(t, err)
	engine.Wait()

	assert.Equal(t, models.StatusCompleted, finalized.Status)
	require.NotNil(t, finalized.CompletedAt)
	assert.True(t, finalized.PDFGenerated)
	require.Len(t, finalized.EditHistory, 1)
	assert.Equal(t, models.ActionFinalized, finalized.EditHistory[0].Action)
	assert.Equal(t, "inspector-1", finalized.EditHistory[0].Actor)
	assert.Empty(t, st.CurrentID(), "finalize ends the editing session")

	reopened, step, err := c.Reopen(id)
	require.NoError(t, err)
	engine.Wait()

	assert.Equal(t, models.StatusInProgress, reopened.Status)
	assert.Equal(t, models.StepReview, step)
	require.Len(t, reopened.EditHistory, 2)
	assert.Equal(t, models.ActionFinalized, reopened.EditHistory[0].Action)
	assert.Equal(t, models.ActionReopened, reopened.EditHistory[1].Action)
	assert.Equal(t, id, st.CurrentID(), "reopened draft becomes current again")
}

func TestHistoryIsAppendOnly(t *testing.T) {
	c, st, _ := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-304"})
	c.AutoSaveTick()
	id := st.CurrentID()

	prevLen := 0
	for i := 0; i < 4; i++ {
		insp, err := c.Finalize(id)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(insp.EditHistory), prevLen)
		prevLen = len(insp.EditHistory)

		insp, _, err = c.Reopen(id)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(insp.EditHistory), prevLen)
		prevLen = len(insp.EditHistory)
	}

	insp, err := st.Get(id)
	require.NoError(t, err)
	require.Len(t, insp.EditHistory, 8)
	for i, entry := range insp.EditHistory {
		want := models.ActionFinalized
		if i%2 == 1 {
			want = models.ActionReopened
		}
		assert.Equal(t, want, entry.Action, "entry %d reordered", i)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	c, st, _ := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-305"})
	c.AutoSaveTick()
	id := st.CurrentID()

	_, err := c.Finalize(id)
	require.NoError(t, err)

	// Finalizing twice appends a second entry; it is not an error.
	insp, err := c.Finalize(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, insp.Status)
	assert.Len(t, insp.EditHistory, 2)
}

func TestFinalizeUnknownDraft(t *testing.T) {
	c, _, _ := newTestController(t)

	_, err := c.Finalize("insp_missing")
	assert.True(t, errors.Is(err, errors.ErrInspectionNotFound))
}

func TestReopenRequiresCompletedStatus(t *testing.T) {
	c, st, _ := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-306"})
	c.AutoSaveTick()

	_, _, err := c.Reopen(st.CurrentID())
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestDeleteCurrentResetsSession(t *testing.T) {
	c, st, engine := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-307"})
	c.AutoSaveTick()
	id := st.CurrentID()

	c.Delete(id)
	engine.Wait()

	assert.Empty(t, st.CurrentID())

	// The captured state was reset with the deletion, so subsequent
	// ticks have nothing to save and cannot resurrect anything.
	for i := 0; i < 3; i++ {
		c.AutoSaveTick()
	}
	count, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAdvanceEnforcesStepRules(t *testing.T) {
	c, _, _ := newTestController(t)

	// Property step: required fields missing.
	_, err := c.Advance()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))

	c.SetPropertyData(fullPropertyData())
	step, err := c.Advance()
	require.NoError(t, err)
	assert.Equal(t, models.StepRooms, step)

	// Rooms step: at least one room before review.
	_, err = c.Advance()
	assert.True(t, errors.Is(err, errors.ErrValidation))

	c.SetRooms([]models.Room{testRoom()})
	step, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, models.StepReview, step)

	step, err = c.Advance()
	require.NoError(t, err)
	assert.Equal(t, models.StepReport, step)

	_, err = c.Advance()
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestValidatePropertyReportsMissingFields(t *testing.T) {
	err := ValidateProperty(models.PropertyData{
		"inspectionType": "entrada",
		"propertyCode":   "VIS-308",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Contains(t, err.Error(), "address")
	assert.Contains(t, err.Error(), "zipCode")

	assert.NoError(t, ValidateProperty(fullPropertyData()))
}

func TestLoadCompletedDraftResumesAtReview(t *testing.T) {
	c, st, _ := newTestController(t)

	c.SetPropertyData(models.PropertyData{"propertyCode": "VIS-309"})
	c.AutoSaveTick()
	id := st.CurrentID()
	_, err := c.Finalize(id)
	require.NoError(t, err)

	insp, step, err := c.Load(id)
	require.NoError(t, err)
	assert.Equal(t, models.StepReview, step)
	// Load alone does not reopen: status stays completed.
	assert.Equal(t, models.StatusCompleted, insp.Status)
	assert.Equal(t, id, st.CurrentID())
}
