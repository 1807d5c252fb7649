// Package session owns the current-draft pointer and the autosave
// cadence, mediating between live captured state and the
// reconciliation engine.
package session

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
	"github.com/vistoriaapp/core/internal/reconcile"
	"github.com/vistoriaapp/core/internal/store"
	"github.com/vistoriaapp/core/internal/uuid"
)

// AnonymousActor is recorded in edit history when no user is configured.
const AnonymousActor = "anonymous"

// SessionContext is the live captured state of the editing session:
// what the capture UI has fed in since the last save, plus the wizard
// position. It is owned by the Controller and mutated only through
// controller methods.
type SessionContext struct {
	PropertyData models.PropertyData
	Rooms        []models.Room
	CurrentStep  int
}

// hasContent reports whether the captured state is worth persisting.
func (s *SessionContext) hasContent() bool {
	return !s.PropertyData.IsEmpty() || len(s.Rooms) > 0
}

// Controller is the draft session controller. At most one draft is
// current per session; the pointer itself is persisted through the
// store so a restart resumes the same draft.
type Controller struct {
	store  *store.Store
	engine *reconcile.Engine
	logger *zap.Logger
	actor  string

	mu    sync.Mutex
	state SessionContext

	stopCh  chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// New creates a session controller. actor is recorded in edit-history
// entries; empty means anonymous.
func New(st *store.Store, engine *reconcile.Engine, actor string, logger *zap.Logger) *Controller {
	if actor == "" {
		actor = AnonymousActor
	}
	return &Controller{
		store:  st,
		engine: engine,
		logger: logger,
		actor:  actor,
		state: SessionContext{
			PropertyData: models.PropertyData{},
			CurrentStep:  models.StepProperty,
		},
		stopCh: make(chan struct{}),
	}
}

// SetPropertyData replaces the captured property attributes.
func (c *Controller) SetPropertyData(data models.PropertyData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data == nil {
		data = models.PropertyData{}
	}
	c.state.PropertyData = data
}

// SetRooms replaces the captured room sequence.
func (c *Controller) SetRooms(rooms []models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Rooms = rooms
}

// Step returns the current wizard position.
func (c *Controller) Step() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentStep
}

// Advance moves the wizard forward one step, enforcing the step's exit
// rules: the property step requires the required fields, the rooms
// step requires at least one room. An opportunistic autosave runs on
// every successful transition.
func (c *Controller) Advance() (int, error) {
	c.mu.Lock()
	switch c.state.CurrentStep {
	case models.StepProperty:
		if err := ValidateProperty(c.state.PropertyData); err != nil {
			c.mu.Unlock()
			return models.StepProperty, err
		}
		c.state.CurrentStep = models.StepRooms
	case models.StepRooms:
		if len(c.state.Rooms) == 0 {
			c.mu.Unlock()
			return models.StepRooms, errors.New(errors.ErrValidation,
				"at least one room is required before review")
		}
		c.state.CurrentStep = models.StepReview
	case models.StepReview:
		c.state.CurrentStep = models.StepReport
	default:
		step := c.state.CurrentStep
		c.mu.Unlock()
		return step, errors.New(errors.ErrInvalidState, "already at the last step")
	}
	step := c.state.CurrentStep
	c.mu.Unlock()

	c.AutoSaveTick()
	return step, nil
}

// GoToStep jumps the wizard to a step directly (back navigation).
func (c *Controller) GoToStep(step int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if step >= models.StepProperty && step <= models.StepReport {
		c.state.CurrentStep = step
	}
}

// CurrentID returns the persisted current-draft pointer, "" when none.
func (c *Controller) CurrentID() string {
	return c.store.CurrentID()
}

// NewInspection starts a fresh draft in memory, makes it current, and
// resets the captured state. The draft is NOT persisted here: empty
// drafts never hit the store (ghost record prevention); the first
// autosave with content does the durable write.
func (c *Controller) NewInspection() *models.Inspection {
	insp := models.NewInspection(uuid.NewInspectionID())

	c.mu.Lock()
	c.state = SessionContext{
		PropertyData: models.PropertyData{},
		CurrentStep:  models.StepProperty,
	}
	c.mu.Unlock()

	c.store.SetCurrentID(insp.ID)
	c.logger.Info("new inspection started", zap.String("inspection_id", insp.ID))
	return insp
}

// Load makes an existing draft current and hydrates the captured state
// from it. Completed drafts resume at the review step rather than the
// first wizard step; Load does not reopen them (see Reopen).
func (c *Controller) Load(id string) (*models.Inspection, int, error) {
	insp, err := c.store.Get(id)
	if err != nil {
		return nil, 0, err
	}

	resumeStep := insp.CurrentStep
	if insp.Status == models.StatusCompleted || resumeStep == models.StepReport {
		resumeStep = models.StepReview
	}

	c.mu.Lock()
	c.state = SessionContext{
		PropertyData: insp.PropertyData,
		Rooms:        insp.Rooms,
		CurrentStep:  resumeStep,
	}
	c.mu.Unlock()

	c.store.SetCurrentID(id)
	c.logger.Info("inspection loaded",
		zap.String("inspection_id", id), zap.Int("resume_step", resumeStep))
	return insp, resumeStep, nil
}

// AutoSaveTick persists the captured state. Invoked by the autosave
// timer and opportunistically on step transitions.
//
// No current ID and empty state: no-op. No current ID but non-empty
// state: lazily create a draft and make it current. Current ID whose
// record is gone (deleted elsewhere): recreate only if state is
// non-empty. Otherwise merge captured state into the stored draft.
func (c *Controller) AutoSaveTick() {
	c.mu.Lock()
	hasContent := c.state.hasContent()
	snapshot := c.state
	c.mu.Unlock()

	currentID := c.store.CurrentID()

	var insp *models.Inspection
	switch {
	case currentID == "" && !hasContent:
		return
	case currentID == "":
		insp = models.NewInspection(uuid.NewInspectionID())
		c.store.SetCurrentID(insp.ID)
		c.logger.Info("lazily created inspection from captured state",
			zap.String("inspection_id", insp.ID))
	default:
		var err error
		insp, err = c.store.Get(currentID)
		if err != nil {
			if !hasContent {
				return
			}
			insp = models.NewInspection(uuid.NewInspectionID())
			c.store.SetCurrentID(insp.ID)
		}
	}

	insp.PropertyData = snapshot.PropertyData
	insp.Rooms = snapshot.Rooms
	if snapshot.CurrentStep >= models.StepProperty {
		insp.CurrentStep = snapshot.CurrentStep
	}

	// Never durably write an empty draft.
	if !insp.HasContent() {
		return
	}

	c.engine.Save(insp)
	c.logger.Debug("autosave completed", zap.String("inspection_id", insp.ID))
}

// Finalize completes a draft: appends a finalized history entry, marks
// it completed with a completion timestamp, flags the report as
// generated, and ends the editing session by clearing the current
// pointer and captured state. Idempotent: finalizing twice appends a
// second history entry.
func (c *Controller) Finalize(id string) (*models.Inspection, error) {
	insp, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	insp.AppendHistory(models.ActionFinalized, c.actor)
	insp.Status = models.StatusCompleted
	insp.CompletedAt = &now
	insp.PDFGenerated = true

	c.engine.Save(insp)

	if c.store.CurrentID() == id {
		c.store.ClearCurrentID()
	}
	c.resetState()

	c.logger.Info("inspection finalized", zap.String("inspection_id", id))
	return insp, nil
}

// Reopen reverts a completed draft to in-progress for further editing,
// appending a reopened history entry (history is only ever appended,
// never rewritten). The draft becomes current again and the caller is
// routed to the review step.
func (c *Controller) Reopen(id string) (*models.Inspection, int, error) {
	insp, err := c.store.Get(id)
	if err != nil {
		return nil, 0, err
	}
	if insp.Status != models.StatusCompleted {
		return nil, 0, errors.New(errors.ErrInvalidState,
			"only completed inspections can be reopened")
	}

	insp.AppendHistory(models.ActionReopened, c.actor)
	insp.Status = models.StatusInProgress
	insp.CurrentStep = models.StepReview

	c.engine.Save(insp)

	c.mu.Lock()
	c.state = SessionContext{
		PropertyData: insp.PropertyData,
		Rooms:        insp.Rooms,
		CurrentStep:  models.StepReview,
	}
	c.mu.Unlock()
	c.store.SetCurrentID(id)

	c.logger.Info("inspection reopened", zap.String("inspection_id", id))
	return insp, models.StepReview, nil
}

// Delete removes a draft after external user confirmation. Delegates
// to the reconciliation engine (which tombstones before notifying the
// remote) and resets the captured state when the current draft was the
// one deleted.
func (c *Controller) Delete(id string) {
	wasCurrent := c.store.CurrentID() == id

	c.engine.Delete(id)

	if wasCurrent {
		c.resetState()
	}
}

func (c *Controller) resetState() {
	c.mu.Lock()
	c.state = SessionContext{
		PropertyData: models.PropertyData{},
		CurrentStep:  models.StepProperty,
	}
	c.mu.Unlock()
}
