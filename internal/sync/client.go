package sync

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vistoriaapp/core/internal/errors"
	"github.com/vistoriaapp/core/internal/models"
)

// Remote response envelopes, as served by the inspection API.
type inspectionEnvelope struct {
	Success    bool               `json:"success"`
	Inspection *models.Inspection `json:"inspection"`
}

type listEnvelope struct {
	Success     bool                 `json:"success"`
	Inspections []*models.Inspection `json:"inspections"`
}

type statusEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type migrateEnvelope struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Client is the best-effort mirror of the record store against the
// remote inspection API. Every call is fire-and-forget relative to the
// local write path: failures are logged and absorbed, never propagated.
type Client struct {
	httpClient *resty.Client
	token      string
	logger     *zap.Logger
}

// NewClient creates a sync client. An empty baseURL or token leaves the
// client configured but inert: every call short-circuits to a no-op.
// No retry policy: a failed sync waits for the next natural save event.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		httpClient.SetAuthToken(token)
	}

	return &Client{
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// Enabled reports whether the client has a base URL and a bearer
// credential to sync with.
func (c *Client) Enabled() bool {
	return c.token != "" && c.httpClient.BaseURL != ""
}

// Push mirrors a draft to the remote store: update first, create on
// remote not-found. The outcome is tagged; it is never an error value,
// because sync failure must not fail the caller.
func (c *Client) Push(ctx context.Context, insp *models.Inspection) PushOutcome {
	if !c.Enabled() {
		return PushOutcome{Kind: OutcomeSkipped}
	}

	var updated inspectionEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(insp).
		SetResult(&updated).
		Put("/inspections/" + insp.ID)
	if err != nil {
		c.logger.Warn("remote update failed",
			zap.String("inspection_id", insp.ID),
			zap.String("code", string(errors.ErrSyncFailed)),
			zap.Error(err))
		return PushOutcome{Kind: OutcomeFailed, Err: err}
	}

	switch {
	case resp.IsSuccess() && updated.Success:
		c.logger.Debug("inspection synced", zap.String("inspection_id", insp.ID))
		return PushOutcome{Kind: OutcomeUpdated}
	case resp.StatusCode() == http.StatusNotFound:
		return c.create(ctx, insp)
	default:
		err := fmt.Errorf("remote update returned HTTP %d", resp.StatusCode())
		c.logger.Warn("remote update failed",
			zap.String("inspection_id", insp.ID),
			zap.String("code", string(errors.ErrSyncFailed)),
			zap.Error(err))
		return PushOutcome{Kind: OutcomeFailed, Err: err}
	}
}

func (c *Client) create(ctx context.Context, insp *models.Inspection) PushOutcome {
	var created inspectionEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(insp).
		SetResult(&created).
		Post("/inspections")
	if err == nil && resp.IsSuccess() && created.Success {
		c.logger.Info("inspection created on remote after not-found",
			zap.String("inspection_id", insp.ID))
		return PushOutcome{Kind: OutcomeCreated}
	}
	if err == nil {
		err = fmt.Errorf("remote create returned HTTP %d", resp.StatusCode())
	}
	c.logger.Warn("remote create failed",
		zap.String("inspection_id", insp.ID),
		zap.String("code", string(errors.ErrSyncFailed)),
		zap.Error(err))
	return PushOutcome{Kind: OutcomeFailed, Err: err}
}

// PushDelete mirrors a local delete. Failure is logged, not propagated;
// the tombstone set guards correctness regardless of the remote result.
func (c *Client) PushDelete(ctx context.Context, id string) bool {
	if !c.Enabled() {
		return false
	}

	var status statusEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&status).
		Delete("/inspections/" + id)
	if err == nil && resp.IsSuccess() && status.Success {
		c.logger.Debug("inspection deleted on remote", zap.String("inspection_id", id))
		return true
	}
	if err == nil {
		err = fmt.Errorf("remote delete returned HTTP %d", resp.StatusCode())
	}
	c.logger.Warn("remote delete failed",
		zap.String("inspection_id", id),
		zap.String("code", string(errors.ErrSyncFailed)),
		zap.Error(err))
	return false
}

// Fetch retrieves a single remote draft.
func (c *Client) Fetch(ctx context.Context, id string) (*models.Inspection, error) {
	if !c.Enabled() {
		return nil, errors.New(errors.ErrSyncNotConfigured, "sync is not configured")
	}

	var envelope inspectionEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/inspections/" + id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSyncFailed, "remote fetch failed", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.New(errors.ErrInspectionNotFound, "inspection not found on remote: "+id)
	}
	if !resp.IsSuccess() || !envelope.Success {
		return nil, errors.New(errors.ErrSyncFailed,
			fmt.Sprintf("remote fetch returned HTTP %d", resp.StatusCode()))
	}
	return envelope.Inspection, nil
}

// FetchAll retrieves all remote drafts for the authenticated user.
func (c *Client) FetchAll(ctx context.Context) ([]*models.Inspection, error) {
	if !c.Enabled() {
		return nil, errors.New(errors.ErrSyncNotConfigured, "sync is not configured")
	}

	var envelope listEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/inspections")
	if err != nil {
		return nil, errors.Wrap(errors.ErrSyncFailed, "remote list failed", err)
	}
	if !resp.IsSuccess() || !envelope.Success {
		return nil, errors.New(errors.ErrSyncFailed,
			fmt.Sprintf("remote list returned HTTP %d", resp.StatusCode()))
	}
	return envelope.Inspections, nil
}

// Migrate bulk-imports local-only drafts into the remote store. Used
// once to lift pre-existing local data. Returns the imported count.
func (c *Client) Migrate(ctx context.Context, drafts map[string]*models.Inspection) (int, error) {
	if !c.Enabled() {
		return 0, errors.New(errors.ErrSyncNotConfigured, "sync is not configured")
	}

	var envelope migrateEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"inspections": drafts}).
		SetResult(&envelope).
		Post("/inspections/migrate")
	if err != nil {
		return 0, errors.Wrap(errors.ErrSyncFailed, "remote migration failed", err)
	}
	if !resp.IsSuccess() || !envelope.Success {
		return 0, errors.New(errors.ErrSyncFailed,
			fmt.Sprintf("remote migration returned HTTP %d", resp.StatusCode()))
	}

	c.logger.Info("migrated local inspections to remote",
		zap.Int("count", envelope.Count))
	return envelope.Count, nil
}
