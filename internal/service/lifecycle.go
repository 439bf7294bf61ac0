package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

// TransitionState tracks a complaint's position in the optimistic update
// protocol. Structurally enforcing the three states keeps Busy rejection and
// rollback-on-failure correct instead of incidentally so.
type TransitionState int

const (
	// TransitionIdle means no status change is in flight.
	TransitionIdle TransitionState = iota
	// TransitionPendingLocal means the optimistic patch is applied but the
	// authoritative request has not been issued yet.
	TransitionPendingLocal
	// TransitionReconciling means the authoritative request is outstanding.
	TransitionReconciling
)

type statusUpdater interface {
	UpdateComplaintStatus(ctx context.Context, id string, status models.Status) (*models.Complaint, error)
}

// ControllerParams groups Controller constructor dependencies.
type ControllerParams struct {
	API     statusUpdater
	Store   *Store
	Metrics *MetricsService
	Logger  *zap.Logger
}

// Controller mediates admin status transitions: optimistic local patch,
// authoritative update, overwrite-or-rollback on settlement. Transitions on
// the same complaint are serialized; a second request while one is in flight
// is rejected with Busy, never queued.
type Controller struct {
	api     statusUpdater
	store   *Store
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[string]TransitionState
}

// NewController constructs a Controller.
func NewController(params ControllerParams) *Controller {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		api:     params.API,
		store:   params.Store,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]TransitionState),
	}
}

// State returns the transition state for the complaint id.
func (c *Controller) State(id string) TransitionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[id]
}

// RequestStatusChange applies newStatus to the complaint. Any status may be
// set from any other; the only local rejections are a malformed target value
// and a concurrent in-flight transition on the same id.
func (c *Controller) RequestStatusChange(ctx context.Context, id string, newStatus models.Status) error {
	if !newStatus.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", newStatus))
	}
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "complaint id is required")
	}

	c.mu.Lock()
	if c.states[id] != TransitionIdle {
		c.mu.Unlock()
		c.metrics.RecordBusyRejection()
		return appErrors.ErrBusy
	}
	c.states[id] = TransitionPendingLocal
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.states, id)
		c.mu.Unlock()
	}()

	priors := c.store.PatchStatus(id, newStatus, c.now())
	c.metrics.RecordOptimisticPatch()

	c.mu.Lock()
	c.states[id] = TransitionReconciling
	c.mu.Unlock()

	record, err := c.api.UpdateComplaintStatus(ctx, id, newStatus)
	if err != nil {
		c.store.Restore(priors)
		c.metrics.RecordRollback()
		c.logger.Warn("status change failed, rolled back",
			zap.String("id", id),
			zap.String("status", string(newStatus)),
			zap.Error(err),
		)
		return err
	}

	// Server state is authoritative: a returned record overwrites the
	// optimistic values; an empty 2xx leaves them standing.
	if record != nil {
		c.store.OverwriteRecord(*record)
	}
	return nil
}
